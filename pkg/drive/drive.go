// Package drive defines the drive descriptor consumed by the tree and the
// registry that persists descriptors across restarts.
//
// A drive is a top-level directory on the managed volume with its own
// access-control fields. The tree mounts one Drive node per descriptor under
// its root; the permission evaluator answers read/write/share questions from
// the descriptor alone.
//
// Store implementations are in subpackages:
//   - pkg/drive/store/memory - in-memory store (for testing)
//   - pkg/drive/store/badger - BadgerDB persistent store
package drive

import (
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// ============================================================================
// Access Type
// ============================================================================

// AccessType controls how a drive's permission matrix is evaluated.
type AccessType string

const (
	// AccessPrivate restricts read, write, and share to the owner.
	AccessPrivate AccessType = "private"

	// AccessPublic grants read to the read and write lists, write to the
	// write list, and share according to the share-allowed flag.
	AccessPublic AccessType = "public"
)

// IsValid returns true if the access type is a recognized value.
func (a AccessType) IsValid() bool {
	switch a {
	case AccessPrivate, AccessPublic:
		return true
	default:
		return false
	}
}

// String returns the string representation of the access type.
func (a AccessType) String() string {
	return string(a)
}

// ============================================================================
// Reference Tag
// ============================================================================

// RefTag distinguishes the well-known per-user drives from ordinary ones.
type RefTag string

const (
	// RefNone marks an ordinary drive.
	RefNone RefTag = ""

	// RefHome marks a user's home drive.
	RefHome RefTag = "home"

	// RefLibrary marks a user's media library drive.
	RefLibrary RefTag = "library"

	// RefService marks a drive backing an installed service.
	RefService RefTag = "service"
)

// IsValid returns true if the reference tag is a recognized value.
func (r RefTag) IsValid() bool {
	switch r {
	case RefNone, RefHome, RefLibrary, RefService:
		return true
	default:
		return false
	}
}

// String returns the string representation of the reference tag.
func (r RefTag) String() string {
	return string(r)
}

// ============================================================================
// Drive
// ============================================================================

// Drive describes one top-level drive on the volume. The ID doubles as the
// identity stamped on the drive's root directory, so a descriptor and its
// on-disk subtree stay linked across restarts.
type Drive struct {
	// ID is the drive's stable identifier.
	ID uuid.UUID `json:"id"`

	// Name is the drive's directory name directly under the volume root.
	Name string `json:"name"`

	// Access selects the permission matrix.
	Access AccessType `json:"access"`

	// Owner is the identity that created the drive.
	Owner string `json:"owner"`

	// WriteList grants write (and read) on public drives.
	WriteList []string `json:"writelist,omitempty"`

	// ReadList grants read on public drives.
	ReadList []string `json:"readlist,omitempty"`

	// ShareAllowed permits sharing on public drives.
	ShareAllowed bool `json:"share_allowed,omitempty"`

	// Ref tags the drive's role for a user (home, library, service).
	Ref RefTag `json:"ref,omitempty"`
}

// Validate checks the descriptor for internal consistency.
func (d *Drive) Validate() error {
	if d.ID == uuid.Nil {
		return nestfserrors.NewDriveConfigError("drive id must be set")
	}
	if d.Name == "" {
		return nestfserrors.NewDriveConfigError("drive name must not be empty")
	}
	// The name becomes a directory name directly under the volume root, so
	// it must stay a single path element.
	if d.Name != filepath.Base(d.Name) || d.Name == "." || d.Name == ".." {
		return nestfserrors.NewDriveConfigError("drive name must be a single path element: " + d.Name)
	}
	if !d.Access.IsValid() {
		return nestfserrors.NewDriveConfigError("unknown access type " + string(d.Access))
	}
	if d.Owner == "" {
		return nestfserrors.NewDriveConfigError("drive owner must be set")
	}
	if !d.Ref.IsValid() {
		return nestfserrors.NewDriveConfigError("unknown reference tag " + string(d.Ref))
	}
	return nil
}

// Clone returns a deep copy. Descriptors are handed out to the tree, the API,
// and callbacks; cloning keeps list mutations from leaking between them.
func (d *Drive) Clone() *Drive {
	clone := *d
	clone.WriteList = slices.Clone(d.WriteList)
	clone.ReadList = slices.Clone(d.ReadList)
	return &clone
}

// InWriteList returns true if user appears in the write list.
func (d *Drive) InWriteList(user string) bool {
	return slices.Contains(d.WriteList, user)
}

// InReadList returns true if user appears in the read list.
func (d *Drive) InReadList(user string) bool {
	return slices.Contains(d.ReadList, user)
}
