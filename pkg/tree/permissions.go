package tree

import (
	"github.com/google/uuid"

	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// ============================================================================
// Permission Evaluation
// ============================================================================
//
// Permissions are derived entirely from the owning drive's descriptor:
//
//	private  read/write/share only for the owner
//	public   read for the write and read lists, write for the write list,
//	         share according to the drive's share-allowed flag
//
// Any other access type is a configuration error and is reported as one,
// never silently denied.

// CanRead reports whether user may read the entry.
func (t *Tree) CanRead(user string, n *Node) (bool, error) {
	d, err := t.owningDescriptor(n)
	if err != nil {
		return false, err
	}
	switch d.Access {
	case drive.AccessPrivate:
		return d.Owner == user, nil
	case drive.AccessPublic:
		return d.InWriteList(user) || d.InReadList(user), nil
	default:
		return false, unknownAccess(d)
	}
}

// CanWrite reports whether user may modify the entry.
func (t *Tree) CanWrite(user string, n *Node) (bool, error) {
	d, err := t.owningDescriptor(n)
	if err != nil {
		return false, err
	}
	switch d.Access {
	case drive.AccessPrivate:
		return d.Owner == user, nil
	case drive.AccessPublic:
		return d.InWriteList(user), nil
	default:
		return false, unknownAccess(d)
	}
}

// CanShare reports whether the entry may be shared by user. On public drives
// the decision is the drive's share-allowed flag, independent of the user.
func (t *Tree) CanShare(user string, n *Node) (bool, error) {
	d, err := t.owningDescriptor(n)
	if err != nil {
		return false, err
	}
	switch d.Access {
	case drive.AccessPrivate:
		return d.Owner == user, nil
	case drive.AccessPublic:
		return d.ShareAllowed, nil
	default:
		return false, unknownAccess(d)
	}
}

// IsOwner reports whether user owns the entry's drive.
func (t *Tree) IsOwner(user string, n *Node) (bool, error) {
	d, err := t.owningDescriptor(n)
	if err != nil {
		return false, err
	}
	return d.Owner == user, nil
}

// CanReadID is CanRead for an identifier; fails with NodeNotFound when the
// identifier does not resolve.
func (t *Tree) CanReadID(user string, id uuid.UUID) (bool, error) {
	n, err := t.requireNode(id)
	if err != nil {
		return false, err
	}
	return t.CanRead(user, n)
}

// CanWriteID is CanWrite for an identifier.
func (t *Tree) CanWriteID(user string, id uuid.UUID) (bool, error) {
	n, err := t.requireNode(id)
	if err != nil {
		return false, err
	}
	return t.CanWrite(user, n)
}

// CanShareID is CanShare for an identifier.
func (t *Tree) CanShareID(user string, id uuid.UUID) (bool, error) {
	n, err := t.requireNode(id)
	if err != nil {
		return false, err
	}
	return t.CanShare(user, n)
}

// IsOwnerID is IsOwner for an identifier.
func (t *Tree) IsOwnerID(user string, id uuid.UUID) (bool, error) {
	n, err := t.requireNode(id)
	if err != nil {
		return false, err
	}
	return t.IsOwner(user, n)
}

// ============================================================================
// Drive Role Predicates
// ============================================================================

// IsHomeDrive reports whether the entry lives on user's home drive.
func (t *Tree) IsHomeDrive(user string, n *Node) (bool, error) {
	return t.hasRef(user, n, drive.RefHome)
}

// IsLibraryDrive reports whether the entry lives on user's library drive.
func (t *Tree) IsLibraryDrive(user string, n *Node) (bool, error) {
	return t.hasRef(user, n, drive.RefLibrary)
}

// IsServiceDrive reports whether the entry lives on a service drive owned by
// user.
func (t *Tree) IsServiceDrive(user string, n *Node) (bool, error) {
	return t.hasRef(user, n, drive.RefService)
}

func (t *Tree) hasRef(user string, n *Node, ref drive.RefTag) (bool, error) {
	d, err := t.owningDescriptor(n)
	if err != nil {
		return false, err
	}
	return d.Ref == ref && d.Owner == user, nil
}

// ============================================================================
// Helpers
// ============================================================================

// owningDescriptor resolves the descriptor of the drive the node lives
// under. Fails with NodeDetached when the ancestry walk does not reach a
// drive boundary.
func (t *Tree) owningDescriptor(n *Node) (*drive.Drive, error) {
	if n == nil {
		return nil, nestfserrors.NewInvalidArgumentError("node must be set")
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	d := n.OwningDrive()
	if d == nil || d.drive == nil {
		return nil, nestfserrors.NewNodeDetachedError(n.id.String())
	}
	return d.drive, nil
}

func (t *Tree) requireNode(id uuid.UUID) (*Node, error) {
	n := t.Lookup(id)
	if n == nil {
		return nil, nestfserrors.NewNodeNotFoundError(id.String())
	}
	return n, nil
}

func unknownAccess(d *drive.Drive) error {
	return nestfserrors.NewDriveConfigError(
		"unknown access type " + string(d.Access) + " on drive " + d.Name,
	)
}
