// Package tree keeps an in-memory mirror of the managed volume: one root,
// one node per drive directly under it, and directory/file nodes below,
// every node indexed by the persistent identity stored in its extended
// attributes.
//
// The tree is rebuilt from extended attributes at startup and kept current by
// drive-lifecycle notifications and directory probes. It never persists
// itself. Structural mutation (attach, detach, index updates) happens under
// the tree's lock so lookups never observe a node that is half attached.
package tree

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/attrcache"
	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// Metrics records tree activity. Implementations must be safe for concurrent
// use. A nil Metrics disables instrumentation.
type Metrics interface {
	// NodeAttached counts a node joining the index, tagged by kind.
	NodeAttached(kind string)

	// NodeDetached counts a node leaving the index, tagged by kind.
	NodeDetached(kind string)

	// ProbeStarted marks a probe entering flight.
	ProbeStarted()

	// ProbeFinished marks a probe leaving flight with its duration.
	ProbeFinished(durationMs float64)

	// RecordScan counts one scanned directory: entries reconciled and
	// entries skipped (unreadable or unsupported).
	RecordScan(entries, skipped int)
}

// Tree owns the root node and the identity index. All structural access goes
// through it; see the package doc for the locking contract.
type Tree struct {
	mu    sync.RWMutex
	root  *Node
	index map[uuid.UUID]*Node

	rootDir string
	attrs   *attrcache.Cache
	metrics Metrics

	probes atomic.Int64
}

// New creates a tree over the volume root directory. attrs stamps drive
// roots and reads entry summaries during probes. metrics may be nil.
func New(rootDir string, attrs *attrcache.Cache, metrics Metrics) *Tree {
	rootDir = filepath.Clean(rootDir)
	return &Tree{
		root:    NewRoot(rootDir),
		index:   make(map[uuid.UUID]*Node),
		rootDir: rootDir,
		attrs:   attrs,
		metrics: metrics,
	}
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.root
}

// RootDir returns the volume root directory the tree mirrors.
func (t *Tree) RootDir() string {
	return t.rootDir
}

// Lookup resolves an identifier to its node. Returns nil when the identifier
// is not attached anywhere under the root.
func (t *Tree) Lookup(id uuid.UUID) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index[id]
}

// AbsPath resolves an identifier to its entry's absolute path on the volume.
// Fails with NodeNotFound for unknown identifiers.
func (t *Tree) AbsPath(id uuid.UUID) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.index[id]
	if n == nil {
		return "", nestfserrors.NewNodeNotFoundError(id.String())
	}
	return n.AbsPath()
}

// NodeCount returns the number of attached nodes, root excluded.
func (t *Tree) NodeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.index)
}

// ProbesInFlight returns the number of probes currently running.
func (t *Tree) ProbesInFlight() int64 {
	return t.probes.Load()
}

// WalkSubtree applies fn to the node with the given identifier and everything
// below it in pre-order, under the read lock. Traversal stops when fn returns
// false. fn must not mutate the tree or call back into it.
func (t *Tree) WalkSubtree(id uuid.UUID, fn func(*Node) bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.index[id]
	if n == nil {
		return nestfserrors.NewNodeNotFoundError(id.String())
	}
	n.Walk(fn)
	return nil
}

// ============================================================================
// Node Operations
// ============================================================================

// CreateNode builds a Directory or File node from a freshly read summary and
// attaches it under parent. Returns the new node's identifier. The caller
// owns any follow-up probe of the parent, including after partial failure.
//
// Fails with NotContainer if parent cannot hold children, NodeDetached if
// parent is not attached to this tree, NodeAttached if the summary's
// identifier is already in the index, and InvalidArgument for summaries of
// unknown type.
func (t *Tree) CreateNode(parent *Node, s *attrcache.Summary) (uuid.UUID, error) {
	if parent == nil || s == nil {
		return uuid.Nil, nestfserrors.NewInvalidArgumentError("parent and summary must be set")
	}

	var n *Node
	switch s.Type {
	case attrcache.EntryDirectory:
		n = NewDirectory(s.ID, s.Name, s.MTime)
	case attrcache.EntryFile:
		n = NewFile(s.ID, s.Name, s.MTime, s.Size, s.Hash, s.Magic)
	default:
		return uuid.Nil, nestfserrors.NewInvalidArgumentError("summary type is neither directory nor file")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.attach(n, parent); err != nil {
		return uuid.Nil, err
	}
	return n.id, nil
}

// UpdateNode applies a freshly read summary onto an existing node's mutable
// fields. Identity and tree position never change; a summary carrying a
// different identifier fails with IdentityMismatch, meaning the filesystem
// entry was replaced and the caller should delete and recreate instead.
func (t *Tree) UpdateNode(n *Node, s *attrcache.Summary) error {
	if n == nil || s == nil {
		return nestfserrors.NewInvalidArgumentError("node and summary must be set")
	}
	if s.ID != n.id {
		return nestfserrors.NewIdentityMismatchError(s.Name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	applySummary(n, s)
	return nil
}

// DeleteNode detaches a node and its entire subtree, children leaving the
// index before their parents. Fails with NodeDetached if the node is not
// attached to this tree and InvalidArgument for the root.
func (t *Tree) DeleteNode(n *Node) error {
	if n == nil {
		return nestfserrors.NewInvalidArgumentError("node must be set")
	}
	if n.kind == KindRoot {
		return nestfserrors.NewInvalidArgumentError("root node cannot be deleted")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index[n.id] != n {
		return nestfserrors.NewNodeDetachedError(n.id.String())
	}
	t.removeSubtree(n)
	return nil
}

// attach links n under parent and indexes it. Caller holds t.mu.
func (t *Tree) attach(n, parent *Node) error {
	if parent.kind != KindRoot && t.index[parent.id] != parent {
		return nestfserrors.NewNodeDetachedError(parent.id.String())
	}
	if existing := t.index[n.id]; existing != nil {
		return nestfserrors.NewNodeAttachedError(n.id.String())
	}
	if err := n.Attach(parent); err != nil {
		return err
	}
	t.index[n.id] = n
	t.recordAttach(n.kind)
	return nil
}

// removeSubtree detaches n and everything below it in post-order, aborting
// bound workers along the way. Caller holds t.mu.
func (t *Tree) removeSubtree(n *Node) {
	var order []*Node
	n.WalkPost(func(d *Node) {
		order = append(order, d)
	})

	for _, d := range order {
		d.AbortWorker()
		if err := d.Detach(); err != nil {
			// Unreachable while the index invariant holds; keep the walk
			// going so the index never retains part of a removed subtree.
			logger.Warn("detach during subtree removal failed",
				logger.NodeID(d.id.String()),
				logger.Err(err),
			)
		}
		delete(t.index, d.id)
		t.recordDetach(d.kind)
	}
}

// applySummary copies the summary's mutable fields onto n. Caller holds t.mu.
func applySummary(n *Node, s *attrcache.Summary) {
	n.name = s.Name
	n.mtime = s.MTime
	if n.kind == KindFile {
		n.size = s.Size
		n.hash = s.Hash
		n.magic = s.Magic
	}
}

// ============================================================================
// Drive Lifecycle
// ============================================================================

// HandleDrivesCreated mounts one subtree per descriptor: ensure the backing
// directory exists, stamp its extended-attribute record with the descriptor's
// identifier, and attach a Drive node under the root. A descriptor whose
// identifier is already mounted has its descriptor refreshed in place.
//
// Each drive is an independent unit of work; one failing does not stop the
// others. The returned error joins the per-drive failures.
func (t *Tree) HandleDrivesCreated(ctx context.Context, drives []drive.Drive) error {
	var errs []error
	for i := range drives {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := t.mountDrive(ctx, &drives[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// HandleDrivesDeleted unmounts the drive subtree for each identifier,
// descendants leaving the index before the drive node itself. Unknown
// identifiers and identifiers resolving to non-drive nodes are skipped.
func (t *Tree) HandleDrivesDeleted(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		t.mu.Lock()
		n := t.index[id]
		if n == nil || n.kind != KindDrive {
			t.mu.Unlock()
			if n != nil {
				logger.WarnCtx(ctx, "drive removal skipped non-drive node",
					logger.NodeID(id.String()),
					logger.Kind(n.kind.String()),
				)
			}
			continue
		}
		name := n.name
		t.removeSubtree(n)
		t.mu.Unlock()

		logger.InfoCtx(ctx, "drive unmounted",
			logger.Drive(name),
			logger.DriveID(id.String()),
		)
	}
	return nil
}

// HandleDriveUpdated replaces the descriptor of a mounted drive in place.
// Children are unaffected; no reattachment happens. Fails with NodeNotFound
// when the identifier is not mounted.
func (t *Tree) HandleDriveUpdated(ctx context.Context, d drive.Drive) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.index[d.ID]
	if n == nil || n.kind != KindDrive {
		return nestfserrors.NewNodeNotFoundError(d.ID.String())
	}

	n.drive = d.Clone()
	n.name = d.Name

	logger.DebugCtx(ctx, "drive descriptor updated",
		logger.Drive(d.Name),
		logger.DriveID(d.ID.String()),
	)
	return nil
}

// mountDrive ensures the backing directory, stamps it, and attaches the
// drive node.
func (t *Tree) mountDrive(ctx context.Context, d *drive.Drive) error {
	if err := d.Validate(); err != nil {
		return err
	}

	path := filepath.Join(t.rootDir, d.Name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nestfserrors.NewIOError(path, err)
	}
	if _, err := t.attrs.ForceInit(path, d.ID); err != nil {
		return err
	}

	t.mu.Lock()
	if existing := t.index[d.ID]; existing != nil {
		if existing.kind != KindDrive {
			t.mu.Unlock()
			return nestfserrors.NewNodeAttachedError(d.ID.String())
		}
		existing.drive = d.Clone()
		existing.name = d.Name
		t.mu.Unlock()

		logger.DebugCtx(ctx, "drive descriptor refreshed",
			logger.Drive(d.Name),
			logger.DriveID(d.ID.String()),
		)
		return nil
	}

	n := NewDrive(d.Clone())
	err := t.attach(n, t.root)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "drive mounted",
		logger.Drive(d.Name),
		logger.DriveID(d.ID.String()),
		logger.Path(path),
	)
	return nil
}

// ============================================================================
// Instrumentation
// ============================================================================

func (t *Tree) recordAttach(k Kind) {
	if t.metrics != nil {
		t.metrics.NodeAttached(k.String())
	}
}

func (t *Tree) recordDetach(k Kind) {
	if t.metrics != nil {
		t.metrics.NodeDetached(k.String())
	}
}
