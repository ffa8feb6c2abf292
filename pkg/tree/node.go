package tree

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// ============================================================================
// Node Kind
// ============================================================================

// Kind identifies what a node represents. The set is closed; code that
// dispatches on kind switches exhaustively.
type Kind uint8

const (
	// KindRoot is the single tree root. Its name holds the absolute path of
	// the volume root directory.
	KindRoot Kind = iota + 1

	// KindDrive is a top-level drive directory. Drive nodes carry a
	// descriptor and sit directly under the root.
	KindDrive

	// KindDirectory is an ordinary directory inside a drive.
	KindDirectory

	// KindFile is a regular file.
	KindFile
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindDrive:
		return "drive"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// IsContainer returns true for kinds that can hold children.
func (k Kind) IsContainer() bool {
	switch k {
	case KindRoot, KindDrive, KindDirectory:
		return true
	default:
		return false
	}
}

// nodeState tracks the attach lifecycle. Detachment is terminal; a detached
// node is never reattached.
type nodeState uint8

const (
	stateNew nodeState = iota
	stateAttached
	stateDetached
)

// ============================================================================
// Node
// ============================================================================

// Node is one entry in the in-memory tree: the root, a drive, a directory, or
// a file. The identity is immutable for the node's lifetime; everything else
// (name, timestamps, size, hash, descriptor) may be updated in place.
//
// Structural methods (Attach, Detach, traversal, ancestry) are not
// synchronized. The owning Tree serializes all structural access through its
// own lock; nodes used standalone must be confined to one goroutine. The
// worker binding is the one exception: it has its own lock because workers
// complete outside the tree lock.
type Node struct {
	kind Kind
	id   uuid.UUID

	state    nodeState
	parent   *Node
	children []*Node

	name  string
	mtime int64
	size  int64
	hash  string
	magic string

	drive *drive.Drive

	workerMu  sync.Mutex
	cancel    context.CancelFunc
	workerGen uint64
}

// NewRoot creates the tree root. rootDir is the absolute path of the volume
// root directory and doubles as the node's name, so absolute paths can be
// rebuilt by walking ancestry alone.
func NewRoot(rootDir string) *Node {
	return &Node{
		kind: KindRoot,
		id:   uuid.New(),
		name: rootDir,
	}
}

// NewDrive creates a detached drive node from a descriptor. The node adopts
// the descriptor's identifier and name.
func NewDrive(d *drive.Drive) *Node {
	return &Node{
		kind:  KindDrive,
		id:    d.ID,
		name:  d.Name,
		drive: d,
	}
}

// NewDirectory creates a detached directory node.
func NewDirectory(id uuid.UUID, name string, mtime int64) *Node {
	return &Node{
		kind:  KindDirectory,
		id:    id,
		name:  name,
		mtime: mtime,
	}
}

// NewFile creates a detached file node.
func NewFile(id uuid.UUID, name string, mtime, size int64, hash, magic string) *Node {
	return &Node{
		kind:  KindFile,
		id:    id,
		name:  name,
		mtime: mtime,
		size:  size,
		hash:  hash,
		magic: magic,
	}
}

// ============================================================================
// Accessors
// ============================================================================

// ID returns the node's immutable identifier.
func (n *Node) ID() uuid.UUID {
	return n.id
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// Name returns the filesystem basename (the volume root path for the root
// node).
func (n *Node) Name() string {
	return n.name
}

// MTime returns the last observed modification time in epoch milliseconds.
func (n *Node) MTime() int64 {
	return n.mtime
}

// Size returns the last observed size in bytes. Zero for non-files.
func (n *Node) Size() int64 {
	return n.size
}

// Hash returns the last observed valid content digest, empty when none.
func (n *Node) Hash() string {
	return n.hash
}

// Magic returns the last observed classification tag.
func (n *Node) Magic() string {
	return n.magic
}

// Parent returns the current parent, nil for the root and for detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the ordered child list.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Drive returns the descriptor carried by a drive node, nil for other kinds.
func (n *Node) Drive() *drive.Drive {
	return n.drive
}

// IsFile returns true for file nodes.
func (n *Node) IsFile() bool {
	return n.kind == KindFile
}

// IsDir returns true for directory nodes. Root and drive nodes report false
// for both IsFile and IsDir.
func (n *Node) IsDir() bool {
	return n.kind == KindDirectory
}

// Attached returns true while the node is linked into a tree.
func (n *Node) Attached() bool {
	return n.state == stateAttached
}

// ============================================================================
// Attach / Detach
// ============================================================================

// Attach links the node under parent. It fails closed: on any error the node
// is left exactly as it was.
//
// Fails with NodeAttached if the node is already attached, NodeDetached if it
// was detached before (detachment is terminal), InvalidArgument for root
// nodes, and NotContainer if parent cannot hold children or is itself no
// longer attached to a tree.
func (n *Node) Attach(parent *Node) error {
	switch n.state {
	case stateAttached:
		return nestfserrors.NewNodeAttachedError(n.id.String())
	case stateDetached:
		return nestfserrors.NewNodeDetachedError(n.id.String())
	}
	if n.kind == KindRoot {
		return nestfserrors.NewInvalidArgumentError("root node cannot be attached")
	}
	if parent == nil || !parent.kind.IsContainer() {
		id := "nil"
		if parent != nil {
			id = parent.id.String()
		}
		return nestfserrors.NewNotContainerError(id)
	}
	if parent.state == stateDetached {
		return nestfserrors.NewNodeDetachedError(parent.id.String())
	}

	n.parent = parent
	n.state = stateAttached
	parent.children = append(parent.children, n)
	return nil
}

// Detach unlinks the node from its parent. Detachment is terminal: the node
// cannot be reattached. Children are not touched; subtree removal detaches
// children first (see Tree.DeleteNode).
//
// Fails with NodeDetached if the node is not currently attached.
func (n *Node) Detach() error {
	if n.state != stateAttached {
		return nestfserrors.NewNodeDetachedError(n.id.String())
	}

	if p := n.parent; p != nil {
		for i, c := range p.children {
			if c == n {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
		if len(p.children) == 0 {
			p.children = nil
		}
	}
	n.parent = nil
	n.state = stateDetached
	return nil
}

// ============================================================================
// Traversal
// ============================================================================

// Walk visits the subtree rooted at n in pre-order (self before children).
// Returning false from fn stops the walk; Walk reports whether it ran to
// completion.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// WalkPost visits the subtree rooted at n in post-order (children before
// self). Subtree removal uses this ordering so children leave the index
// before their parent.
func (n *Node) WalkPost(fn func(*Node)) {
	for _, c := range n.children {
		c.WalkPost(fn)
	}
	fn(n)
}

// VisitAncestors applies fn to n and then every ancestor up to the root,
// stopping early when fn returns false.
func (n *Node) VisitAncestors(fn func(*Node) bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if !fn(cur) {
			return
		}
	}
}

// FindAncestor returns the first node (n included) on the path to the root
// satisfying pred, or nil.
func (n *Node) FindAncestor(pred func(*Node) bool) *Node {
	var found *Node
	n.VisitAncestors(func(a *Node) bool {
		if pred(a) {
			found = a
			return false
		}
		return true
	})
	return found
}

// OwningDrive returns the drive node the entry lives under: the first
// ancestor sitting directly below the root. Nil when n is the root itself or
// has been unlinked from the tree.
func (n *Node) OwningDrive() *Node {
	return n.FindAncestor(func(a *Node) bool {
		return a.parent != nil && a.parent.kind == KindRoot
	})
}

// AbsPath rebuilds the node's absolute filesystem path by joining the volume
// root directory with every name from the drive boundary down to n. Fails
// with NodeDetached when the walk does not reach the root, meaning the node
// was unlinked from the tree.
func (n *Node) AbsPath() (string, error) {
	var parts []string
	top := n
	for ; top.parent != nil; top = top.parent {
		parts = append(parts, top.name)
	}
	if top.kind != KindRoot {
		return "", nestfserrors.NewNodeDetachedError(n.id.String())
	}

	path := top.name
	for i := len(parts) - 1; i >= 0; i-- {
		path = filepath.Join(path, parts[i])
	}
	return path, nil
}

// ============================================================================
// Worker Handle
// ============================================================================

// BindWorker associates an in-flight asynchronous operation (directory scan,
// hash computation) with the node. A node carries at most one handle: binding
// aborts any previous one. The returned generation is passed to ClearWorker
// so a finished worker cannot drop a binding that replaced its own.
func (n *Node) BindWorker(cancel context.CancelFunc) uint64 {
	n.workerMu.Lock()
	prev := n.cancel
	n.cancel = cancel
	n.workerGen++
	gen := n.workerGen
	n.workerMu.Unlock()

	if prev != nil {
		prev()
	}
	return gen
}

// ClearWorker drops the worker binding identified by gen without aborting
// it. Workers call this when they finish; a stale generation is a no-op.
func (n *Node) ClearWorker(gen uint64) {
	n.workerMu.Lock()
	if n.workerGen == gen {
		n.cancel = nil
	}
	n.workerMu.Unlock()
}

// WorkerBound reports whether a worker handle is currently bound.
func (n *Node) WorkerBound() bool {
	n.workerMu.Lock()
	defer n.workerMu.Unlock()
	return n.cancel != nil
}

// AbortWorker requests cancellation of the bound worker, if any. Best-effort
// and non-blocking: the worker observes cancellation at its next check.
func (n *Node) AbortWorker() {
	n.workerMu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.workerMu.Unlock()

	if cancel != nil {
		cancel()
	}
}
