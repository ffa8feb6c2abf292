package tree

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/internal/telemetry"
	"github.com/marmos91/nestfs/pkg/attrcache"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// Probe re-scans the on-disk subtree below the node with the given
// identifier and reconciles the tree with it: new entries are attached,
// renamed and modified entries updated in place, vanished entries removed
// with their subtrees. Unknown identifiers and identifiers resolving to
// nodes without a backing directory (files, the root) are ignored without
// error, so callers can request probes optimistically.
//
// Probes may run concurrently; a probe reaching a directory that another
// probe is already scanning aborts the older scan through the node's worker
// handle. Cancelling ctx stops the probe at the next entry boundary without
// pruning anything not yet confirmed missing.
func (t *Tree) Probe(ctx context.Context, id uuid.UUID) error {
	t.mu.RLock()
	n := t.index[id]
	t.mu.RUnlock()

	if n == nil {
		logger.DebugCtx(ctx, "probe skipped unknown node", logger.NodeID(id.String()))
		return nil
	}
	if n.kind != KindDrive && n.kind != KindDirectory {
		logger.DebugCtx(ctx, "probe skipped non-directory node",
			logger.NodeID(id.String()),
			logger.Kind(n.kind.String()),
		)
		return nil
	}

	ctx, span := telemetry.StartProbeSpan(ctx, id.String(), telemetry.NodeKind(n.kind.String()))
	defer span.End()

	start := time.Now()
	t.probes.Add(1)
	t.recordProbeStarted()
	defer func() {
		t.probes.Add(-1)
		t.recordProbeFinished(logger.Duration(start))
	}()

	err := t.probeDir(ctx, n)
	if nestfserrors.IsNodeDetached(err) {
		// The subtree was unmounted while the scan ran; nothing left to
		// reconcile.
		return nil
	}
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return err
}

// probeDir scans one directory node and recurses into its child directories.
func (t *Tree) probeDir(ctx context.Context, n *Node) error {
	t.mu.RLock()
	path, err := n.AbsPath()
	t.mu.RUnlock()
	if err != nil {
		return err
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	gen := n.BindWorker(cancel)
	defer n.ClearWorker(gen)

	dirents, err := os.ReadDir(path)
	if err != nil {
		return nestfserrors.NewIOError(path, err)
	}

	seen := make(map[uuid.UUID]bool, len(dirents))
	var recurse []*Node
	entries, skipped := 0, 0

	for _, ent := range dirents {
		if err := scanCtx.Err(); err != nil {
			return err
		}

		name := ent.Name()
		if strings.HasPrefix(name, ".") {
			skipped++
			continue
		}

		summary, err := t.attrs.Read(filepath.Join(path, name))
		if err != nil {
			// Symlinks, sockets, and unreadable entries stay out of the
			// tree.
			skipped++
			logger.DebugCtx(ctx, "probe skipped entry",
				logger.Path(filepath.Join(path, name)),
				logger.Err(err),
			)
			continue
		}

		child, err := t.reconcileEntry(n, summary)
		if err != nil {
			return err
		}
		entries++
		seen[summary.ID] = true
		if child != nil && child.kind == KindDirectory {
			recurse = append(recurse, child)
		}
	}

	if err := t.pruneUnseen(n, seen); err != nil {
		return err
	}
	t.recordScan(entries, skipped)

	var errs []error
	for _, child := range recurse {
		if err := scanCtx.Err(); err != nil {
			return err
		}
		err := t.probeDir(scanCtx, child)
		switch {
		case err == nil:
		case nestfserrors.IsNodeDetached(err), stderrors.Is(err, context.Canceled):
			// Another probe or an unmount claimed this subtree.
		default:
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// reconcileEntry folds one freshly read summary into parent's children and
// returns the node now representing the entry. Fails with NodeDetached when
// parent left the tree mid-scan.
func (t *Tree) reconcileEntry(parent *Node, s *attrcache.Summary) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index[parent.id] != parent {
		return nil, nestfserrors.NewNodeDetachedError(parent.id.String())
	}

	if existing := t.index[s.ID]; existing != nil {
		sameKind := existing.kind == KindDirectory && s.Type == attrcache.EntryDirectory ||
			existing.kind == KindFile && s.Type == attrcache.EntryFile
		if existing.parent == parent && sameKind {
			applySummary(existing, s)
			return existing, nil
		}
		// The entry moved here from elsewhere in the tree, or changed kind
		// under a surviving identity. Rebuild it in place; a follow-up scan
		// of the subtree restores descendants.
		t.removeSubtree(existing)
	}

	// A different identity under the same name means the entry was replaced.
	for _, c := range parent.children {
		if c.name == s.Name && c.id != s.ID {
			t.removeSubtree(c)
			break
		}
	}

	var n *Node
	switch s.Type {
	case attrcache.EntryDirectory:
		n = NewDirectory(s.ID, s.Name, s.MTime)
	case attrcache.EntryFile:
		n = NewFile(s.ID, s.Name, s.MTime, s.Size, s.Hash, s.Magic)
	default:
		return nil, nestfserrors.NewInvalidArgumentError("summary type is neither directory nor file")
	}
	if err := t.attach(n, parent); err != nil {
		return nil, err
	}
	return n, nil
}

// pruneUnseen removes children of parent whose identifiers were not observed
// on disk during the scan.
func (t *Tree) pruneUnseen(parent *Node, seen map[uuid.UUID]bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index[parent.id] != parent {
		return nestfserrors.NewNodeDetachedError(parent.id.String())
	}

	for _, c := range parent.Children() {
		if !seen[c.id] {
			t.removeSubtree(c)
		}
	}
	return nil
}

// ============================================================================
// Instrumentation
// ============================================================================

func (t *Tree) recordProbeStarted() {
	if t.metrics != nil {
		t.metrics.ProbeStarted()
	}
}

func (t *Tree) recordProbeFinished(durationMs float64) {
	if t.metrics != nil {
		t.metrics.ProbeFinished(durationMs)
	}
}

func (t *Tree) recordScan(entries, skipped int) {
	if t.metrics != nil {
		t.metrics.RecordScan(entries, skipped)
	}
}
