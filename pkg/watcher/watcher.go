// Package watcher reacts to volume changes made outside the process.
//
// Every directory the tree tracks carries an fsnotify watch. Events are
// coalesced per directory: a burst of writes schedules one probe of the
// affected directory after a quiet period, and each probe re-aligns the
// watch set with the directories that now exist, so new subtrees become
// visible one probe after they appear. Drives entering or leaving the
// registry attach or drop their watch subtrees through the registry's
// change feed.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/tree"
)

// relevantOps selects the event kinds that can change what a directory
// contains. Attribute-only changes wait for the next probe of the parent.
const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Metrics records watcher activity. Implementations must be safe for
// concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// RecordEvent counts a filesystem event by operation.
	RecordEvent(op string)

	// RecordProbe counts a debounced probe with its duration.
	RecordProbe(durationMs float64)

	// SetWatchCount tracks the number of directories under watch.
	SetWatchCount(n int)
}

// Config holds watcher tuning.
type Config struct {
	// Debounce is the quiet period after the last event in a directory
	// before it is probed. Default: 2s
	Debounce time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Debounce: 2 * time.Second,
	}
}

// Watcher keeps the tree aligned with edits the process did not make.
type Watcher struct {
	tree   *tree.Tree
	drives *drive.Service
	hasher *hasher.Pool

	debounce time.Duration

	fsw *fsnotify.Watcher
	ctx context.Context

	mu      sync.Mutex
	started bool
	watched map[string]uuid.UUID
	timers  map[uuid.UUID]*time.Timer

	stopCh    chan struct{}
	stoppedCh chan struct{}

	metrics Metrics
}

// New creates a watcher over the given tree and drive registry. pool may be
// nil to disable digest backfill after probes; metrics may be nil.
func New(tr *tree.Tree, drives *drive.Service, pool *hasher.Pool, cfg Config, metrics Metrics) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}

	return &Watcher{
		tree:      tr,
		drives:    drives,
		hasher:    pool,
		debounce:  cfg.Debounce,
		watched:   make(map[string]uuid.UUID),
		timers:    make(map[uuid.UUID]*time.Timer),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		metrics:   metrics,
	}
}

// Start opens the filesystem watcher, subscribes to registry changes, and
// adopts every drive currently registered. Each adopted drive gets an
// initial probe, so content already on disk is discovered without waiting
// for an event.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return nestfserrors.NewIOError(w.tree.RootDir(), err)
	}
	w.fsw = fsw
	w.ctx = ctx
	w.started = true
	w.mu.Unlock()

	logger.Info("starting volume watcher", logger.Path(w.tree.RootDir()))

	// Subscribe before listing so a drive created in between is not missed;
	// adopting the same drive twice is harmless.
	w.drives.OnChange(w.handleChange)
	for _, d := range w.drives.List() {
		w.adoptDrive(d)
	}

	go w.run()
	return nil
}

// Stop tears the watcher down. Pending debounce timers are discarded; a
// probe already running finishes in the background and only reconciles the
// tree with the disk, so a late completion changes nothing a restart would
// not.
func (w *Watcher) Stop(timeout time.Duration) {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
	fsw := w.fsw
	w.mu.Unlock()

	logger.Info("stopping volume watcher")

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	_ = fsw.Close()

	select {
	case <-w.stoppedCh:
		logger.Info("volume watcher stopped")
	case <-time.After(timeout):
		logger.Warn("volume watcher stop timed out")
	}
}

// WatchCount returns the number of directories currently under watch.
func (w *Watcher) WatchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// run is the event loop. It exits when Stop closes the watcher or the
// event channel closes underneath it.
func (w *Watcher) run() {
	defer close(w.stoppedCh)

	for {
		select {
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("volume watcher error", logger.Err(err))
		}
	}
}

// handleEvent maps one filesystem event to the watched directory it landed
// in and schedules that directory's debounced probe.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&relevantOps == 0 {
		return
	}
	w.recordEvent(ev.Op.String())

	name := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	// Events name the changed entry; the containing directory owns the
	// probe. Events naming a watched directory itself (a drive root being
	// touched) fall through to that directory.
	id, ok := w.watched[filepath.Dir(name)]
	if !ok {
		id, ok = w.watched[name]
	}
	if !ok {
		return
	}
	w.scheduleLocked(id)
}

// handleChange follows the drive registry: new drives are adopted, deleted
// drives lose their watches, and updates re-point the watch subtree at the
// possibly renamed backing directory.
func (w *Watcher) handleChange(c drive.Change) {
	select {
	case <-w.stopCh:
		return
	default:
	}

	switch c.Type {
	case drive.ChangeCreated:
		w.adoptDrive(c.Drive)
	case drive.ChangeDeleted:
		w.dropDrive(c.Drive.ID)
	case drive.ChangeUpdated:
		w.dropDrive(c.Drive.ID)
		w.adoptDrive(c.Drive)
	}
}

// adoptDrive watches the drive's root directory and schedules its first
// probe. The probe attaches whatever is already on disk and its resync
// extends the watch set to the subdirectories it found.
func (w *Watcher) adoptDrive(d drive.Drive) {
	root := filepath.Join(w.tree.RootDir(), d.Name)

	w.mu.Lock()
	if err := w.fsw.Add(root); err != nil {
		w.mu.Unlock()
		logger.Warn("drive watch failed",
			logger.Drive(d.Name),
			logger.Path(root),
			logger.Err(err),
		)
		return
	}
	w.watched[root] = d.ID
	w.scheduleLocked(d.ID)
	count := len(w.watched)
	w.mu.Unlock()

	logger.Debug("drive watch added",
		logger.Drive(d.Name),
		logger.Path(root),
	)
	w.recordWatchCount(count)
}

// dropDrive removes the watch subtree rooted at the drive's directory. The
// directory itself stays on disk, so the watches must go explicitly.
func (w *Watcher) dropDrive(id uuid.UUID) {
	w.mu.Lock()

	root := ""
	for path, nid := range w.watched {
		if nid == id {
			root = path
			break
		}
	}
	if root == "" {
		w.mu.Unlock()
		return
	}

	prefix := root + string(os.PathSeparator)
	for path := range w.watched {
		if path != root && !strings.HasPrefix(path, prefix) {
			continue
		}
		_ = w.fsw.Remove(path)
		delete(w.watched, path)
	}
	count := len(w.watched)
	w.mu.Unlock()

	logger.Debug("drive watch removed",
		logger.DriveID(id.String()),
		logger.Path(root),
	)
	w.recordWatchCount(count)
}

// scheduleLocked arms or pushes back the debounce timer for one directory.
// Caller holds w.mu.
func (w *Watcher) scheduleLocked(id uuid.UUID) {
	if t, ok := w.timers[id]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[id] = time.AfterFunc(w.debounce, func() { w.fire(id) })
}

// fire runs one debounced probe: reconcile the directory, realign its watch
// subtree, and queue digests for any files still missing one.
func (w *Watcher) fire(id uuid.UUID) {
	w.mu.Lock()
	delete(w.timers, id)
	w.mu.Unlock()

	select {
	case <-w.stopCh:
		return
	default:
	}

	start := time.Now()
	if err := w.tree.Probe(w.ctx, id); err != nil {
		logger.Warn("watcher probe failed",
			logger.NodeID(id.String()),
			logger.Err(err),
		)
	}
	w.recordProbe(logger.Duration(start))

	w.resyncWatches(id)

	if w.hasher != nil {
		if n, err := w.hasher.EnqueueMissing(id); err == nil && n > 0 {
			logger.Debug("queued digest backfill",
				logger.NodeID(id.String()),
				logger.Entries(n),
			)
		}
	}
}

// resyncWatches aligns the watch set below the probed node with the
// directories now in the tree. The kernel drops watches on deleted
// directories on its own, so removal failures are ignored.
func (w *Watcher) resyncWatches(id uuid.UUID) {
	desired := make(map[string]uuid.UUID)
	rootPath := ""
	err := w.tree.WalkSubtree(id, func(n *tree.Node) bool {
		if !n.Kind().IsContainer() {
			return true
		}
		path, perr := n.AbsPath()
		if perr != nil {
			return true
		}
		if n.ID() == id {
			rootPath = path
		}
		desired[path] = n.ID()
		return true
	})
	if err != nil || rootPath == "" {
		// The node left the tree while the probe ran; the probe of its
		// parent directory cleans the watches up.
		return
	}

	prefix := rootPath + string(os.PathSeparator)

	w.mu.Lock()
	for path := range w.watched {
		if path != rootPath && !strings.HasPrefix(path, prefix) {
			continue
		}
		if _, keep := desired[path]; keep {
			continue
		}
		_ = w.fsw.Remove(path)
		delete(w.watched, path)
	}
	for path, nid := range desired {
		if _, ok := w.watched[path]; ok {
			w.watched[path] = nid
			continue
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Debug("directory watch failed",
				logger.Path(path),
				logger.Err(err),
			)
			continue
		}
		w.watched[path] = nid
	}
	count := len(w.watched)
	w.mu.Unlock()

	w.recordWatchCount(count)
}

func (w *Watcher) recordEvent(op string) {
	if w.metrics != nil {
		w.metrics.RecordEvent(op)
	}
}

func (w *Watcher) recordProbe(durationMs float64) {
	if w.metrics != nil {
		w.metrics.RecordProbe(durationMs)
	}
}

func (w *Watcher) recordWatchCount(n int) {
	if w.metrics != nil {
		w.metrics.SetWatchCount(n)
	}
}
