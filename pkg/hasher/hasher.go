// Package hasher computes content digests in the background.
//
// Hashing is expensive and never blocks a scan: callers enqueue a node
// identifier, a bounded worker pool streams the file through SHA-256, and the
// digest is committed to the entry's extended attributes through the cache's
// check-then-act protocol. A file that is modified or replaced while its hash
// is in flight loses the commit and is picked up again by a later scan; the
// pool never retries on its own.
package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/internal/telemetry"
	"github.com/marmos91/nestfs/pkg/attrcache"
	"github.com/marmos91/nestfs/pkg/bufpool"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
	"github.com/marmos91/nestfs/pkg/tree"
)

// Job outcomes, reported to Metrics.RecordOutcome and visible in Stats.
const (
	// OutcomeCommitted means a fresh digest was computed and persisted.
	OutcomeCommitted = "committed"

	// OutcomeFresh means a valid digest was already stored; nothing to do.
	OutcomeFresh = "fresh"

	// OutcomeReplaced means the entry's identity changed while the job was
	// queued or hashing; the digest was dropped.
	OutcomeReplaced = "replaced"

	// OutcomeStale means the file was modified while hashing; the digest
	// was dropped.
	OutcomeStale = "stale"

	// OutcomeDetached means the node left the tree before the job ran.
	OutcomeDetached = "detached"

	// OutcomeSkipped means the file exceeded the configured size limit.
	OutcomeSkipped = "skipped"

	// OutcomeAborted means shutdown or subtree removal canceled the job.
	OutcomeAborted = "aborted"

	// OutcomeError means the job failed for any other reason.
	OutcomeError = "error"
)

// hashChunkSize is the read granularity while streaming a file through the
// digest. Matches the buffer pool's large tier so reads reuse pooled memory.
const hashChunkSize = 1 << 20

// Metrics records pool activity. Implementations must be safe for concurrent
// use. A nil Metrics disables instrumentation.
type Metrics interface {
	// RecordEnqueued counts an accepted hash request.
	RecordEnqueued()

	// RecordDropped counts a request rejected because the queue was full.
	RecordDropped()

	// RecordOutcome counts a finished job by outcome with its duration.
	RecordOutcome(outcome string, durationMs float64)

	// SetQueueDepth tracks the number of requests waiting or in flight.
	SetQueueDepth(n int)
}

// Config holds pool configuration.
type Config struct {
	// Workers is the number of concurrent hash workers. Default: 4
	Workers int

	// QueueSize is the maximum number of pending hash requests.
	// Default: 1024
	QueueSize int

	// MaxFileSize caps the size of files the pool will digest. Larger files
	// finish with OutcomeSkipped and keep whatever digest they had.
	// Zero means no limit.
	MaxFileSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 1024,
	}
}

// request is one pending hash job.
type request struct {
	id uuid.UUID
}

// Pool is the background hashing worker pool.
type Pool struct {
	tree  *tree.Tree
	attrs *attrcache.Cache

	queue       chan request
	workers     int
	maxFileSize int64

	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}

	mu        sync.Mutex
	started   bool
	inflight  map[uuid.UUID]struct{}
	pending   int
	completed int
	failed    int
	lastError error

	metrics Metrics
}

// New creates a pool over the given tree and attribute cache. metrics may be
// nil.
func New(tr *tree.Tree, attrs *attrcache.Cache, cfg Config, metrics Metrics) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	return &Pool{
		tree:        tr,
		attrs:       attrs,
		queue:       make(chan request, cfg.QueueSize),
		workers:     cfg.Workers,
		maxFileSize: cfg.MaxFileSize,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
		inflight:    make(map[uuid.UUID]struct{}),
		metrics:     metrics,
	}
}

// Start begins processing hash requests.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	logger.Info("starting hash pool", logger.Worker(p.workers))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	go func() {
		p.wg.Wait()
		close(p.stoppedCh)
	}()
}

// Stop shuts the pool down. Jobs still waiting in the queue are discarded,
// not hashed; content digests are recomputable and shutdown should not wait
// on disk throughput. Jobs already hashing finish or abort with the caller's
// context.
func (p *Pool) Stop(timeout time.Duration) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	logger.Info("stopping hash pool", logger.QueueDepth(p.Pending()))

	close(p.stopCh)

	select {
	case <-p.stoppedCh:
		logger.Info("hash pool stopped")
	case <-time.After(timeout):
		logger.Warn("hash pool stop timed out", logger.QueueDepth(p.Pending()))
	}
}

// Enqueue requests a digest for the file node with the given identifier.
// Returns false when the queue is full (non-blocking). An identifier already
// waiting or hashing is accepted without queueing a duplicate.
func (p *Pool) Enqueue(id uuid.UUID) bool {
	// Register before sending so a fast worker cannot finish the job and
	// clear an entry that does not exist yet.
	p.mu.Lock()
	if _, dup := p.inflight[id]; dup {
		p.mu.Unlock()
		return true
	}
	p.inflight[id] = struct{}{}
	p.pending++
	depth := p.pending
	p.mu.Unlock()

	select {
	case p.queue <- request{id: id}:
		p.recordEnqueued(depth)
		return true
	default:
		p.mu.Lock()
		delete(p.inflight, id)
		p.pending--
		p.mu.Unlock()

		logger.Warn("hash queue full, dropping request", logger.NodeID(id.String()))
		p.recordDropped()
		return false
	}
}

// EnqueueMissing walks the subtree under the given identifier and enqueues
// every file node that carries no digest. Returns the number of requests
// accepted.
func (p *Pool) EnqueueMissing(rootID uuid.UUID) (int, error) {
	var ids []uuid.UUID
	err := p.tree.WalkSubtree(rootID, func(n *tree.Node) bool {
		if n.IsFile() && n.Hash() == "" {
			ids = append(ids, n.ID())
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	accepted := 0
	for _, id := range ids {
		if p.Enqueue(id) {
			accepted++
		}
	}
	return accepted, nil
}

// Pending returns the number of requests waiting or in flight.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Stats returns pool counters: requests waiting or in flight, jobs finished
// with a usable result (committed or fresh), and jobs that did not produce
// one.
func (p *Pool) Stats() (pending, completed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending, p.completed, p.failed
}

// worker processes hash requests from the queue.
func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			p.discardQueue()
			return

		case <-ctx.Done():
			return

		case req, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, req)
		}
	}
}

// discardQueue empties the queue during shutdown without hashing.
func (p *Pool) discardQueue() {
	for {
		select {
		case req, ok := <-p.queue:
			if !ok {
				return
			}
			p.finish(req.id, OutcomeAborted, 0, nil)
		default:
			return
		}
	}
}

// process runs a single hash job.
func (p *Pool) process(ctx context.Context, req request) {
	ctx, span := telemetry.StartHashSpan(ctx, req.id.String())
	defer span.End()

	start := time.Now()
	outcome, err := p.hashNode(ctx, req.id)
	span.SetAttributes(telemetry.Outcome(outcome))
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	p.finish(req.id, outcome, logger.Duration(start), err)
}

// finish updates counters and instrumentation for a completed job.
func (p *Pool) finish(id uuid.UUID, outcome string, durationMs float64, err error) {
	p.mu.Lock()
	delete(p.inflight, id)
	p.pending--
	depth := p.pending
	switch outcome {
	case OutcomeCommitted, OutcomeFresh, OutcomeSkipped:
		p.completed++
	default:
		p.failed++
		if err != nil {
			p.lastError = err
		}
	}
	p.mu.Unlock()

	p.recordOutcome(outcome, durationMs, depth)
}

// hashNode resolves, streams, and commits one digest. Every early return is
// a terminal outcome; requeueing is the caller's business.
func (p *Pool) hashNode(ctx context.Context, id uuid.UUID) (string, error) {
	path, err := p.tree.AbsPath(id)
	if err != nil {
		logger.Debug("hash target left the tree", logger.NodeID(id.String()))
		return OutcomeDetached, err
	}

	// A digest still valid against the current mtime means nothing to do.
	if s, err := p.attrs.PeekHash(path); err == nil && s != nil {
		p.refreshNode(id, s)
		return OutcomeFresh, nil
	}

	s, err := p.attrs.Read(path)
	if err != nil {
		logger.Warn("hash target unreadable",
			logger.Path(path),
			logger.Err(err),
		)
		return OutcomeError, err
	}
	if s.Type != attrcache.EntryFile {
		logger.Warn("hash target is not a file",
			logger.Path(path),
			logger.Kind(s.Type.String()),
		)
		return OutcomeError, nestfserrors.NewNotRegularFileError(path)
	}
	if s.ID != id {
		logger.Debug("hash target replaced before hashing",
			logger.Path(path),
			logger.NodeID(id.String()),
		)
		return OutcomeReplaced, nil
	}
	if p.maxFileSize > 0 && s.Size > p.maxFileSize {
		logger.Debug("hash target exceeds size limit",
			logger.Path(path),
			logger.Size(s.Size),
		)
		return OutcomeSkipped, nil
	}

	n := p.tree.Lookup(id)
	if n == nil {
		return OutcomeDetached, nil
	}

	// Bind the node's worker handle so subtree removal aborts the stream.
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	gen := n.BindWorker(cancel)
	defer n.ClearWorker(gen)

	digest, err := p.digestFile(jobCtx, path)
	if err != nil {
		if jobCtx.Err() != nil {
			logger.Debug("hash aborted", logger.Path(path))
			return OutcomeAborted, err
		}
		logger.Warn("content hash failed", logger.Path(path), logger.Err(err))
		return OutcomeError, err
	}

	committed, err := p.attrs.CommitHash(path, s.ID, digest, s.MTime)
	switch {
	case err == nil:
		p.refreshNode(id, committed)
		logger.Debug("content hash committed",
			logger.Path(path),
			logger.Hash(digest),
		)
		return OutcomeCommitted, nil

	case nestfserrors.IsStaleTimestamp(err):
		logger.Debug("hash dropped, file modified while hashing", logger.Path(path))
		return OutcomeStale, nil

	case nestfserrors.IsIdentityMismatch(err):
		logger.Debug("hash dropped, entry replaced while hashing", logger.Path(path))
		return OutcomeReplaced, nil

	default:
		logger.Warn("hash commit failed", logger.Path(path), logger.Err(err))
		return OutcomeError, err
	}
}

// refreshNode pushes a committed summary onto the node so lookups see the
// digest without waiting for the next probe. Drift here is harmless; the
// next probe reconciles.
func (p *Pool) refreshNode(id uuid.UUID, s *attrcache.Summary) {
	n := p.tree.Lookup(id)
	if n == nil {
		return
	}
	if err := p.tree.UpdateNode(n, s); err != nil {
		logger.Debug("node refresh after hash skipped",
			logger.NodeID(id.String()),
			logger.Err(err),
		)
	}
}

// digestFile streams the file through SHA-256, checking for cancellation
// between chunks.
func (p *Pool) digestFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nestfserrors.NewIOError(path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := bufpool.Get(hashChunkSize)
	defer bufpool.Put(buf)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nestfserrors.NewIOError(path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func (p *Pool) recordEnqueued(depth int) {
	if p.metrics != nil {
		p.metrics.RecordEnqueued()
		p.metrics.SetQueueDepth(depth)
	}
}

func (p *Pool) recordDropped() {
	if p.metrics != nil {
		p.metrics.RecordDropped()
	}
}

func (p *Pool) recordOutcome(outcome string, durationMs float64, depth int) {
	if p.metrics != nil {
		p.metrics.RecordOutcome(outcome, durationMs)
		p.metrics.SetQueueDepth(depth)
	}
}
