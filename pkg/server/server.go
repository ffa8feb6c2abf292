// Package server composes the nestfs components into one lifecycle: the
// in-memory tree, the drive registry, the hash pool, the volume watcher,
// and the auxiliary HTTP servers.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/tree"
	"github.com/marmos91/nestfs/pkg/watcher"
)

// DefaultShutdownTimeout is the fallback when no shutdown timeout is
// configured.
const DefaultShutdownTimeout = 30 * time.Second

// AuxiliaryServer is the common lifecycle of the HTTP servers (API,
// metrics) managed alongside the core components.
type AuxiliaryServer interface {
	// Start starts the HTTP server and blocks until context is cancelled or error.
	Start(ctx context.Context) error
	// Stop initiates graceful shutdown.
	Stop(ctx context.Context) error
	// Port returns the TCP port the server is listening on.
	Port() int
}

// Server owns the running daemon. Components are attached with the Set
// methods before Serve; only the tree and the drive registry are mandatory.
type Server struct {
	tree   *tree.Tree
	drives *drive.Service

	hasher  *hasher.Pool
	watcher *watcher.Watcher

	apiServer     AuxiliaryServer
	metricsServer AuxiliaryServer

	shutdownTimeout time.Duration

	// serveOnce ensures Serve() is only called once
	serveOnce sync.Once
	served    bool
}

// New creates a Server around the mounted tree and restored drive registry.
func New(tr *tree.Tree, drives *drive.Service, shutdownTimeout time.Duration) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	return &Server{
		tree:            tr,
		drives:          drives,
		shutdownTimeout: shutdownTimeout,
	}
}

// SetHasher attaches the digest pool.
func (s *Server) SetHasher(pool *hasher.Pool) {
	if s.served {
		panic("cannot set hasher after Serve() has been called")
	}
	s.hasher = pool
}

// SetWatcher attaches the volume watcher.
func (s *Server) SetWatcher(w *watcher.Watcher) {
	if s.served {
		panic("cannot set watcher after Serve() has been called")
	}
	s.watcher = w
}

// SetAPIServer sets the REST API HTTP server.
func (s *Server) SetAPIServer(server AuxiliaryServer) {
	if s.served {
		panic("cannot set API server after Serve() has been called")
	}
	s.apiServer = server
	if server != nil {
		logger.Info("API server registered", "port", server.Port())
	}
}

// SetMetricsServer sets the Prometheus exposition server.
func (s *Server) SetMetricsServer(server AuxiliaryServer) {
	if s.served {
		panic("cannot set metrics server after Serve() has been called")
	}
	s.metricsServer = server
	if server != nil {
		logger.Info("Metrics server registered", "port", server.Port())
	}
}

// Tree returns the in-memory tree.
func (s *Server) Tree() *tree.Tree {
	return s.tree
}

// Drives returns the drive registry.
func (s *Server) Drives() *drive.Service {
	return s.drives
}

// Hasher returns the digest pool, or nil when none is attached.
func (s *Server) Hasher() *hasher.Pool {
	return s.hasher
}

// Serve starts all components and blocks until the context is cancelled or
// an auxiliary server fails. Cancellation is the normal shutdown path and
// returns nil; an auxiliary failure is returned after shutdown completes.
func (s *Server) Serve(ctx context.Context) error {
	var err error

	s.serveOnce.Do(func() {
		s.served = true
		err = s.serve(ctx)
	})

	return err
}

// serve is the internal implementation of Serve().
func (s *Server) serve(ctx context.Context) error {
	logger.Info("Starting nestfs server")

	// 1. Start the digest pool before anything that can enqueue work
	if s.hasher != nil {
		s.hasher.Start(ctx)
	}

	// 2. Start the watcher, or fall back to one startup probe per drive
	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	} else {
		s.probeAllDrives(ctx)
	}

	// 3. Start auxiliary servers
	auxErrChan := make(chan error, 2)
	if s.apiServer != nil {
		go func() {
			if err := s.apiServer.Start(ctx); err != nil {
				logger.Error("API server error", "error", err)
				auxErrChan <- err
			}
		}()
	}
	if s.metricsServer != nil {
		go func() {
			if err := s.metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error", "error", err)
				auxErrChan <- err
			}
		}()
	}

	// 4. Wait for shutdown signal or server error
	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", "reason", ctx.Err())

	case err := <-auxErrChan:
		logger.Error("Auxiliary server failed - initiating shutdown", "error", err)
		shutdownErr = err
	}

	// 5. Graceful shutdown
	s.shutdown()

	logger.Info("nestfs server stopped")
	return shutdownErr
}

// probeAllDrives reconciles every registered drive once. This replaces the
// watcher's continuous reconciliation when the watcher is disabled, so a
// cold start still discovers content already on the volume.
func (s *Server) probeAllDrives(ctx context.Context) {
	for _, d := range s.drives.List() {
		start := time.Now()
		if err := s.tree.Probe(ctx, d.ID); err != nil {
			logger.Warn("startup probe failed",
				logger.Drive(d.Name),
				logger.Err(err),
			)
			continue
		}
		logger.Debug("startup probe finished",
			logger.Drive(d.Name),
			logger.DurationMs(logger.Duration(start)),
		)

		if s.hasher != nil {
			if n, err := s.hasher.EnqueueMissing(d.ID); err == nil && n > 0 {
				logger.Debug("queued digest backfill",
					logger.Drive(d.Name),
					logger.Entries(n),
				)
			}
		}
	}
}

// shutdown stops the components in reverse dependency order.
func (s *Server) shutdown() {
	// Stop the watcher first so no new probes or digests get scheduled
	if s.watcher != nil {
		logger.Debug("Stopping watcher")
		s.watcher.Stop(s.shutdownTimeout)
	}

	// Drain the digest pool
	if s.hasher != nil {
		logger.Debug("Stopping digest pool")
		s.hasher.Stop(s.shutdownTimeout)
	}

	// Stop auxiliary servers
	if s.apiServer != nil {
		logger.Debug("Stopping API server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.apiServer.Stop(ctx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
	}
	if s.metricsServer != nil {
		logger.Debug("Stopping metrics server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metricsServer.Stop(ctx); err != nil {
			logger.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Close the registry store last; everything above may still read it
	logger.Debug("Closing drive registry")
	if err := s.drives.Close(); err != nil {
		logger.Error("Drive registry close error", "error", err)
	}
}
