package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/api/auth"
	"github.com/marmos91/nestfs/pkg/api/handlers"
	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/tree"
)

// shutdownGrace is how long a cancelled Start waits for in-flight requests.
const shutdownGrace = 5 * time.Second

// Deps carries the services the API exposes.
//
// Tree and Drives are required. Hasher is optional; without it, probes skip
// digest queueing and readiness omits the queue depth.
type Deps struct {
	Tree   *tree.Tree
	Drives *drive.Service
	Hasher *hasher.Pool
	Admin  handlers.Credentials
}

// Server provides the control API HTTP server.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe
//   - GET /health/registry: Drive registry health
//   - /api/v1/auth/*: Authentication
//   - /api/v1/drives/*: Drive management
//   - /api/v1/nodes/*: Tree inspection and probing
//
// Shutdown drains in-flight requests before returning.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates the API server in a stopped state; call Start to serve.
//
// Defaults are applied here so a directly constructed server works the same
// as one built from a loaded config.
//
// When a JWT secret is configured the auth endpoints are mounted and the
// management routes require a Bearer token. Without a secret the API runs
// open; an invalid secret (too short) is a configuration error.
func NewServer(config Config, deps Deps) (*Server, error) {
	config.applyDefaults()

	jwtService, err := newJWTService(config)
	if err != nil {
		return nil, err
	}

	return &Server{
		config: config,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewRouter(deps, jwtService),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}, nil
}

// newJWTService builds the token service when a secret is configured. A
// missing secret leaves the API open, which is allowed with a warning.
func newJWTService(config Config) (*auth.JWTService, error) {
	if !config.HasJWTSecret() {
		logger.Warn("API authentication disabled: no JWT secret configured",
			"env_var", EnvAPISecret)
		return nil, nil
	}

	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:               config.GetJWTSecret(),
		AccessTokenDuration:  config.JWT.AccessTokenDuration,
		RefreshTokenDuration: config.JWT.RefreshTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid JWT configuration: %w", err)
	}
	return svc, nil
}

// Start serves requests until ctx is cancelled or the listener fails.
// Cancellation triggers a graceful shutdown bounded by shutdownGrace; nil is
// returned when the drain completes in time.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// A fresh context: the cancelled one would abort the drain instantly.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop drains and closes the server. Safe to call more than once and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			return
		}
		logger.Info("API server stopped gracefully")
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
