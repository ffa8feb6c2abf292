package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/internal/telemetry"
	"github.com/marmos91/nestfs/pkg/api/auth"
	"github.com/marmos91/nestfs/pkg/api/handlers"
	apiMiddleware "github.com/marmos91/nestfs/pkg/api/middleware"
)

// NewRouter assembles the chi router: request-id, real-ip, tracing, logging,
// recovery and timeout middleware, then the route tree.
//
// Routes:
//   - GET /health, /health/ready, /health/registry - probes
//   - POST /api/v1/auth/login, /auth/refresh - token issuance
//   - GET /api/v1/auth/me - current identity
//   - /api/v1/drives/* - drive management
//   - /api/v1/nodes/* - tree inspection and probing
//
// When jwtService is nil no secret is configured: the auth routes are not
// mounted and the management routes run unauthenticated.
func NewRouter(deps Deps, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters. Tracing wraps logging so the
	// completion log can carry the active trace ID.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(traceRequests)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(deps.Drives, deps.Tree, deps.Hasher)

	// Probes stay outside auth so orchestrators need no token.
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
		r.Get("/registry", healthHandler.Registry)
	})

	// GET / lands on the liveness probe.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	driveHandler := handlers.NewDriveHandler(deps.Drives)
	nodeHandler := handlers.NewNodeHandler(deps.Tree, deps.Hasher)

	r.Route("/api/v1", func(r chi.Router) {
		if jwtService != nil {
			authHandler := handlers.NewAuthHandler(deps.Admin, jwtService)

			r.Route("/auth", func(r chi.Router) {
				// Login and refresh must work without a token.
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)

				r.Group(func(r chi.Router) {
					r.Use(apiMiddleware.JWTAuth(jwtService))
					r.Get("/me", authHandler.Me)
				})
			})
		}

		// Management routes, authenticated when a secret is configured.
		r.Group(func(r chi.Router) {
			if jwtService != nil {
				r.Use(apiMiddleware.JWTAuth(jwtService))
			}

			r.Route("/drives", func(r chi.Router) {
				r.Post("/", driveHandler.Create)
				r.Get("/", driveHandler.List)
				r.Get("/{name}", driveHandler.Get)
				r.Put("/{name}", driveHandler.Update)
				r.Delete("/{name}", driveHandler.Delete)
			})

			r.Route("/nodes", func(r chi.Router) {
				r.Get("/{id}", nodeHandler.Get)
				r.Get("/{id}/path", nodeHandler.Path)
				r.Get("/{id}/children", nodeHandler.Children)
				r.Get("/{id}/permissions", nodeHandler.Permissions)
				r.Post("/{id}/probe", nodeHandler.Probe)
			})
		})
	})

	return r
}

// isHealthPath reports whether path is one of the health endpoints.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs one line per completed request (debug for health
// probes, info otherwise) and stamps a logger.RequestContext onto the
// request context; the JWT middleware later adds the authenticated user to
// it.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		// Carry the correlation fields down into the service layer so its
		// *Ctx logs share request_id and client_ip with the access log.
		r = r.WithContext(logger.WithContext(r.Context(), &logger.RequestContext{
			RequestID: requestID,
			ClientIP:  r.RemoteAddr,
		}))

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}
		if traceID := telemetry.TraceID(r.Context()); traceID != "" {
			logArgs = append(logArgs, "trace_id", traceID)
		}

		// Probe traffic stays at debug.
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

// traceRequests opens one span per API request. The raw path serves as the
// route attribute because the chi pattern is not resolved until routing runs.
func traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := telemetry.StartAPISpan(r.Context(), r.Method, r.URL.Path)
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetAttributes(telemetry.HTTPStatus(ww.Status()))
	})
}
