package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/tree"
)

// HealthHandler serves the unauthenticated health endpoints: a liveness
// probe, a readiness probe, and a drive registry check.
type HealthHandler struct {
	drives  *drive.Service
	tree    *tree.Tree
	hasher  *hasher.Pool
	started time.Time
}

// NewHealthHandler builds a handler over the given components. Components
// still missing during startup may be nil; their checks report unhealthy.
func NewHealthHandler(drives *drive.Service, t *tree.Tree, pool *hasher.Pool) *HealthHandler {
	return &HealthHandler{drives: drives, tree: t, hasher: pool, started: time.Now()}
}

// Liveness handles GET /health. It answers 200 whenever the process is up,
// which is all a Kubernetes liveness probe needs to see.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.started).Round(time.Second)
	writeJSON(w, http.StatusOK, healthOK(map[string]interface{}{
		"service":    "nestfs",
		"started_at": h.started.UTC().Format(time.RFC3339),
		"uptime":     uptime.String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready. The server is ready once the tree is
// mounted and the drive registry is restored; until then it answers 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.tree == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthFail("tree not mounted", nil))
		return
	}
	if h.drives == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthFail("drive registry not initialized", nil))
		return
	}

	data := map[string]interface{}{
		"drives": h.drives.Count(),
		"nodes":  h.tree.NodeCount(),
		"probes": h.tree.ProbesInFlight(),
	}
	if h.hasher != nil {
		data["hash_queue"] = h.hasher.Pending()
	}

	writeJSON(w, http.StatusOK, healthOK(data))
}

// RegistryHealth represents the health status of the drive registry store.
type RegistryHealth struct {
	Status  string `json:"status"`
	Drives  int    `json:"drives"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Registry handles GET /health/registry - drive registry health.
//
// Pings the registry's backing store and reports latency. Returns 200 OK when
// the store answers, 503 Service Unavailable when it does not.
func (h *HealthHandler) Registry(w http.ResponseWriter, r *http.Request) {
	if h.drives == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthFail("drive registry not initialized", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := h.drives.Healthcheck(ctx)
	latency := time.Since(start)

	health := RegistryHealth{
		Drives:  h.drives.Count(),
		Latency: latency.String(),
	}

	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, healthFail("", health))
		return
	}

	health.Status = "healthy"
	writeJSON(w, http.StatusOK, healthOK(health))
}
