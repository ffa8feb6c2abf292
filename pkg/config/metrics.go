package config

import (
	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/metrics"
)

// MetricsResult holds the outcome of metrics initialization.
type MetricsResult struct {
	// Server is the Prometheus exposition server, nil when metrics are
	// disabled.
	Server *metrics.Server
}

// InitializeMetrics enables metrics collection when configured.
//
// When cfg.Metrics.Enabled is set this initializes the process-wide
// registry and returns an exposition server for the caller to run.
// Components constructed afterwards pick up their collectors; components
// constructed before stay uninstrumented, so call this before building
// the tree and services.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		logger.Debug("Metrics collection disabled")
		return MetricsResult{}
	}

	metrics.InitRegistry()
	logger.Debug("Metrics registry initialized", "port", cfg.Metrics.Port)

	return MetricsResult{Server: metrics.NewServer(cfg.Metrics.Port)}
}
