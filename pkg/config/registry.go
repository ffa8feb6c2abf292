package config

import (
	"context"
	"fmt"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/metrics/prometheus"
)

// InitializeRegistry creates a fully configured drive registry from the
// provided configuration.
//
// This function orchestrates the complete initialization process:
//  1. Creates the backing store per cfg.Registry (memory or badger)
//  2. Wraps it in the drive service with Prometheus instrumentation
//  3. Restores persisted drives, mounting each one through the mounter
//
// The resulting service owns the store and closes it with Close.
//
// Parameters:
//   - ctx: Context for cancellation during restore
//   - cfg: Complete configuration loaded from config file
//   - mounter: Receives mount and unmount callbacks, normally the tree
//
// Returns:
//   - *drive.Service: Fully initialized drive registry
//   - error: If store creation or restore fails
func InitializeRegistry(ctx context.Context, cfg *Config, mounter drive.Mounter) (*drive.Service, error) {
	logger.Debug("Initializing drive registry", "type", cfg.Registry.Type)

	store, err := CreateDriveStore(cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive store: %w", err)
	}

	svc := drive.NewService(store, mounter, prometheus.NewDriveMetrics())

	if err := svc.Restore(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to restore drives: %w", err)
	}

	logger.Info("Drive registry initialized", "drives", svc.Count())
	return svc, nil
}
