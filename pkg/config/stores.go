package config

import (
	"fmt"

	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/drive/store/badger"
	"github.com/marmos91/nestfs/pkg/drive/store/memory"
)

// CreateDriveStore creates the drive registry's backing store from
// configuration.
//
// An empty type falls back to the in-memory store, which loses all drive
// descriptors on restart. Production deployments should use badger.
func CreateDriveStore(cfg RegistryConfig) (drive.Store, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.New(), nil
	case "badger":
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger drive store requires path to be set")
		}
		store, err := badger.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger drive store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown drive store type: %q", cfg.Type)
	}
}
