package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for struct tag validation.
var validate = validator.New()

// Validate checks the configuration for errors.
//
// Validation happens in two layers:
//   - Struct tag validation (required fields, ranges, enumerations)
//   - Cross-field checks that tags cannot express
//
// Returns a descriptive error for the first problem found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}

	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling is enabled but no endpoint is configured")
	}

	if cfg.Registry.Type == "badger" && cfg.Registry.Path == "" {
		return fmt.Errorf("registry type %q requires a path", cfg.Registry.Type)
	}

	if cfg.Watcher.Debounce < 0 {
		return fmt.Errorf("watcher debounce cannot be negative")
	}

	return nil
}
