package config

import (
	"strings"
	"time"

	"github.com/marmos91/nestfs/pkg/api"
)

// ApplyDefaults fills every unset field with its default. Zero values are
// treated as unset, with one exception: Watcher.Enabled is a pointer so an
// explicit false survives.
func ApplyDefaults(cfg *Config) {
	cfg.Logging.applyDefaults()
	cfg.Telemetry.applyDefaults()
	cfg.Metrics.applyDefaults()
	cfg.Registry.applyDefaults()
	cfg.Hasher.applyDefaults()
	cfg.Watcher.applyDefaults()
	cfg.Admin.applyDefaults()
	applyAPIDefaults(&cfg.API)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func (c *LoggingConfig) applyDefaults() {
	if c.Level == "" {
		c.Level = "INFO"
	}
	// Normalized here, once, so the rest of the code never needs to care
	// about case.
	c.Level = strings.ToUpper(c.Level)

	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

func (c *TelemetryConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}

	if c.Profiling.Endpoint == "" {
		c.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(c.Profiling.ProfileTypes) == 0 {
		c.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func (c *MetricsConfig) applyDefaults() {
	// The port default only matters when metrics are on; leaving it zero
	// otherwise keeps generated config files quiet about it.
	if c.Enabled && c.Port == 0 {
		c.Port = 9090
	}
}

func (c *RegistryConfig) applyDefaults() {
	if c.Type == "" {
		c.Type = "memory"
	}
	// Path stays empty: it is required for badger and validated there.
}

func (c *HasherConfig) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.QueueSize == 0 {
		c.QueueSize = 1024
	}
	// MaxFileSize zero means unlimited.
}

func (c *WatcherConfig) applyDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.Debounce == 0 {
		c.Debounce = 2 * time.Second
	}
}

func (c *AdminConfig) applyDefaults() {
	if c.Username == "" {
		c.Username = "admin"
	}
	// PasswordHash has no default; 'nestfs init' writes it.
}

// applyAPIDefaults lives here rather than on api.Config because the api
// package does not know the server's defaulting policy.
func applyAPIDefaults(c *api.Config) {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// GetDefaultConfig returns a fully defaulted configuration. The volume and
// registry paths point under /tmp so an unconfigured server starts, but a
// real installation should run 'nestfs init' and edit the result.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Volume: VolumeConfig{
			Root: "/tmp/nestfs/volume",
		},
		Registry: RegistryConfig{
			// Persistent by default so drives survive restarts.
			Type: "badger",
			Path: "/tmp/nestfs/registry",
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
