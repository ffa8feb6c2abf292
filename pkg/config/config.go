// Package config loads, validates, and generates the nestfs configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/nestfs/internal/bytesize"
	"github.com/marmos91/nestfs/pkg/api"
)

// Config is the static configuration of the nestfs server.
//
// Drives are deliberately absent: they are dynamic state, managed through
// the control API and persisted in the drive registry store.
//
// Sources, highest precedence first: CLI flags, NESTFS_* environment
// variables, the configuration file, built-in defaults.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds graceful shutdown of all subsystems.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics configures the Prometheus metrics server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the control API server.
	API api.Config `mapstructure:"api" yaml:"api"`

	// Volume names the directory holding the mounted drives.
	Volume VolumeConfig `mapstructure:"volume" yaml:"volume"`

	// Registry selects the backing store for drive descriptors.
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`

	// Hasher tunes the background content hashing pool.
	Hasher HasherConfig `mapstructure:"hasher" yaml:"hasher"`

	// Watcher tunes the filesystem change watcher.
	Watcher WatcherConfig `mapstructure:"watcher" yaml:"watcher"`

	// Admin is the credential for the control API, written by 'nestfs init'.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum severity to emit: DEBUG, INFO, WARN or ERROR
	// (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr" or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls trace export to an OTLP collector such as Jaeger
// or Tempo. Disabled unless explicitly turned on.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS towards the collector. Leave true only for
	// local development.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces to keep, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling configures Pyroscope continuous profiling.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls continuous profiling with Pyroscope.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes selects what to collect: cpu, alloc_objects, alloc_space,
	// inuse_objects, inuse_space, goroutines, mutex_count, mutex_duration,
	// block_count, block_duration.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When
// disabled, no metrics are collected at all.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port serving /metrics.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// VolumeConfig names the volume root, the directory under which drives are
// mounted as first-level subdirectories. The filesystem must support
// extended attributes: identity and digest records live in xattrs.
type VolumeConfig struct {
	// Root is the directory holding the mounted drives, for example
	// /var/lib/nestfs/volume.
	Root string `mapstructure:"root" validate:"required" yaml:"root"`
}

// RegistryConfig selects the backing store for drive descriptors.
type RegistryConfig struct {
	// Type is "memory" (descriptors lost on restart) or "badger".
	Type string `mapstructure:"type" validate:"required,oneof=memory badger" yaml:"type"`

	// Path is the BadgerDB directory, required when Type is "badger".
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// HasherConfig tunes the background content hashing pool.
type HasherConfig struct {
	// Workers is the number of concurrent hash workers.
	Workers int `mapstructure:"workers" validate:"omitempty,min=1" yaml:"workers"`

	// QueueSize bounds the number of pending hash requests.
	QueueSize int `mapstructure:"queue_size" validate:"omitempty,min=1" yaml:"queue_size"`

	// MaxFileSize caps the size of files the pool will digest. Accepts
	// human-readable values such as "10Gi" or "100MB". Zero means no cap.
	MaxFileSize bytesize.ByteSize `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`
}

// WatcherConfig tunes the filesystem change watcher. When the watcher is
// off, the tree only changes through explicit probe requests.
type WatcherConfig struct {
	// Enabled is a pointer so an absent value can default to true.
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Debounce is the quiet period after the last event in a directory
	// before it is probed.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// IsEnabled reports whether the watcher should run. Defaults to true when
// unset.
func (c WatcherConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// AdminConfig is the admin credential for the control API.
type AdminConfig struct {
	Username string `mapstructure:"username" yaml:"username"`

	// PasswordHash is a bcrypt hash, normally written by 'nestfs init'.
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash,omitempty"`
}

// Load reads the configuration file at configPath, layers NESTFS_*
// environment variables on top, fills the gaps with defaults and validates
// the result. A missing file is not an error: the defaults stand alone so
// the server can run unconfigured for quick testing.
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		if isNotFound(err) {
			return GetDefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load with friendlier errors: when the file is missing it
// explains how to create one instead of failing validation later.
func MustLoad(configPath string) (*Config, error) {
	switch {
	case configPath == "" && !DefaultConfigExists():
		return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
			"Please initialize a configuration file first:\n"+
			"  nestfs init\n\n"+
			"Or specify a custom config file:\n"+
			"  nestfs <command> --config /path/to/config.yaml",
			GetDefaultConfigPath())
	case configPath == "":
		configPath = GetDefaultConfigPath()
	default:
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  nestfs init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML. The file is written 0600 because
// it may hold the JWT secret and the admin password hash.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// newViper builds a viper instance bound to the NESTFS_ environment prefix.
// An empty configPath searches the default config directory instead.
func newViper(configPath string) *viper.Viper {
	v := viper.New()

	// NESTFS_LOGGING_LEVEL overrides logging.level, and so on.
	v.SetEnvPrefix("NESTFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	return v
}

// isNotFound distinguishes "no config file" from real read errors. Viper
// reports the former as ConfigFileNotFoundError only when searching; an
// explicit SetConfigFile path surfaces a plain *os.PathError.
func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return os.IsNotExist(err)
}

// decodeHooks extends viper's stock string hooks with ByteSize parsing.
// Passing any custom hook replaces viper's defaults, so the duration and
// slice hooks must be re-composed here.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		byteSizeHook(),
	)
}

// byteSizeHook parses human-readable sizes such as "10Gi" or "100MB" into
// bytesize.ByteSize. Plain numbers convert natively.
func byteSizeHook() mapstructure.DecodeHookFuncType {
	byteSizeType := reflect.TypeOf(bytesize.ByteSize(0))
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != byteSizeType {
			return data, nil
		}
		if s, ok := data.(string); ok {
			return bytesize.ParseByteSize(s)
		}
		return data, nil
	}
}

// configDir returns the nestfs configuration directory, honoring
// XDG_CONFIG_HOME. The credentials store of nestfsctl resolves its
// directory the same way.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nestfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nestfs")
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return configDir()
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
