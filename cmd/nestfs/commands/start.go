package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/internal/telemetry"
	"github.com/marmos91/nestfs/pkg/api"
	"github.com/marmos91/nestfs/pkg/api/handlers"
	"github.com/marmos91/nestfs/pkg/attrcache"
	"github.com/marmos91/nestfs/pkg/config"
	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/metrics/prometheus"
	"github.com/marmos91/nestfs/pkg/server"
	"github.com/marmos91/nestfs/pkg/tree"
	"github.com/marmos91/nestfs/pkg/watcher"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the NestFS server",
	Long: `Start the NestFS server.

Without flags the server daemonizes itself. --foreground keeps it attached
to the terminal, which is what you want under a process supervisor or while
debugging.

Configuration comes from --config when given, otherwise from
$XDG_CONFIG_HOME/nestfs/config.yaml.

Examples:
  # Background daemon (default)
  nestfs start

  # Stay attached to the terminal
  nestfs start --foreground

  # Explicit config file
  nestfs start --config /etc/nestfs/config.yaml

  # Environment variable overrides
  NESTFS_LOGGING_LEVEL=DEBUG nestfs start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Stay in the foreground instead of daemonizing")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Where to write the PID file (default: $XDG_STATE_HOME/nestfs/nestfs.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Where to append daemon output (default: $XDG_STATE_HOME/nestfs/nestfs.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownObservability, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability()

	fmt.Println("NestFS - Identity-preserving volume index")
	logger.Info("Logging configured", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", configSource(GetConfigFile()))

	// Metrics come first so component collectors find a registry to join.
	metricsResult := config.InitializeMetrics(cfg)

	// The volume root must exist before drives can be mounted under it.
	if err := os.MkdirAll(cfg.Volume.Root, 0755); err != nil {
		return fmt.Errorf("failed to create volume root: %w", err)
	}
	logger.Info("Volume root", "path", cfg.Volume.Root)

	attrs := attrcache.New(prometheus.NewAttrCacheMetrics())
	tr := tree.New(cfg.Volume.Root, attrs, prometheus.NewTreeMetrics())

	drives, err := config.InitializeRegistry(ctx, cfg, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize drive registry: %w", err)
	}

	pool := hasher.New(tr, attrs, hasher.Config{
		Workers:     cfg.Hasher.Workers,
		QueueSize:   cfg.Hasher.QueueSize,
		MaxFileSize: cfg.Hasher.MaxFileSize.Int64(),
	}, prometheus.NewHasherMetrics())

	srv := server.New(tr, drives, cfg.ShutdownTimeout)
	srv.SetHasher(pool)

	// The volume watcher keeps the tree current; without it changes are
	// only picked up by explicit probes.
	if cfg.Watcher.IsEnabled() {
		w := watcher.New(tr, drives, pool, watcher.Config{
			Debounce: cfg.Watcher.Debounce,
		}, prometheus.NewWatcherMetrics())
		srv.SetWatcher(w)
		logger.Info("Watcher enabled", "debounce", cfg.Watcher.Debounce)
	} else {
		logger.Info("Watcher disabled, relying on explicit probes")
	}

	if metricsResult.Server != nil {
		srv.SetMetricsServer(metricsResult.Server)
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	apiServer, err := api.NewServer(cfg.API, api.Deps{
		Tree:   tr,
		Drives: drives,
		Hasher: pool,
		Admin: handlers.Credentials{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	srv.SetAPIServer(apiServer)
	logger.Info("API server configured", "port", cfg.API.Port)

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.Serve(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
		err = <-serverDone
	case err = <-serverDone:
	}
	if err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// initObservability starts tracing and profiling per the configuration and
// returns a function that flushes both.
func initObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	traceShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "nestfs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	profileShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "nestfs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		if terr := traceShutdown(ctx); terr != nil {
			logger.Error("telemetry shutdown error", "error", terr)
		}
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	return func() {
		if err := profileShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
		if err := traceShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}, nil
}

// configSource names where the running configuration came from.
func configSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
