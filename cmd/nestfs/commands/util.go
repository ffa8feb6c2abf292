package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/config"
)

// stateDirName is the directory component appended to the platform state root.
const stateDirName = "nestfs"

// InitLogger configures the process logger from the loaded configuration.
func InitLogger(cfg *config.Config) error {
	err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// GetDefaultStateDir resolves the per-user state directory where the daemon
// keeps its PID and log files. Unix follows XDG_STATE_HOME, Windows uses
// %LOCALAPPDATA%. When no home directory can be resolved the state dir
// lands under os.TempDir.
func GetDefaultStateDir() string {
	return filepath.Join(stateRoot(), stateDirName)
}

func stateRoot() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return os.TempDir()
		}
		return filepath.Join(home, "AppData", "Local")
	}

	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".local", "state")
}

// GetDefaultPidFile returns where the daemon records its PID.
func GetDefaultPidFile() string {
	return filepath.Join(GetDefaultStateDir(), "nestfs.pid")
}

// GetDefaultLogFile returns where daemon output is appended.
func GetDefaultLogFile() string {
	return filepath.Join(GetDefaultStateDir(), "nestfs.log")
}
