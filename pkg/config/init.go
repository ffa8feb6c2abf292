package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileHeader is prepended to generated configuration files.
const configFileHeader = `# NestFS Configuration File
#
# Generated by 'nestfs init'. Edit values as needed; environment variables
# with the NESTFS_ prefix override file values (e.g. NESTFS_LOGGING_LEVEL).
#
# The JWT secret below was generated randomly. Keep this file private.

`

// InitConfig creates a default configuration file at the default location
// ($XDG_CONFIG_HOME/nestfs/config.yaml or ~/.config/nestfs/config.yaml).
//
// Returns the path of the created file. Fails if the file already exists,
// unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a default configuration file at the given path,
// creating parent directories as needed.
//
// The generated file contains all default values plus a freshly generated
// JWT secret. Fails if the file already exists, unless force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	cfg := GetDefaultConfig()

	// Every installation gets its own signing secret
	secret, err := generateJWTSecret()
	if err != nil {
		return err
	}
	cfg.API.JWT.Secret = secret

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	content := append([]byte(configFileHeader), data...)

	// Restricted permissions: the file holds the JWT secret and may hold
	// the admin password hash
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateJWTSecret creates a cryptographically random secret for signing
// API tokens. The hex encoding yields 64 characters, comfortably above the
// 32-character minimum the token service enforces.
func generateJWTSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
