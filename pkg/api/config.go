// Package api implements the nestfs control API: an HTTP server exposing
// drive management, tree inspection, and health endpoints.
package api

import (
	"os"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
)

// EnvAPISecret overrides the configured JWT signing secret, so deployments
// can keep the secret out of the config file.
const EnvAPISecret = "NESTFS_API_SECRET"

// Defaults applied when the config leaves the fields zero.
const (
	defaultPort         = 8080
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Config configures the control API HTTP server. The API cannot be turned
// off; it is the only way to manage drives at runtime.
type Config struct {
	// Port is the listening port. Default 8080.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout bounds reading a request including its body. Default 10s.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. Default 10s.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive waits between requests. Default 60s.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// JWT configures token issuance.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig carries the token settings from the config file. Zero lifetimes
// are filled by the auth service (15m access, 7d refresh).
type JWTConfig struct {
	// Secret is the HMAC signing key, 32 characters minimum. NESTFS_API_SECRET
	// takes precedence when set.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// AccessTokenDuration is the access token lifetime.
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration"`

	// RefreshTokenDuration is the refresh token lifetime.
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" yaml:"refresh_token_duration"`
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
}

// GetJWTSecret resolves the signing secret, preferring the environment.
// A warning is logged when the environment shadows a different file value.
func (c *Config) GetJWTSecret() string {
	if envSecret := os.Getenv(EnvAPISecret); envSecret != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvAPISecret)
		}
		return envSecret
	}
	return c.JWT.Secret
}

// HasJWTSecret reports whether a signing secret is available from either
// source.
func (c *Config) HasJWTSecret() bool {
	return c.GetJWTSecret() != ""
}
