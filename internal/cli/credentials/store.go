// Package credentials stores nestfsctl connection contexts and tokens.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultConfigDir is the directory under XDG_CONFIG_HOME holding the store.
	DefaultConfigDir = "nestfsctl"
	// ConfigFileName is the name of the store file.
	ConfigFileName = "config.json"
	// FilePermissions for the store file (tokens inside, owner only).
	FilePermissions = 0600
	// DirPermissions for the config directory.
	DirPermissions = 0700
)

var (
	// ErrNoCurrentContext indicates no context is currently selected.
	ErrNoCurrentContext = errors.New("no current context set")
	// ErrContextNotFound indicates the requested context doesn't exist.
	ErrContextNotFound = errors.New("context not found")
	// ErrNotLoggedIn indicates no valid credentials exist.
	ErrNotLoggedIn = errors.New("not logged in - run 'nestfsctl login' first")
)

// expirySkew is subtracted from token lifetimes so a token never dies
// mid-request.
const expirySkew = 60 * time.Second

// Context is one saved connection to a nestfs server.
type Context struct {
	ServerURL    string    `json:"server_url"`
	Username     string    `json:"username,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the access token has expired or is about to.
func (c *Context) IsExpired() bool {
	return c.ExpiresAt.IsZero() || time.Now().Add(expirySkew).After(c.ExpiresAt)
}

// HasRefreshToken reports whether a refresh token is available.
func (c *Context) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// Preferences are per-user defaults applied when no flag overrides them.
type Preferences struct {
	DefaultOutput string `json:"default_output,omitempty"` // table, json, yaml
	Color         string `json:"color,omitempty"`          // auto, always, never
}

// Config is the on-disk shape of the store file.
type Config struct {
	CurrentContext string              `json:"current_context"`
	Contexts       map[string]*Context `json:"contexts"`
	Preferences    Preferences         `json:"preferences,omitempty"`
}

// Store reads and writes the nestfsctl credential file. Every mutation is
// persisted immediately; the file is small and commands are short-lived.
type Store struct {
	path string
	cfg  *Config
}

// NewStore opens the store at the default location, creating an empty one
// if the file doesn't exist yet.
func NewStore() (*Store, error) {
	path, err := defaultPath()
	if err != nil {
		return nil, err
	}
	return open(path)
}

func open(path string) (*Store, error) {
	cfg, err := readConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{Contexts: make(map[string]*Context)}
	}
	return &Store{path: path, cfg: cfg}, nil
}

// defaultPath resolves the store location under XDG_CONFIG_HOME, matching
// how the server resolves its own config directory.
func defaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DefaultConfigDir, ConfigFileName), nil
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("credential store %s is corrupt: %w", path, err)
	}
	return cfg, nil
}

// mutate applies fn to the in-memory config and persists the result.
func (s *Store) mutate(fn func(*Config) error) error {
	if err := fn(s.cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, FilePermissions)
}

// GetCurrentContext returns the selected context.
func (s *Store) GetCurrentContext() (*Context, error) {
	if s.cfg.CurrentContext == "" {
		return nil, ErrNoCurrentContext
	}
	return s.GetContext(s.cfg.CurrentContext)
}

// GetCurrentContextName returns the name of the selected context.
func (s *Store) GetCurrentContextName() string {
	return s.cfg.CurrentContext
}

// GetContext returns a context by name.
func (s *Store) GetContext(name string) (*Context, error) {
	ctx, ok := s.cfg.Contexts[name]
	if !ok {
		return nil, ErrContextNotFound
	}
	return ctx, nil
}

// ListContexts returns all saved context names.
func (s *Store) ListContexts() []string {
	names := make([]string, 0, len(s.cfg.Contexts))
	for name := range s.cfg.Contexts {
		names = append(names, name)
	}
	return names
}

// SetContext creates or replaces a context and persists the store.
func (s *Store) SetContext(name string, ctx *Context) error {
	return s.mutate(func(c *Config) error {
		if c.Contexts == nil {
			c.Contexts = make(map[string]*Context)
		}
		c.Contexts[name] = ctx
		return nil
	})
}

// UseContext selects a different context.
func (s *Store) UseContext(name string) error {
	return s.mutate(func(c *Config) error {
		if _, ok := c.Contexts[name]; !ok {
			return ErrContextNotFound
		}
		c.CurrentContext = name
		return nil
	})
}

// DeleteContext removes a context. Deleting the selected context leaves
// no context selected.
func (s *Store) DeleteContext(name string) error {
	return s.mutate(func(c *Config) error {
		if _, ok := c.Contexts[name]; !ok {
			return ErrContextNotFound
		}
		delete(c.Contexts, name)
		if c.CurrentContext == name {
			c.CurrentContext = ""
		}
		return nil
	})
}

// UpdateTokens replaces the tokens of the selected context after a refresh.
func (s *Store) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	return s.mutate(func(*Config) error {
		ctx, err := s.GetCurrentContext()
		if err != nil {
			return err
		}
		ctx.AccessToken = accessToken
		ctx.RefreshToken = refreshToken
		ctx.ExpiresAt = expiresAt
		return nil
	})
}

// ClearCurrentContext wipes the tokens of the selected context (logout).
// The context itself stays so the server URL survives for the next login.
func (s *Store) ClearCurrentContext() error {
	return s.mutate(func(*Config) error {
		ctx, err := s.GetCurrentContext()
		if err != nil {
			return err
		}
		ctx.AccessToken = ""
		ctx.RefreshToken = ""
		ctx.ExpiresAt = time.Time{}
		return nil
	})
}

// GetPreferences returns the saved preferences.
func (s *Store) GetPreferences() Preferences {
	return s.cfg.Preferences
}

// ConfigPath returns the path of the store file.
func (s *Store) ConfigPath() string {
	return s.path
}

// GenerateContextName derives a context name from a server URL, so logging
// into "http://localhost:8080" yields "localhost-8080". Unparseable URLs
// fall back to "default".
func GenerateContextName(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return "default"
	}
	name := strings.NewReplacer(":", "-", ".", "-").Replace(u.Host)
	return strings.Trim(name, "-")
}
