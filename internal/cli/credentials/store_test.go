package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := open(filepath.Join(t.TempDir(), ConfigFileName))
	require.NoError(t, err)
	return s
}

func seedContext(t *testing.T, s *Store, name string, ctx *Context) {
	t.Helper()
	require.NoError(t, s.SetContext(name, ctx))
	require.NoError(t, s.UseContext(name))
}

func TestContextIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expired   bool
	}{
		{"past expiry", time.Now().Add(-time.Hour), true},
		{"inside the skew window", time.Now().Add(30 * time.Second), true},
		{"comfortably valid", time.Now().Add(2 * time.Hour), false},
		{"zero time", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expired, ctx.IsExpired())
		})
	}
}

func TestContextHasRefreshToken(t *testing.T) {
	ctx := &Context{}
	assert.False(t, ctx.HasRefreshToken())

	ctx.RefreshToken = "token"
	assert.True(t, ctx.HasRefreshToken())
}

func TestEmptyStore(t *testing.T) {
	s := tempStore(t)

	_, err := s.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, s.ListContexts())
	assert.Empty(t, s.GetCurrentContextName())
}

func TestContextLifecycle(t *testing.T) {
	s := tempStore(t)

	seedContext(t, s, "localhost-8080", &Context{
		ServerURL:    "http://localhost:8080",
		Username:     "admin",
		AccessToken:  "token1",
		RefreshToken: "refresh1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	current, err := s.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Equal(t, "admin", current.Username)

	require.NoError(t, s.SetContext("production-8080", &Context{
		ServerURL: "http://production:8080",
		Username:  "prod-admin",
	}))
	assert.ElementsMatch(t, []string{"localhost-8080", "production-8080"}, s.ListContexts())

	require.NoError(t, s.UseContext("production-8080"))
	assert.Equal(t, "production-8080", s.GetCurrentContextName())

	// Deleting the selected context deselects it.
	require.NoError(t, s.DeleteContext("production-8080"))
	assert.Empty(t, s.GetCurrentContextName())

	_, err = s.GetContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)
	assert.ErrorIs(t, s.UseContext("nonexistent"), ErrContextNotFound)
	assert.ErrorIs(t, s.DeleteContext("nonexistent"), ErrContextNotFound)
}

func TestPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	s, err := open(path)
	require.NoError(t, err)
	seedContext(t, s, "localhost-8080", &Context{
		ServerURL:   "http://localhost:8080",
		Username:    "admin",
		AccessToken: "token",
	})

	reopened, err := open(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost-8080", reopened.GetCurrentContextName())

	current, err := reopened.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "admin", current.Username)
	assert.Equal(t, "token", current.AccessToken)
}

func TestRejectsCorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := open(path)
	assert.ErrorContains(t, err, "corrupt")
}

func TestUpdateTokens(t *testing.T) {
	s := tempStore(t)
	seedContext(t, s, "localhost-8080", &Context{
		ServerURL:   "http://localhost:8080",
		AccessToken: "old-token",
	})

	expiry := time.Now().Add(2 * time.Hour)
	require.NoError(t, s.UpdateTokens("new-access", "new-refresh", expiry))

	current, err := s.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "new-access", current.AccessToken)
	assert.Equal(t, "new-refresh", current.RefreshToken)
	assert.WithinDuration(t, expiry, current.ExpiresAt, time.Second)

	t.Run("without a selected context", func(t *testing.T) {
		assert.ErrorIs(t, tempStore(t).UpdateTokens("a", "r", time.Now()), ErrNoCurrentContext)
	})
}

func TestClearCurrentContext(t *testing.T) {
	s := tempStore(t)
	seedContext(t, s, "localhost-8080", &Context{
		ServerURL:    "http://localhost:8080",
		Username:     "admin",
		AccessToken:  "token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	require.NoError(t, s.ClearCurrentContext())

	// Tokens are gone, the connection details stay.
	current, err := s.GetCurrentContext()
	require.NoError(t, err)
	assert.Empty(t, current.AccessToken)
	assert.Empty(t, current.RefreshToken)
	assert.True(t, current.ExpiresAt.IsZero())
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Equal(t, "admin", current.Username)
}

func TestDefaultPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	s, err := NewStore()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultConfigDir, ConfigFileName), s.ConfigPath())
}

func TestReadsPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	raw := `{"current_context":"","contexts":{},"preferences":{"default_output":"json","color":"never"}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	s, err := open(path)
	require.NoError(t, err)

	prefs := s.GetPreferences()
	assert.Equal(t, "json", prefs.DefaultOutput)
	assert.Equal(t, "never", prefs.Color)
}

func TestGenerateContextName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://localhost:8080", "localhost-8080"},
		{"https://nestfs.example.com", "nestfs-example-com"},
		{"http://nestfs.internal:9000", "nestfs-internal-9000"},
		{"192.168.1.10:9000", "default"},
		{"", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateContextName(tt.url))
		})
	}
}
