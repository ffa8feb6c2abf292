//go:build e2e

// Package e2e exercises a complete nestfs server over its HTTP API.
//
// The tests compose the full stack in-process (attribute cache, tree,
// drive registry on BadgerDB, hash pool, API server) on a real TCP port
// and drive it through the apiclient, the way nestfsctl would.
//
// Run with:
//
//	go test -tags e2e ./test/e2e/
package e2e

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/api"
	"github.com/marmos91/nestfs/pkg/api/auth"
	"github.com/marmos91/nestfs/pkg/api/handlers"
	"github.com/marmos91/nestfs/pkg/apiclient"
	"github.com/marmos91/nestfs/pkg/attrcache"
	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/drive/store/badger"
	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/server"
	"github.com/marmos91/nestfs/pkg/tree"
)

const (
	adminUser     = "admin"
	adminPassword = "anchovy-paste-42"

	// Test-only signing secret, 64 hex characters.
	jwtSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
)

// env is one running server plus the pieces the tests touch directly.
type env struct {
	volumeDir string
	client    *apiclient.Client
}

// startServer composes and starts a full server on a free port. Shutdown is
// registered as test cleanup and must complete cleanly.
func startServer(t *testing.T) *env {
	t.Helper()

	volumeDir := t.TempDir()

	attrs := attrcache.New(nil)
	tr := tree.New(volumeDir, attrs, nil)

	store, err := badger.New(filepath.Join(t.TempDir(), "registry"))
	require.NoError(t, err)
	drives := drive.NewService(store, tr, nil)

	pool := hasher.New(tr, attrs, hasher.Config{Workers: 2, QueueSize: 64}, nil)

	passwordHash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)

	port := findFreePort(t)
	apiServer, err := api.NewServer(api.Config{
		Port: port,
		JWT:  api.JWTConfig{Secret: jwtSecret},
	}, api.Deps{
		Tree:   tr,
		Drives: drives,
		Hasher: pool,
		Admin:  handlers.Credentials{Username: adminUser, PasswordHash: passwordHash},
	})
	require.NoError(t, err)

	srv := server.New(tr, drives, 5*time.Second)
	srv.SetHasher(pool)
	srv.SetAPIServer(apiServer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err, "server shutdown")
		case <-time.After(15 * time.Second):
			t.Error("server did not shut down in time")
		}
	})

	waitForServer(t, port, 5*time.Second)

	return &env{
		volumeDir: volumeDir,
		client:    apiclient.New(fmt.Sprintf("http://127.0.0.1:%d", port)),
	}
}

// findFreePort finds an available TCP port.
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "find free port")
	defer func() { _ = listener.Close() }()

	return listener.Addr().(*net.TCPAddr).Port
}

// waitForServer waits for a TCP server to accept connections.
func waitForServer(t *testing.T, port int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 250*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server on port %d did not come up within %v", port, timeout)
}

// login authenticates the environment's client as the admin.
func login(t *testing.T, client *apiclient.Client) {
	t.Helper()

	tokens, err := client.Login(adminUser, adminPassword)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	client.SetToken(tokens.AccessToken)
}

func TestHealthAndAuth(t *testing.T) {
	env := startServer(t)
	client := env.client

	// Health endpoints are open
	health, err := client.Health()
	require.NoError(t, err)
	assert.True(t, health.Healthy())
	assert.Equal(t, "nestfs", health.Data["service"])

	ready, err := client.Ready()
	require.NoError(t, err)
	assert.True(t, ready.Healthy())

	reg, err := client.RegistryHealth()
	require.NoError(t, err)
	assert.True(t, reg.Healthy())

	// Management endpoints are not
	_, err = client.ListDrives()
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuthError())

	// Bad credentials are rejected
	_, err = client.Login(adminUser, "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuthError())

	// Good credentials yield a working token pair
	tokens, err := client.Login(adminUser, adminPassword)
	require.NoError(t, err)
	client.SetToken(tokens.AccessToken)

	me, err := client.Me()
	require.NoError(t, err)
	assert.Equal(t, adminUser, me.Username)

	// The refresh token mints a fresh access token
	refreshed, err := client.RefreshToken(tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	client.SetToken(refreshed.AccessToken)
	_, err = client.ListDrives()
	require.NoError(t, err)
}

func TestDriveLifecycle(t *testing.T) {
	env := startServer(t)
	client := env.client
	login(t, client)

	drives, err := client.ListDrives()
	require.NoError(t, err)
	assert.Empty(t, drives)

	created, err := client.CreateDrive(&apiclient.CreateDriveRequest{
		Name:   "projects",
		Access: "private",
		Owner:  "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "projects", created.Name)
	assert.Equal(t, "private", created.Access)

	// The backing directory appears under the volume root
	info, err := os.Stat(filepath.Join(env.volumeDir, "projects"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Duplicate names are rejected
	_, err = client.CreateDrive(&apiclient.CreateDriveRequest{
		Name:  "projects",
		Owner: "bob",
	})
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())

	// Update opens the drive up to bob
	access := "public"
	writers := []string{"alice", "bob"}
	updated, err := client.UpdateDrive("projects", &apiclient.UpdateDriveRequest{
		Access:    &access,
		WriteList: &writers,
	})
	require.NoError(t, err)
	assert.Equal(t, "public", updated.Access)
	assert.Equal(t, writers, updated.WriteList)

	got, err := client.GetDrive("projects")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "public", got.Access)

	require.NoError(t, client.DeleteDrive("projects"))

	_, err = client.GetDrive("projects")
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())

	// The backing directory stays on disk
	_, err = os.Stat(filepath.Join(env.volumeDir, "projects"))
	assert.NoError(t, err)
}

func TestNodeInspection(t *testing.T) {
	env := startServer(t)
	client := env.client
	login(t, client)

	created, err := client.CreateDrive(&apiclient.CreateDriveRequest{
		Name:   "media",
		Access: "private",
		Owner:  "alice",
	})
	require.NoError(t, err)

	// Drop a file behind the server's back, then probe
	filePath := filepath.Join(env.volumeDir, "media", "notes.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("the quick brown fox\n"), 0o644))

	result, err := client.ProbeNode(created.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Nodes, 1)

	children, err := client.ListNodeChildren(created.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "notes.txt", children[0].Name)
	assert.Equal(t, "file", children[0].Kind)

	fileID := children[0].ID

	// The digest lands asynchronously
	require.Eventually(t, func() bool {
		n, err := client.GetNode(fileID)
		return err == nil && n.Hash != ""
	}, 10*time.Second, 100*time.Millisecond, "file digest")

	n, err := client.GetNode(fileID)
	require.NoError(t, err)
	assert.Len(t, n.Hash, 64)
	assert.Equal(t, int64(20), n.Size)
	assert.Equal(t, created.ID, n.Parent)

	driveNode, err := client.GetNode(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "drive", driveNode.Kind)
	assert.Equal(t, created.ID, driveNode.Drive)
	assert.Equal(t, 1, driveNode.Children)

	// The identity survives re-probes
	_, err = client.ProbeNode(created.ID)
	require.NoError(t, err)
	again, err := client.ListNodeChildren(created.ID)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, fileID, again[0].ID)

	path, err := client.GetNodePath(fileID)
	require.NoError(t, err)
	assert.Equal(t, filePath, path)

	// Permissions derive from the owning drive
	perms, err := client.GetNodePermissions(fileID, "alice")
	require.NoError(t, err)
	assert.True(t, perms.Read)
	assert.True(t, perms.Write)
	assert.True(t, perms.Share)
	assert.True(t, perms.Owner)

	perms, err = client.GetNodePermissions(fileID, "bob")
	require.NoError(t, err)
	assert.False(t, perms.Read)
	assert.False(t, perms.Write)
	assert.False(t, perms.Share)
	assert.False(t, perms.Owner)

	// Unknown nodes are a 404
	var apiErr *apiclient.APIError
	_, err = client.GetNode("b1946ed0-0000-4000-8000-000000000000")
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestDrivesSurviveRestart(t *testing.T) {
	volumeDir := t.TempDir()
	registryDir := filepath.Join(t.TempDir(), "registry")

	runOnce := func(fn func(client *apiclient.Client)) {
		attrs := attrcache.New(nil)
		tr := tree.New(volumeDir, attrs, nil)

		store, err := badger.New(registryDir)
		require.NoError(t, err)
		drives := drive.NewService(store, tr, nil)
		require.NoError(t, drives.Restore(context.Background()))

		passwordHash, err := auth.HashPassword(adminPassword)
		require.NoError(t, err)

		port := findFreePort(t)
		apiServer, err := api.NewServer(api.Config{
			Port: port,
			JWT:  api.JWTConfig{Secret: jwtSecret},
		}, api.Deps{
			Tree:   tr,
			Drives: drives,
			Admin:  handlers.Credentials{Username: adminUser, PasswordHash: passwordHash},
		})
		require.NoError(t, err)

		srv := server.New(tr, drives, 5*time.Second)
		srv.SetAPIServer(apiServer)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Serve(ctx) }()
		waitForServer(t, port, 5*time.Second)

		client := apiclient.New(fmt.Sprintf("http://127.0.0.1:%d", port))
		login(t, client)
		fn(client)

		cancel()
		require.NoError(t, <-done)
	}

	var driveID string
	runOnce(func(client *apiclient.Client) {
		created, err := client.CreateDrive(&apiclient.CreateDriveRequest{
			Name:   "keep",
			Access: "private",
			Owner:  "alice",
		})
		require.NoError(t, err)
		driveID = created.ID
	})

	runOnce(func(client *apiclient.Client) {
		got, err := client.GetDrive("keep")
		require.NoError(t, err)
		assert.Equal(t, driveID, got.ID, "drive identity survives restart")
	})
}
