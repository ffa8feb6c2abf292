package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsServer_Lifecycle(t *testing.T) {
	// Idempotent; the registry lifecycle test has already initialized it.
	InitRegistry()

	server := NewServer(18200)

	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	// Let the listener come up before hitting it.
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/metrics", server.Port()))
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	// The Go runtime collector is always registered
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("exposition output missing go_goroutines")
	}

	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("graceful shutdown returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop within 5s")
	}
}

func TestMetricsServer_Port(t *testing.T) {
	server := NewServer(9100)

	if server.Port() != 9100 {
		t.Errorf("Port() = %d, want 9100", server.Port())
	}
}
