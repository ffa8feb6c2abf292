package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Health mirrors the health endpoint envelope.
type Health struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Healthy reports whether the check passed.
func (h *Health) Healthy() bool {
	return h.Status == "healthy"
}

// Health returns the liveness state of the server.
func (c *Client) Health() (*Health, error) {
	return c.getHealth("/health")
}

// Ready returns the readiness state of the server.
func (c *Client) Ready() (*Health, error) {
	return c.getHealth("/health/ready")
}

// RegistryHealth returns the drive registry health.
func (c *Client) RegistryHealth() (*Health, error) {
	return c.getHealth("/health/registry")
}

// getHealth fetches a health endpoint. Unlike do, it decodes the envelope on
// any status code: an unhealthy probe answers 503 with a regular body, and
// the caller wants to see that body rather than an opaque error.
func (c *Client) getHealth(path string) (*Health, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var health Health
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, &APIError{
			Status: resp.StatusCode,
			Title:  http.StatusText(resp.StatusCode),
			Detail: string(body),
		}
	}

	return &health, nil
}
