package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
)

// Response is the envelope for health check payloads. Status is "healthy"
// or "unhealthy"; Data and Error accompany it as the check dictates.
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// writeJSON marshals data before touching the ResponseWriter, so a marshal
// failure can still change the status line.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// healthOK stamps data into a healthy envelope.
func healthOK(data interface{}) Response {
	return Response{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

// healthFail builds an unhealthy envelope. Per-component results may ride
// along in data; errMsg may be empty when data tells the story.
func healthFail(errMsg string, data interface{}) Response {
	return Response{Status: "unhealthy", Timestamp: time.Now().UTC(), Data: data, Error: errMsg}
}
