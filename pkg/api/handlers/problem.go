// Package handlers implements the HTTP handlers behind the nestfs control API.
package handlers

import (
	"encoding/json"
	"net/http"
)

// contentTypeProblem is the media type RFC 7807 assigns to problem documents.
const contentTypeProblem = "application/problem+json"

// Problem is an RFC 7807 problem document. Type stays "about:blank", which
// tells clients the status code carries the whole classification.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// writeProblem answers with a problem document. The title derives from the
// status code, so call sites supply only the occurrence detail.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", contentTypeProblem)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// BadRequest rejects a malformed request with a 400 problem document.
func BadRequest(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusBadRequest, detail)
}

// Unauthorized answers 401 when credentials are missing or wrong.
func Unauthorized(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusUnauthorized, detail)
}

// NotFound answers 404 for a resource that does not exist.
func NotFound(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusNotFound, detail)
}

// Conflict answers 409 when the request collides with existing state.
func Conflict(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusConflict, detail)
}

// UnprocessableEntity answers 422 for a request that parses but fails
// validation.
func UnprocessableEntity(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusUnprocessableEntity, detail)
}

// InternalServerError answers 500. Detail should stay generic; the real
// error belongs in the log, not the response.
func InternalServerError(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusInternalServerError, detail)
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONOK writes data as a 200 response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes data as a 201 response.
func WriteJSONCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent answers 204 with an empty body.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
