package handlers

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps request bodies. Drive descriptors and credentials are
// tiny; anything near this limit is not a legitimate request.
const maxBodyBytes = 1 << 20

// readJSON decodes the request body into v. On failure it writes a problem
// response and reports false so handlers can bail with a bare return.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}
