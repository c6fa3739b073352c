// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
)

// Client-facing error messages. Kept stable because callers match on
// them; failure detail only ever goes to the server log.
const (
	msgMissingAlbumID = "Missing albumId"
	msgNoTracks       = "No tracks found for album"
	msgBusy           = "Generation already in progress"
	msgGenerateFailed = "Failed to generate zip"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorMsg writes a JSON error body with a fixed message.
func writeErrorMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeNotFound writes a 404 Not Found response
func writeNotFound(w http.ResponseWriter) {
	writeErrorMsg(w, http.StatusNotFound, "not found")
}

// writeForbidden writes a 403 Forbidden response
func writeForbidden(w http.ResponseWriter) {
	writeErrorMsg(w, http.StatusForbidden, "forbidden")
}
