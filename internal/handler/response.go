// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Responses use the envelope {"success": bool, ...} on every endpoint so
// clients can branch on one field.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": true, "message": message})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeInternal logs the underlying cause and answers a generic message. In
// non-production environments the cause is surfaced to ease debugging.
func writeInternal(w http.ResponseWriter, r *http.Request, production bool, msg string, err error) {
	slog.ErrorContext(r.Context(), msg,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	if production {
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	writeError(w, http.StatusInternalServerError, msg+": "+err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
