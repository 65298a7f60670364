// Package handler contains the HTTP handlers for the read-only API. Every
// handler takes its dependencies as small interfaces so tests can substitute
// fakes without standing up the full engine.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseLimit extracts a positive "limit" query parameter with a default and
// an upper cap.
func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

// parseWindow extracts a "window" query parameter as a Go duration string
// (e.g. "24h", "90m"). Zero means no window: consider the full history.
func parseWindow(r *http.Request) time.Duration {
	v := r.URL.Query().Get("window")
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
