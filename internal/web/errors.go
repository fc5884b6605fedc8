package web

// errors.go provides JSON response helpers for the web layer. Technical
// errors are logged server-side with the request ID; clients receive a
// short message without internals.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/medicampus/attendmail/internal/logging"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError logs err with request context and writes a sanitized JSON
// error body.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	logger := logging.FromContext(r.Context())
	if err != nil {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err,
		)
	} else {
		logger.Warn("request rejected",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"message", message,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
