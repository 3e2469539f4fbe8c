package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/chartlab/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
// The error field is machine-readable so the orchestration layer can tell
// "your generated code failed" apart from "our infrastructure failed".
type ErrorResponse struct {
	Error   string `json:"error"`            // machine-readable error type
	Message string `json:"message"`          // human-readable description
	Detail  string `json:"detail,omitempty"` // diagnostic text, e.g. interpreter stderr
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be set before the first body write.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
// The service layer knows nothing about HTTP; this is the one place domain
// errors become status codes.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrInvalidInput):
			status = http.StatusBadRequest
			errorType = "invalid_input"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrExecution):
			// The caller-supplied code failed, not the service.
			status = http.StatusUnprocessableEntity
			errorType = "execution_failed"
		case errors.Is(err, apperror.ErrTimeout):
			status = http.StatusUnprocessableEntity
			errorType = "timeout"
		case errors.Is(err, apperror.ErrInterpreter):
			status = http.StatusServiceUnavailable
			errorType = "interpreter_unavailable"
		case errors.Is(err, apperror.ErrWorkspace):
			status = http.StatusInternalServerError
			errorType = "workspace_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Detail:  appErr.Detail,
		})
		return
	}

	// Unknown error: never leak internals to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
