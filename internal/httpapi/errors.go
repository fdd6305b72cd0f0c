package httpapi

import (
	"encoding/json"
	"net/http"

	"artd/internal/controller"
	"artd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps controller errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case controller.IsNotFound(err):
		return http.StatusNotFound
	case controller.IsAlreadyBusy(err):
		return http.StatusConflict
	case controller.IsParseError(err):
		return http.StatusUnprocessableEntity
	case controller.IsInvalidArgument(err):
		return http.StatusBadRequest
	case controller.IsShuttingDown(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code and writes it as a JSON error.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
