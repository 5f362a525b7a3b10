package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

// WriteJSONError writes a JSON error response with the given message and status code.
// It sets the Content-Type header to application/json and automatically formats
// the response as {"error": "message"}.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps domain errors to HTTP status codes. Unrecognized
// errors get the fallback message so internals never leak to the client.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, domain.ErrNotAuthenticated) {
		WriteJSONError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	switch err.(type) {
	case domain.ValidationError:
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case *domain.ErrPermissionDenied:
		WriteJSONError(w, err.Error(), http.StatusForbidden)
	case *domain.ErrPipelineNotFound, *domain.ErrLeadNotFound:
		WriteJSONError(w, err.Error(), http.StatusNotFound)
	case *domain.ErrPipelineHasLeads, *domain.ErrLeadStaleWrite:
		WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		WriteJSONError(w, fallback, http.StatusInternalServerError)
	}
}
