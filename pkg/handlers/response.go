package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/normalize"
	"github.com/raagsetu/raag-engine/pkg/research"
	"github.com/raagsetu/raag-engine/pkg/services"
)

// ApiResponse is the JSON envelope every API endpoint returns.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(ApiResponse{
		Success: false,
		Error:   errorCode,
		Message: message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// mapServiceError translates service/repository errors into an HTTP status
// and stable error code.
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrUnknownCategory):
		return http.StatusBadRequest, "invalid_request"
	case normalize.IsParseError(err):
		return http.StatusBadGateway, "unparseable_provider_response"
	case research.IsConfigError(err):
		return http.StatusBadGateway, "provider_not_configured"
	case research.IsRequestError(err):
		return http.StatusBadGateway, "provider_request_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// searchPhaseCode refines the error code for combined-search failures so
// the UI can tell a total failure from a partial one.
func searchPhaseCode(err error) (string, bool) {
	var se *services.SearchError
	if !errors.As(err, &se) {
		return "", false
	}
	switch se.Phase {
	case services.PhaseStructured:
		return "structured_search_failed", true
	case services.PhaseSummary:
		return "summary_search_failed", true
	}
	return "", false
}
