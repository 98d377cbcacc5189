package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/services"
)

// ActivityHandler lists recent request activity.
type ActivityHandler struct {
	activityService services.ActivityService
	logger          *zap.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(activityService services.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, logger: logger}
}

// RegisterRoutes registers the activity handler's routes on the given mux.
func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux, identify func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/activity", identify(h.List))
}

// List handles GET /api/activity?category=&limit=. An empty category lists
// activity across all categories.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		parsed, ok := models.ParseCategory(raw)
		if !ok {
			if err := ErrorResponse(w, http.StatusBadRequest, "unknown_category",
				"Unknown category: "+raw); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		category = parsed
	}

	entries, err := h.activityService.List(r.Context(), category, queryInt(r, "limit", 100))
	if err != nil {
		h.logger.Error("Failed to list activity", zap.Error(err))
		statusCode, errorCode := mapServiceError(err)
		if err := ErrorResponse(w, statusCode, errorCode, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entries}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
