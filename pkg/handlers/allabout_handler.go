package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/services"
)

// AllAboutHandler lists stored summary-mode snapshots.
type AllAboutHandler struct {
	allAboutService services.AllAboutService
	logger          *zap.Logger
}

// NewAllAboutHandler creates a new all-about handler.
func NewAllAboutHandler(allAboutService services.AllAboutService, logger *zap.Logger) *AllAboutHandler {
	return &AllAboutHandler{allAboutService: allAboutService, logger: logger}
}

// RegisterRoutes registers the all-about handler's routes on the given mux.
func (h *AllAboutHandler) RegisterRoutes(mux *http.ServeMux, identify func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/allabout/{category}", identify(h.List))
}

// List handles GET /api/allabout/{category}?query=&limit=.
func (h *AllAboutHandler) List(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}

	snapshots, err := h.allAboutService.List(r.Context(), category,
		r.URL.Query().Get("query"), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("Failed to list summary snapshots",
			zap.String("category", string(category)),
			zap.Error(err))
		statusCode, errorCode := mapServiceError(err)
		if err := ErrorResponse(w, statusCode, errorCode, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: snapshots}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
