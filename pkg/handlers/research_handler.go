package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/auth"
	"github.com/raagsetu/raag-engine/pkg/research"
	"github.com/raagsetu/raag-engine/pkg/services"
)

// ResearchRequest for POST /api/research/{category}.
type ResearchRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`

	UseStructured bool `json:"useStructured"`
	UseSummary    bool `json:"useSummary"`

	// Force overwrites user-verified fields with fresh research data.
	Force bool `json:"force,omitempty"`
}

// ScrapeRequest for POST /api/scrape/{category}.
type ScrapeRequest struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ResearchHandler handles AI research and scrape-fallback HTTP requests.
type ResearchHandler struct {
	researchService services.ResearchService
	scraperService  services.ScraperService
	logger          *zap.Logger
}

// NewResearchHandler creates a new research handler.
func NewResearchHandler(researchService services.ResearchService, scraperService services.ScraperService, logger *zap.Logger) *ResearchHandler {
	return &ResearchHandler{
		researchService: researchService,
		scraperService:  scraperService,
		logger:          logger,
	}
}

// RegisterRoutes registers the research handler's routes on the given mux.
func (h *ResearchHandler) RegisterRoutes(mux *http.ServeMux, identify func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/research/{category}", identify(h.Research))
	mux.HandleFunc("POST /api/scrape/{category}", identify(h.Scrape))
}

// Research handles POST /api/research/{category}.
func (h *ResearchHandler) Research(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}

	var req ResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	provider, ok := research.ParseProvider(req.Provider)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown_provider",
			"Unknown provider: "+req.Provider)
		return
	}

	result, err := h.researchService.Search(r.Context(), services.SearchRequest{
		Category:      category,
		Name:          req.Name,
		Provider:      provider,
		ModelHint:     req.Model,
		UseStructured: req.UseStructured,
		UseSummary:    req.UseSummary,
		Force:         req.Force,
		UserID:        auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("Research search failed",
			zap.String("category", string(category)),
			zap.String("name", req.Name),
			zap.String("provider", string(provider)),
			zap.Error(err))

		statusCode, errorCode := mapServiceError(err)
		if phaseCode, ok := searchPhaseCode(err); ok {
			errorCode = phaseCode
		}

		// A summary-phase failure still carries the committed structured
		// result; surface it so the UI can render the partial outcome.
		if result != nil && result.Entity != nil {
			response := ApiResponse{
				Success: false,
				Data:    result,
				Error:   errorCode,
				Message: err.Error(),
			}
			if err := WriteJSON(w, http.StatusOK, response); err != nil {
				h.logger.Error("Failed to write response", zap.Error(err))
			}
			return
		}

		h.writeError(w, statusCode, errorCode, err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Scrape handles POST /api/scrape/{category}.
func (h *ResearchHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}

	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	entity, err := h.scraperService.Scrape(r.Context(), category, req.Name, req.URL, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("Scrape failed",
			zap.String("category", string(category)),
			zap.String("name", req.Name),
			zap.Error(err))
		statusCode, errorCode := mapServiceError(err)
		h.writeError(w, statusCode, errorCode, err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entity}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ResearchHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
