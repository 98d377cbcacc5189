package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/raagsetu/raag-engine/pkg/models"
)

// parseCategory reads the {category} path value, writing a 400 on failure.
func parseCategory(w http.ResponseWriter, r *http.Request) (models.Category, bool) {
	raw := r.PathValue("category")
	category, ok := models.ParseCategory(raw)
	if !ok {
		_ = ErrorResponse(w, http.StatusBadRequest, "unknown_category",
			"Unknown category: "+raw)
		return "", false
	}
	return category, true
}

// parseEntityID reads the {eid} path value, writing a 400 on failure.
func parseEntityID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("eid")
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_entity_id",
			"Invalid entity ID format: "+raw)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
