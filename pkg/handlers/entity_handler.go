package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/auth"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/services"
)

// UpdateFieldsRequest for PATCH /api/entities/{category}/{eid}/fields.
type UpdateFieldsRequest struct {
	Fields models.FieldMap `json:"fields"`
}

// VerifyFieldRequest for POST /api/entities/{category}/{eid}/verify.
type VerifyFieldRequest struct {
	Field    string `json:"field"`
	Verified bool   `json:"verified"`
}

// EntityHandler handles entity CRUD, verification, and export requests.
type EntityHandler struct {
	entityService services.EntityService
	exportService services.ExportService
	logger        *zap.Logger
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(entityService services.EntityService, exportService services.ExportService, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		entityService: entityService,
		exportService: exportService,
		logger:        logger,
	}
}

// RegisterRoutes registers the entity handler's routes on the given mux.
func (h *EntityHandler) RegisterRoutes(mux *http.ServeMux, identify func(http.HandlerFunc) http.HandlerFunc) {
	base := "/api/entities/{category}"

	mux.HandleFunc("GET "+base, identify(h.List))
	mux.HandleFunc("GET "+base+"/{eid}", identify(h.Get))
	mux.HandleFunc("GET "+base+"/name/{name}", identify(h.GetByName))
	mux.HandleFunc("PATCH "+base+"/{eid}/fields", identify(h.UpdateFields))
	mux.HandleFunc("POST "+base+"/{eid}/verify", identify(h.VerifyField))
	mux.HandleFunc("POST "+base+"/{eid}/verify-all", identify(h.VerifyAll))
	mux.HandleFunc("DELETE "+base+"/{eid}", identify(h.Delete))

	// Export lives outside /api/entities: a "GET .../{eid}/export" pattern
	// would overlap "GET .../name/{name}" on paths like .../name/export,
	// which ServeMux rejects at registration.
	mux.HandleFunc("GET /api/export/{category}/{eid}", identify(h.Export))
}

// List handles GET /api/entities/{category}.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entities, err := h.entityService.List(r.Context(), category, limit, offset)
	if err != nil {
		h.serviceError(w, "Failed to list entities", category, err)
		return
	}

	h.ok(w, entities)
}

// Get handles GET /api/entities/{category}/{eid}.
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}
	id, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	entity, err := h.entityService.Get(r.Context(), category, id)
	if err != nil {
		h.serviceError(w, "Failed to get entity", category, err)
		return
	}

	h.ok(w, entity)
}

// GetByName handles GET /api/entities/{category}/name/{name}.
func (h *EntityHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}

	entity, err := h.entityService.GetByName(r.Context(), category, r.PathValue("name"))
	if err != nil {
		h.serviceError(w, "Failed to get entity by name", category, err)
		return
	}

	h.ok(w, entity)
}

// UpdateFields handles PATCH /api/entities/{category}/{eid}/fields.
func (h *EntityHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}
	id, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	var req UpdateFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	entity, err := h.entityService.UpdateFields(r.Context(), category, id, req.Fields, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.serviceError(w, "Failed to update fields", category, err)
		return
	}

	h.ok(w, entity)
}

// VerifyField handles POST /api/entities/{category}/{eid}/verify.
func (h *EntityHandler) VerifyField(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}
	id, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	var req VerifyFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Field == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Field name is required")
		return
	}

	entity, err := h.entityService.SetVerified(r.Context(), category, id, req.Field, req.Verified, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.serviceError(w, "Failed to set verification", category, err)
		return
	}

	h.ok(w, entity)
}

// VerifyAll handles POST /api/entities/{category}/{eid}/verify-all.
func (h *EntityHandler) VerifyAll(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}
	id, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	entity, err := h.entityService.VerifyAll(r.Context(), category, id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.serviceError(w, "Failed to verify all fields", category, err)
		return
	}

	h.ok(w, entity)
}

// Delete handles DELETE /api/entities/{category}/{eid}.
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}
	id, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	if err := h.entityService.Delete(r.Context(), category, id, auth.UserIDFromContext(r.Context())); err != nil {
		h.serviceError(w, "Failed to delete entity", category, err)
		return
	}

	h.ok(w, map[string]string{"deleted": id.String()})
}

// Export handles GET /api/export/{category}/{eid}.
// Responds with markdown, not the JSON envelope.
func (h *EntityHandler) Export(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(w, r)
	if !ok {
		return
	}
	id, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	doc, err := h.exportService.ExportMarkdown(r.Context(), category, id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.serviceError(w, "Failed to export entity", category, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		h.logger.Error("Failed to write export response", zap.Error(err))
	}
}

func (h *EntityHandler) ok(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *EntityHandler) serviceError(w http.ResponseWriter, logMsg string, category models.Category, err error) {
	statusCode, errorCode := mapServiceError(err)
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error(logMsg,
			zap.String("category", string(category)),
			zap.Error(err))
	}
	h.writeError(w, statusCode, errorCode, err.Error())
}

func (h *EntityHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
