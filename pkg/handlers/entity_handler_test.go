package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/services"
)

type mockEntityService struct {
	GetFunc          func(ctx context.Context, category models.Category, id uuid.UUID) (*models.Entity, error)
	GetByNameFunc    func(ctx context.Context, category models.Category, name string) (*models.Entity, error)
	ListFunc         func(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error)
	UpdateFieldsFunc func(ctx context.Context, category models.Category, id uuid.UUID, updates models.FieldMap, userID string) (*models.Entity, error)
	SetVerifiedFunc  func(ctx context.Context, category models.Category, id uuid.UUID, field string, verified bool, userID string) (*models.Entity, error)
	VerifyAllFunc    func(ctx context.Context, category models.Category, id uuid.UUID, userID string) (*models.Entity, error)
	DeleteFunc       func(ctx context.Context, category models.Category, id uuid.UUID, userID string) error
}

var _ services.EntityService = (*mockEntityService)(nil)

func (m *mockEntityService) Get(ctx context.Context, category models.Category, id uuid.UUID) (*models.Entity, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, category, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntityService) GetByName(ctx context.Context, category models.Category, name string) (*models.Entity, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, category, name)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntityService) List(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, category, limit, offset)
	}
	return nil, nil
}

func (m *mockEntityService) UpdateFields(ctx context.Context, category models.Category, id uuid.UUID, updates models.FieldMap, userID string) (*models.Entity, error) {
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, category, id, updates, userID)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntityService) SetVerified(ctx context.Context, category models.Category, id uuid.UUID, field string, verified bool, userID string) (*models.Entity, error) {
	if m.SetVerifiedFunc != nil {
		return m.SetVerifiedFunc(ctx, category, id, field, verified, userID)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntityService) VerifyAll(ctx context.Context, category models.Category, id uuid.UUID, userID string) (*models.Entity, error) {
	if m.VerifyAllFunc != nil {
		return m.VerifyAllFunc(ctx, category, id, userID)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntityService) Delete(ctx context.Context, category models.Category, id uuid.UUID, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, category, id, userID)
	}
	return apperrors.ErrNotFound
}

type mockExportService struct {
	ExportFunc func(ctx context.Context, category models.Category, id uuid.UUID, userID string) (string, error)
}

var _ services.ExportService = (*mockExportService)(nil)

func (m *mockExportService) ExportMarkdown(ctx context.Context, category models.Category, id uuid.UUID, userID string) (string, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, category, id, userID)
	}
	return "", apperrors.ErrNotFound
}

func newEntityMux(t *testing.T, entitySvc services.EntityService, exportSvc services.ExportService) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewEntityHandler(entitySvc, exportSvc, zaptest.NewLogger(t)).RegisterRoutes(mux, passthrough)
	return mux
}

func doRequest(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestEntityGet_InvalidID(t *testing.T) {
	mux := newEntityMux(t, &mockEntityService{}, &mockExportService{})

	rec := doRequest(mux, http.MethodGet, "/api/entities/raag/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_entity_id", decodeEnvelope(t, rec).Error)
}

func TestEntityGet_NotFound(t *testing.T) {
	mux := newEntityMux(t, &mockEntityService{}, &mockExportService{})

	rec := doRequest(mux, http.MethodGet, "/api/entities/raag/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeEnvelope(t, rec).Error)
}

func TestEntityGetByName(t *testing.T) {
	svc := &mockEntityService{
		GetByNameFunc: func(ctx context.Context, category models.Category, name string) (*models.Entity, error) {
			assert.Equal(t, "Yaman", name)
			return &models.Entity{Category: category, Name: name}, nil
		},
	}
	mux := newEntityMux(t, svc, &mockExportService{})

	rec := doRequest(mux, http.MethodGet, "/api/entities/raag/name/Yaman", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestEntityList_PassesPagination(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &mockEntityService{
		ListFunc: func(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.Entity{}, nil
		},
	}
	mux := newEntityMux(t, svc, &mockExportService{})

	rec := doRequest(mux, http.MethodGet, "/api/entities/artist?limit=10&offset=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 20, gotOffset)
}

func TestEntityUpdateFields(t *testing.T) {
	id := uuid.New()
	var gotUpdates models.FieldMap
	svc := &mockEntityService{
		UpdateFieldsFunc: func(ctx context.Context, category models.Category, gotID uuid.UUID, updates models.FieldMap, userID string) (*models.Entity, error) {
			gotUpdates = updates
			return &models.Entity{ID: gotID, Category: category, Fields: updates}, nil
		},
	}
	mux := newEntityMux(t, svc, &mockExportService{})

	rec := doRequest(mux, http.MethodPatch, "/api/entities/raag/"+id.String()+"/fields",
		`{"fields": {"thaat": {"value": "Kalyan", "reference": "https://example.org"}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, gotUpdates, "thaat")
	assert.Equal(t, "Kalyan", gotUpdates["thaat"].Value)
}

func TestEntityVerifyField_RequiresFieldName(t *testing.T) {
	mux := newEntityMux(t, &mockEntityService{}, &mockExportService{})

	rec := doRequest(mux, http.MethodPost, "/api/entities/raag/"+uuid.NewString()+"/verify",
		`{"verified": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntityVerifyAll(t *testing.T) {
	called := false
	svc := &mockEntityService{
		VerifyAllFunc: func(ctx context.Context, category models.Category, id uuid.UUID, userID string) (*models.Entity, error) {
			called = true
			return &models.Entity{ID: id, Category: category}, nil
		},
	}
	mux := newEntityMux(t, svc, &mockExportService{})

	rec := doRequest(mux, http.MethodPost, "/api/entities/taal/"+uuid.NewString()+"/verify-all", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestEntityDelete(t *testing.T) {
	svc := &mockEntityService{
		DeleteFunc: func(ctx context.Context, category models.Category, id uuid.UUID, userID string) error {
			return nil
		},
	}
	mux := newEntityMux(t, svc, &mockExportService{})

	rec := doRequest(mux, http.MethodDelete, "/api/entities/artist/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEntityExport_ReturnsMarkdown(t *testing.T) {
	exportSvc := &mockExportService{
		ExportFunc: func(ctx context.Context, category models.Category, id uuid.UUID, userID string) (string, error) {
			return "# Yaman\n", nil
		},
	}
	mux := newEntityMux(t, &mockEntityService{}, exportSvc)

	rec := doRequest(mux, http.MethodGet, "/api/export/raag/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# Yaman\n", rec.Body.String())
}

// ServeMux rejects overlapping patterns at registration time, so the route
// table itself needs a test: register everything, then drive the two routes
// whose patterns are closest to colliding (by-name lookup and export).
func TestEntityRoutes_RegisterWithoutConflict(t *testing.T) {
	entitySvc := &mockEntityService{
		GetByNameFunc: func(ctx context.Context, category models.Category, name string) (*models.Entity, error) {
			return &models.Entity{Category: category, Name: name}, nil
		},
	}
	exportSvc := &mockExportService{
		ExportFunc: func(ctx context.Context, category models.Category, id uuid.UUID, userID string) (string, error) {
			return "# Export\n", nil
		},
	}

	mux := http.NewServeMux()
	require.NotPanics(t, func() {
		NewEntityHandler(entitySvc, exportSvc, zaptest.NewLogger(t)).RegisterRoutes(mux, passthrough)
	})

	rec := doRequest(mux, http.MethodGet, "/api/entities/raag/name/export", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)

	rec = doRequest(mux, http.MethodGet, "/api/export/raag/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Export\n", rec.Body.String())
}
