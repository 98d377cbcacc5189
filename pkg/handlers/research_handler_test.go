package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/services"
)

// passthrough stands in for the auth middleware in handler tests.
func passthrough(next http.HandlerFunc) http.HandlerFunc { return next }

type mockResearchService struct {
	SearchFunc  func(ctx context.Context, req services.SearchRequest) (*services.SearchResult, error)
	SearchCalls int
}

var _ services.ResearchService = (*mockResearchService)(nil)

func (m *mockResearchService) Search(ctx context.Context, req services.SearchRequest) (*services.SearchResult, error) {
	m.SearchCalls++
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, req)
	}
	return &services.SearchResult{}, nil
}

type mockScraperService struct {
	ScrapeFunc func(ctx context.Context, category models.Category, name, pageURL, userID string) (*models.Entity, error)
}

var _ services.ScraperService = (*mockScraperService)(nil)

func (m *mockScraperService) Scrape(ctx context.Context, category models.Category, name, pageURL, userID string) (*models.Entity, error) {
	if m.ScrapeFunc != nil {
		return m.ScrapeFunc(ctx, category, name, pageURL, userID)
	}
	return &models.Entity{Category: category, Name: name}, nil
}

func newResearchMux(t *testing.T, research *mockResearchService, scraper *mockScraperService) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewResearchHandler(research, scraper, zaptest.NewLogger(t)).RegisterRoutes(mux, passthrough)
	return mux
}

func postJSON(mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ApiResponse {
	t.Helper()
	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestResearch_UnknownCategory(t *testing.T) {
	mux := newResearchMux(t, &mockResearchService{}, &mockScraperService{})

	rec := postJSON(mux, "/api/research/composer", `{"name":"X","provider":"openai","useStructured":true}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_category", decodeEnvelope(t, rec).Error)
}

func TestResearch_UnknownProvider(t *testing.T) {
	svc := &mockResearchService{}
	mux := newResearchMux(t, svc, &mockScraperService{})

	rec := postJSON(mux, "/api/research/raag", `{"name":"Yaman","provider":"claude","useStructured":true}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_provider", decodeEnvelope(t, rec).Error)
	assert.Zero(t, svc.SearchCalls)
}

func TestResearch_Success(t *testing.T) {
	svc := &mockResearchService{
		SearchFunc: func(ctx context.Context, req services.SearchRequest) (*services.SearchResult, error) {
			assert.Equal(t, models.CategoryRaag, req.Category)
			assert.Equal(t, "Yaman", req.Name)
			assert.True(t, req.UseStructured)
			assert.True(t, req.UseSummary)
			assert.True(t, req.Force)
			assert.Equal(t, "anonymous", req.UserID)
			return &services.SearchResult{
				Entity:        &models.Entity{ID: uuid.New(), Category: req.Category, Name: req.Name},
				StructuredRan: true,
				SummaryRan:    true,
			}, nil
		},
	}
	mux := newResearchMux(t, svc, &mockScraperService{})

	rec := postJSON(mux, "/api/research/raag",
		`{"name":"Yaman","provider":"perplexity","useStructured":true,"useSummary":true,"force":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestResearch_StructuredFailure(t *testing.T) {
	svc := &mockResearchService{
		SearchFunc: func(ctx context.Context, req services.SearchRequest) (*services.SearchResult, error) {
			return nil, &services.SearchError{Phase: services.PhaseStructured, Err: errors.New("upstream 500")}
		},
	}
	mux := newResearchMux(t, svc, &mockScraperService{})

	rec := postJSON(mux, "/api/research/artist", `{"name":"X","provider":"openai","useStructured":true}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "structured_search_failed", resp.Error)
}

func TestResearch_PartialSummaryFailureReturnsEntity(t *testing.T) {
	entity := &models.Entity{ID: uuid.New(), Category: models.CategoryArtist, Name: "Ravi Shankar"}
	svc := &mockResearchService{
		SearchFunc: func(ctx context.Context, req services.SearchRequest) (*services.SearchResult, error) {
			return &services.SearchResult{Entity: entity, StructuredRan: true},
				&services.SearchError{Phase: services.PhaseSummary, Err: errors.New("timeout")}
		},
	}
	mux := newResearchMux(t, svc, &mockScraperService{})

	rec := postJSON(mux, "/api/research/artist",
		`{"name":"Ravi Shankar","provider":"perplexity","useStructured":true,"useSummary":true}`)

	assert.Equal(t, http.StatusOK, rec.Code, "partial failure still carries committed data")
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "summary_search_failed", resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestScrapeEndpoint(t *testing.T) {
	scraper := &mockScraperService{
		ScrapeFunc: func(ctx context.Context, category models.Category, name, pageURL, userID string) (*models.Entity, error) {
			assert.Equal(t, models.CategoryTaal, category)
			assert.Equal(t, "Teentaal", name)
			assert.Equal(t, "https://example.org/teentaal", pageURL)
			return &models.Entity{Category: category, Name: name}, nil
		},
	}
	mux := newResearchMux(t, &mockResearchService{}, scraper)

	rec := postJSON(mux, "/api/scrape/taal", `{"name":"Teentaal","url":"https://example.org/teentaal"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}
