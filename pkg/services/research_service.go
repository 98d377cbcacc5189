package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/normalize"
	"github.com/raagsetu/raag-engine/pkg/repositories"
	"github.com/raagsetu/raag-engine/pkg/research"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// SearchPhase labels which half of a combined search an error belongs to.
type SearchPhase string

const (
	PhaseStructured SearchPhase = "structured"
	PhaseSummary    SearchPhase = "summary"
)

// SearchError wraps a provider or persistence failure with the phase it
// occurred in, so callers can distinguish a total failure (structured phase,
// nothing committed) from a partial one (summary phase, structured data
// already committed).
type SearchError struct {
	Phase SearchPhase
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s search failed: %v", e.Phase, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// SearchRequest is one research request against a provider.
type SearchRequest struct {
	Category  models.Category
	Name      string
	Provider  research.Provider
	ModelHint string

	UseStructured bool
	UseSummary    bool

	// Force overwrites user-verified fields during the structured merge.
	Force bool

	UserID string
}

// SearchResult reports what a search actually did. Entity is non-nil
// whenever at least one phase committed data.
type SearchResult struct {
	Entity        *models.Entity `json:"entity"`
	StructuredRan bool           `json:"structuredRan"`
	SummaryRan    bool           `json:"summaryRan"`
}

// ResearchService runs structured and summary searches against the
// configured AI providers and persists the results.
type ResearchService interface {
	// Search runs the requested modes in order: structured first, then
	// summary. A structured failure aborts before summary runs. A summary
	// failure after a successful structured phase returns both the
	// committed result and the error; structured data is never rolled
	// back.
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
}

type researchService struct {
	providers *research.Registry
	entities  repositories.EntityRepository
	snapshots repositories.AllAboutRepository
	activity  ActivityService
	logger    *zap.Logger
}

// NewResearchService creates a new ResearchService.
func NewResearchService(
	providers *research.Registry,
	entities repositories.EntityRepository,
	snapshots repositories.AllAboutRepository,
	activity ActivityService,
	logger *zap.Logger,
) ResearchService {
	return &researchService{
		providers: providers,
		entities:  entities,
		snapshots: snapshots,
		activity:  activity,
		logger:    logger.Named("research-service"),
	}
}

var _ ResearchService = (*researchService)(nil)

func (s *researchService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if !req.UseStructured && !req.UseSummary {
		return nil, fmt.Errorf("%w: at least one of structured or summary mode must be enabled", apperrors.ErrValidation)
	}

	adapter, ok := s.providers.Get(req.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provider %q", apperrors.ErrValidation, req.Provider)
	}

	categorySchema, err := schema.ForCategory(req.Category)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{}
	opts := repositories.UpsertOptions{ModifiedBy: req.UserID, ForceOverwrite: req.Force}

	// The structured phase runs first and its entity ID, when available,
	// threads into the summary merge so both modes land on the same row.
	entityID := uuid.Nil

	if req.UseStructured {
		entity, err := s.runStructured(ctx, adapter, categorySchema, req, opts)
		if err != nil {
			return nil, &SearchError{Phase: PhaseStructured, Err: err}
		}
		result.Entity = entity
		result.StructuredRan = true
		entityID = entity.ID
	}

	if req.UseSummary {
		entity, err := s.runSummary(ctx, adapter, req, entityID, opts)
		if err != nil {
			// Structured data (if any) stays committed.
			return result, &SearchError{Phase: PhaseSummary, Err: err}
		}
		result.Entity = entity
		result.SummaryRan = true
	}

	return result, nil
}

func (s *researchService) runStructured(
	ctx context.Context,
	adapter research.Adapter,
	categorySchema *schema.CategorySchema,
	req SearchRequest,
	opts repositories.UpsertOptions,
) (*models.Entity, error) {
	start := time.Now()

	raw, err := adapter.Research(ctx, req.Name, categorySchema, req.ModelHint)
	if err != nil {
		s.recordSearch(req, models.ActivityActionStructuredSearch, nil, start, err)
		return nil, fmt.Errorf("provider research call failed: %w", err)
	}

	fields, err := normalize.Normalize(raw, categorySchema)
	if err != nil {
		s.recordSearch(req, models.ActivityActionStructuredSearch, nil, start, err)
		return nil, fmt.Errorf("failed to normalize provider response: %w", err)
	}

	// Sloppy providers sometimes omit the name field. The searched-for name
	// is authoritative anyway, so seed it rather than fail the whole run.
	if nameField := fields["name"]; strings.TrimSpace(nameField.Value) == "" {
		nameField.Value = req.Name
		nameField.Reference = fmt.Sprintf("%s search", adapter.Provider())
		fields["name"] = nameField
	}

	entity, err := s.entities.UpsertStructured(ctx, req.Category, fields, opts)
	if err != nil {
		s.recordSearch(req, models.ActivityActionStructuredSearch, nil, start, err)
		return nil, fmt.Errorf("failed to persist structured result: %w", err)
	}

	s.logger.Info("Structured search completed",
		zap.String("category", string(req.Category)),
		zap.String("name", req.Name),
		zap.String("provider", string(adapter.Provider())),
		zap.String("entity_id", entity.ID.String()),
		zap.Duration("duration", time.Since(start)))

	s.recordSearch(req, models.ActivityActionStructuredSearch, entity, start, nil)
	return entity, nil
}

func (s *researchService) runSummary(
	ctx context.Context,
	adapter research.Adapter,
	req SearchRequest,
	entityID uuid.UUID,
	opts repositories.UpsertOptions,
) (*models.Entity, error) {
	start := time.Now()
	query := research.BuildSummaryQuery(req.Name, req.Category)

	summary, err := adapter.Summarize(ctx, req.Name, req.Category)
	if err != nil {
		s.recordSearch(req, models.ActivityActionSummarySearch, nil, start, err)
		return nil, fmt.Errorf("provider summary call failed: %w", err)
	}

	model := summary.Model
	if model == "" {
		model = adapter.Model()
	}

	data := &models.AllAboutData{
		Answer: models.FieldValue{
			Value:     summary.Answer,
			Reference: fmt.Sprintf("%s search", adapter.Provider()),
			Verified:  false,
		},
		Images:           summary.Images,
		Sources:          summary.Sources,
		Citations:        summary.Citations,
		RelatedQuestions: summary.RelatedQuestions,
		Metadata: models.SummaryMetadata{
			AIProvider:  string(adapter.Provider()),
			AIModel:     model,
			SearchQuery: query,
			Timestamp:   time.Now().UTC(),
		},
	}

	// The snapshot is an audit record; losing one must not fail the search.
	snapshot := &models.AllAboutSnapshot{
		ID:               uuid.New(),
		Category:         req.Category,
		SearchQuery:      req.Name,
		Answer:           data.Answer,
		Images:           data.Images,
		Sources:          data.Sources,
		Citations:        data.Citations,
		RelatedQuestions: data.RelatedQuestions,
		Metadata:         data.Metadata,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		s.logger.Warn("Failed to store summary snapshot",
			zap.String("category", string(req.Category)),
			zap.String("name", req.Name),
			zap.Error(err))
	}

	entity, err := s.entities.MergeSummary(ctx, req.Category, entityID, req.Name, data, opts)
	if err != nil {
		s.recordSearch(req, models.ActivityActionSummarySearch, nil, start, err)
		return nil, fmt.Errorf("failed to persist summary result: %w", err)
	}

	s.logger.Info("Summary search completed",
		zap.String("category", string(req.Category)),
		zap.String("name", req.Name),
		zap.String("provider", string(adapter.Provider())),
		zap.String("model", model),
		zap.String("entity_id", entity.ID.String()),
		zap.Int("citations", len(summary.Citations)),
		zap.Duration("duration", time.Since(start)))

	s.recordSearch(req, models.ActivityActionSummarySearch, entity, start, nil)
	return entity, nil
}

func (s *researchService) recordSearch(req SearchRequest, action string, entity *models.Entity, start time.Time, err error) {
	entry := &models.ActivityEntry{
		UserID:     req.UserID,
		Category:   req.Category,
		Action:     action,
		EntityName: req.Name,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if entity != nil {
		id := entity.ID
		entry.EntityID = &id
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	s.activity.Record(entry)
}
