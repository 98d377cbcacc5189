package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/repositories"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// EntityService provides curation operations on stored entities: reads,
// manual field edits, verification, and deletion.
type EntityService interface {
	Get(ctx context.Context, category models.Category, id uuid.UUID) (*models.Entity, error)
	GetByName(ctx context.Context, category models.Category, name string) (*models.Entity, error)
	List(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error)

	// UpdateFields applies manual edits. Edited values are stamped
	// verified because a human typed them; unknown field names are
	// rejected.
	UpdateFields(ctx context.Context, category models.Category, id uuid.UUID, updates models.FieldMap, userID string) (*models.Entity, error)

	// SetVerified flips the verified flag on a single field without
	// touching its value or reference.
	SetVerified(ctx context.Context, category models.Category, id uuid.UUID, field string, verified bool, userID string) (*models.Entity, error)

	// VerifyAll marks every populated field verified in one pass.
	VerifyAll(ctx context.Context, category models.Category, id uuid.UUID, userID string) (*models.Entity, error)

	Delete(ctx context.Context, category models.Category, id uuid.UUID, userID string) error
}

type entityService struct {
	repo     repositories.EntityRepository
	activity ActivityService
	logger   *zap.Logger
}

// NewEntityService creates a new EntityService.
func NewEntityService(repo repositories.EntityRepository, activity ActivityService, logger *zap.Logger) EntityService {
	return &entityService{
		repo:     repo,
		activity: activity,
		logger:   logger.Named("entity-service"),
	}
}

var _ EntityService = (*entityService)(nil)

func (s *entityService) Get(ctx context.Context, category models.Category, id uuid.UUID) (*models.Entity, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Category != category {
		return nil, apperrors.ErrNotFound
	}
	return entity, nil
}

func (s *entityService) GetByName(ctx context.Context, category models.Category, name string) (*models.Entity, error) {
	entity, err := s.repo.GetByName(ctx, category, name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, apperrors.ErrNotFound
	}
	return entity, nil
}

func (s *entityService) List(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, category, limit, offset)
}

func (s *entityService) UpdateFields(ctx context.Context, category models.Category, id uuid.UUID, updates models.FieldMap, userID string) (*models.Entity, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no field updates provided", apperrors.ErrValidation)
	}

	categorySchema, err := schema.ForCategory(category)
	if err != nil {
		return nil, err
	}
	for name := range updates {
		if !categorySchema.Has(name) {
			return nil, fmt.Errorf("%w: unknown field %q for category %s", apperrors.ErrValidation, name, category)
		}
	}

	entity, err := s.Get(ctx, category, id)
	if err != nil {
		return nil, err
	}

	// Manual edits count as human review.
	stamped := make(models.FieldMap, len(updates))
	for name, fv := range updates {
		fv.Verified = true
		if fv.Reference == "" {
			fv.Reference = "Manually edited"
		}
		stamped[name] = fv
	}

	updated, err := s.repo.UpdateFields(ctx, entity.ID, stamped, userID)
	if err != nil {
		return nil, err
	}

	s.recordEdit(entity, models.ActivityActionFieldUpdate, fieldNames(stamped), userID)
	return updated, nil
}

func (s *entityService) SetVerified(ctx context.Context, category models.Category, id uuid.UUID, field string, verified bool, userID string) (*models.Entity, error) {
	entity, err := s.Get(ctx, category, id)
	if err != nil {
		return nil, err
	}

	fv, ok := entity.Fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: field %q not present on entity", apperrors.ErrValidation, field)
	}
	fv.Verified = verified

	updated, err := s.repo.UpdateFields(ctx, entity.ID, models.FieldMap{field: fv}, userID)
	if err != nil {
		return nil, err
	}

	s.recordEdit(entity, models.ActivityActionVerify, []string{field}, userID)
	return updated, nil
}

func (s *entityService) VerifyAll(ctx context.Context, category models.Category, id uuid.UUID, userID string) (*models.Entity, error) {
	entity, err := s.Get(ctx, category, id)
	if err != nil {
		return nil, err
	}

	updates := make(models.FieldMap)
	for name, fv := range entity.Fields {
		if fv.Verified || fv.Value == "" {
			continue
		}
		fv.Verified = true
		updates[name] = fv
	}
	if len(updates) == 0 {
		return entity, nil
	}

	updated, err := s.repo.UpdateFields(ctx, entity.ID, updates, userID)
	if err != nil {
		return nil, err
	}

	s.recordEdit(entity, models.ActivityActionBulkVerify, fieldNames(updates), userID)
	return updated, nil
}

func (s *entityService) Delete(ctx context.Context, category models.Category, id uuid.UUID, userID string) error {
	entity, err := s.Get(ctx, category, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, entity.ID); err != nil {
		return err
	}

	s.logger.Info("Entity deleted",
		zap.String("category", string(category)),
		zap.String("entity_id", id.String()),
		zap.String("name", entity.Name))

	s.recordEdit(entity, models.ActivityActionDelete, nil, userID)
	return nil
}

func (s *entityService) recordEdit(entity *models.Entity, action string, fields []string, userID string) {
	id := entity.ID
	s.activity.Record(&models.ActivityEntry{
		UserID:        userID,
		Category:      entity.Category,
		Action:        action,
		EntityID:      &id,
		EntityName:    entity.Name,
		FieldsTouched: fields,
		Success:       true,
		CreatedAt:     time.Now().UTC(),
	})
}

func fieldNames(m models.FieldMap) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
