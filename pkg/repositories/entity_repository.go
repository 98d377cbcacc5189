package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/database"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/schema"
)

// UpsertOptions controls how a research merge treats existing data.
type UpsertOptions struct {
	// ModifiedBy stamps the acting user ("anonymous" when unauthenticated).
	ModifiedBy string

	// ForceOverwrite replaces fields even when a user has marked them
	// verified. The default (false) preserves verified fields, which
	// diverges deliberately from the legacy behavior of unconditional
	// replacement.
	ForceOverwrite bool
}

// EntityRepository provides data access for curated entities.
//
// Upsert-by-name is enforced at the application layer: the lookup and the
// write are not wrapped in a transaction and there is no unique index on
// (category, lower(name)), so two concurrent structured searches for the
// same previously-unknown name can race and create two entities. Known and
// documented, not fixed, because fixing it changes observable behavior
// under load.
type EntityRepository interface {
	// UpsertStructured looks up an entity by case-insensitive name within
	// the category and merges the normalized fields into it, creating it
	// when absent. Fields present in the payload replace the stored triple
	// wholesale (subject to UpsertOptions.ForceOverwrite).
	UpsertStructured(ctx context.Context, category models.Category, fields models.FieldMap, opts UpsertOptions) (*models.Entity, error)

	// MergeSummary attaches summary-mode data to an entity. A non-nil
	// entityID is resolved directly; on resolution failure (or uuid.Nil)
	// it falls back to name lookup, creating a placeholder entity when
	// none exists. The summary always replaces any prior one wholesale.
	MergeSummary(ctx context.Context, category models.Category, entityID uuid.UUID, name string, data *models.AllAboutData, opts UpsertOptions) (*models.Entity, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Entity, error)
	GetByName(ctx context.Context, category models.Category, name string) (*models.Entity, error)
	List(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error)

	// UpdateFields replaces the given field triples on an entity directly
	// (user edit/verification path, not a research merge).
	UpdateFields(ctx context.Context, id uuid.UUID, updates models.FieldMap, modifiedBy string) (*models.Entity, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

type entityRepository struct {
	db *database.DB
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(db *database.DB) EntityRepository {
	return &entityRepository{db: db}
}

var _ EntityRepository = (*entityRepository)(nil)

const entityColumns = `id, category, name, fields, all_about, created_by, modified_by, created_at, updated_at`

func (r *entityRepository) UpsertStructured(ctx context.Context, category models.Category, fields models.FieldMap, opts UpsertOptions) (*models.Entity, error) {
	nameField, ok := fields["name"]
	if !ok || nameField.Value == "" {
		return nil, fmt.Errorf("%w: missing required field name", apperrors.ErrValidation)
	}

	existing, err := r.GetByName(ctx, category, nameField.Value)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return r.create(ctx, category, nameField.Value, fields, nil, opts.ModifiedBy)
	}

	existing.Fields = models.ApplyFieldUpdates(existing.Fields, fields, !opts.ForceOverwrite)
	// The stored name follows the (possibly re-cased) incoming value unless
	// the name field itself is verified and preserved.
	existing.Name = existing.Fields["name"].Value
	existing.ModifiedBy = opts.ModifiedBy

	return r.update(ctx, existing)
}

func (r *entityRepository) MergeSummary(ctx context.Context, category models.Category, entityID uuid.UUID, name string, data *models.AllAboutData, opts UpsertOptions) (*models.Entity, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: missing summary data", apperrors.ErrValidation)
	}

	var entity *models.Entity

	if entityID != uuid.Nil {
		found, err := r.GetByID(ctx, entityID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		entity = found
	}

	if entity == nil {
		if name == "" {
			return nil, fmt.Errorf("%w: missing entity name for summary merge", apperrors.ErrValidation)
		}
		found, err := r.GetByName(ctx, category, name)
		if err != nil {
			return nil, err
		}
		entity = found
	}

	if entity == nil {
		s, err := schema.ForCategory(category)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownCategory, category)
		}
		fields := s.DefaultFields(schema.PlaceholderReference)
		fields["name"] = models.FieldValue{
			Value:     name,
			Reference: schema.PlaceholderReference,
			Verified:  false,
		}
		return r.create(ctx, category, name, fields, data, opts.ModifiedBy)
	}

	entity.AllAbout = data
	entity.ModifiedBy = opts.ModifiedBy
	return r.update(ctx, entity)
}

func (r *entityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM engine_entities WHERE id = $1`

	entity, err := scanEntity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entity %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return entity, nil
}

func (r *entityRepository) GetByName(ctx context.Context, category models.Category, name string) (*models.Entity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM engine_entities
		WHERE category = $1 AND LOWER(name) = LOWER($2)
		ORDER BY created_at
		LIMIT 1`

	entity, err := scanEntity(r.db.QueryRow(ctx, query, category, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return entity, nil
}

func (r *entityRepository) List(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + entityColumns + `
		FROM engine_entities
		WHERE category = $1
		ORDER BY LOWER(name)
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	entities := make([]*models.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}

	return entities, nil
}

func (r *entityRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates models.FieldMap, modifiedBy string) (*models.Entity, error) {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for name, fv := range updates {
		entity.Fields[name] = fv
	}
	if nameField, ok := entity.NameField(); ok && nameField.Value != "" {
		entity.Name = nameField.Value
	}
	entity.ModifiedBy = modifiedBy

	return r.update(ctx, entity)
}

func (r *entityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM engine_entities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("entity %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// ============================================================================
// Helper Functions - Write
// ============================================================================

func (r *entityRepository) create(ctx context.Context, category models.Category, name string, fields models.FieldMap, allAbout *models.AllAboutData, modifiedBy string) (*models.Entity, error) {
	now := time.Now()
	entity := &models.Entity{
		ID:         uuid.New(),
		Category:   category,
		Name:       name,
		Fields:     fields,
		AllAbout:   allAbout,
		CreatedBy:  modifiedBy,
		ModifiedBy: modifiedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	fieldsJSON, allAboutJSON, err := marshalEntityJSON(entity)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO engine_entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, query,
		entity.ID, entity.Category, entity.Name, fieldsJSON, allAboutJSON,
		entity.CreatedBy, entity.ModifiedBy, entity.CreatedAt, entity.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	return entity, nil
}

func (r *entityRepository) update(ctx context.Context, entity *models.Entity) (*models.Entity, error) {
	entity.UpdatedAt = time.Now()

	fieldsJSON, allAboutJSON, err := marshalEntityJSON(entity)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE engine_entities
		SET name = $2, fields = $3, all_about = $4, modified_by = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		entity.ID, entity.Name, fieldsJSON, allAboutJSON,
		entity.ModifiedBy, entity.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, fmt.Errorf("entity %s: %w", entity.ID, apperrors.ErrNotFound)
	}

	return entity, nil
}

func marshalEntityJSON(entity *models.Entity) ([]byte, []byte, error) {
	fieldsJSON, err := json.Marshal(entity.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	var allAboutJSON []byte
	if entity.AllAbout != nil {
		allAboutJSON, err = json.Marshal(entity.AllAbout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal all_about: %w", err)
		}
	}

	return fieldsJSON, allAboutJSON, nil
}

// ============================================================================
// Helper Functions - Scan
// ============================================================================

func scanEntity(row pgx.Row) (*models.Entity, error) {
	var e models.Entity
	var fieldsJSON []byte
	var allAboutJSON []byte

	err := row.Scan(
		&e.ID, &e.Category, &e.Name, &fieldsJSON, &allAboutJSON,
		&e.CreatedBy, &e.ModifiedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	if len(allAboutJSON) > 0 {
		e.AllAbout = &models.AllAboutData{}
		if err := json.Unmarshal(allAboutJSON, e.AllAbout); err != nil {
			return nil, fmt.Errorf("failed to unmarshal all_about: %w", err)
		}
	}

	return &e, nil
}
