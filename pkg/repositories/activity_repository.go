package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/raagsetu/raag-engine/pkg/database"
	"github.com/raagsetu/raag-engine/pkg/models"
)

// ActivityRepository stores the request activity log.
type ActivityRepository interface {
	Create(ctx context.Context, entry *models.ActivityEntry) error
	List(ctx context.Context, category models.Category, limit int) ([]*models.ActivityEntry, error)
}

type activityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *database.DB) ActivityRepository {
	return &activityRepository{db: db}
}

var _ ActivityRepository = (*activityRepository)(nil)

func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	fieldsJSON, err := json.Marshal(entry.FieldsTouched)
	if err != nil {
		return fmt.Errorf("failed to marshal fields_touched: %w", err)
	}

	query := `
		INSERT INTO engine_activity_log (
			id, user_id, category, action, entity_id, entity_name,
			fields_touched, success, duration_ms, detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		entry.ID, nullableString(entry.UserID), entry.Category, entry.Action,
		entry.EntityID, entry.EntityName, fieldsJSON,
		entry.Success, entry.DurationMs, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

func (r *activityRepository) List(ctx context.Context, category models.Category, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, user_id, category, action, entity_id, entity_name,
		       fields_touched, success, duration_ms, detail, created_at
		FROM engine_activity_log
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.ActivityEntry, 0)
	for rows.Next() {
		e, err := scanActivityEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}

func scanActivityEntry(rows pgx.Rows) (*models.ActivityEntry, error) {
	var e models.ActivityEntry
	var userID *string
	var fieldsJSON []byte

	err := rows.Scan(
		&e.ID, &userID, &e.Category, &e.Action, &e.EntityID, &e.EntityName,
		&fieldsJSON, &e.Success, &e.DurationMs, &e.Detail, &e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity entry: %w", err)
	}

	if userID != nil {
		e.UserID = *userID
	}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &e.FieldsTouched); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields_touched: %w", err)
		}
	}

	return &e, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
