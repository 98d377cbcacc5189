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

// AllAboutRepository stores the standalone summary-mode snapshots: one row
// per search call, retained for audit history, never merged.
type AllAboutRepository interface {
	Create(ctx context.Context, snapshot *models.AllAboutSnapshot) error
	ListByCategory(ctx context.Context, category models.Category, searchQuery string, limit int) ([]*models.AllAboutSnapshot, error)
}

type allAboutRepository struct {
	db *database.DB
}

// NewAllAboutRepository creates a new AllAboutRepository.
func NewAllAboutRepository(db *database.DB) AllAboutRepository {
	return &allAboutRepository{db: db}
}

var _ AllAboutRepository = (*allAboutRepository)(nil)

func (r *allAboutRepository) Create(ctx context.Context, snapshot *models.AllAboutSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}

	answerJSON, err := json.Marshal(snapshot.Answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	imagesJSON, err := json.Marshal(snapshot.Images)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}
	sourcesJSON, err := json.Marshal(snapshot.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	citationsJSON, err := json.Marshal(snapshot.Citations)
	if err != nil {
		return fmt.Errorf("failed to marshal citations: %w", err)
	}
	questionsJSON, err := json.Marshal(snapshot.RelatedQuestions)
	if err != nil {
		return fmt.Errorf("failed to marshal related questions: %w", err)
	}
	metadataJSON, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO engine_all_about_snapshots (
			id, category, search_query, answer, images, sources, citations,
			related_questions, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		snapshot.ID, snapshot.Category, snapshot.SearchQuery,
		answerJSON, imagesJSON, sourcesJSON, citationsJSON,
		questionsJSON, metadataJSON, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	return nil
}

func (r *allAboutRepository) ListByCategory(ctx context.Context, category models.Category, searchQuery string, limit int) ([]*models.AllAboutSnapshot, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, category, search_query, answer, images, sources, citations,
		       related_questions, metadata, created_at
		FROM engine_all_about_snapshots
		WHERE category = $1 AND ($2 = '' OR LOWER(search_query) = LOWER($2))
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, category, searchQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*models.AllAboutSnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

func scanSnapshot(rows pgx.Rows) (*models.AllAboutSnapshot, error) {
	var s models.AllAboutSnapshot
	var answerJSON, imagesJSON, sourcesJSON, citationsJSON, questionsJSON, metadataJSON []byte

	err := rows.Scan(
		&s.ID, &s.Category, &s.SearchQuery,
		&answerJSON, &imagesJSON, &sourcesJSON, &citationsJSON,
		&questionsJSON, &metadataJSON, &s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	for _, pair := range []struct {
		raw []byte
		dst any
	}{
		{answerJSON, &s.Answer},
		{imagesJSON, &s.Images},
		{sourcesJSON, &s.Sources},
		{citationsJSON, &s.Citations},
		{questionsJSON, &s.RelatedQuestions},
		{metadataJSON, &s.Metadata},
	} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot column: %w", err)
		}
	}

	return &s, nil
}
