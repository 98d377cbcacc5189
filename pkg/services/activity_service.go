package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/repositories"
)

// ActivityService records and lists request activity. Record is
// fire-and-forget: it must never delay or fail the request that triggered
// it, so writes happen on a background goroutine with their own deadline.
type ActivityService interface {
	Record(entry *models.ActivityEntry)
	List(ctx context.Context, category models.Category, limit int) ([]*models.ActivityEntry, error)
}

type activityService struct {
	repo   repositories.ActivityRepository
	logger *zap.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(repo repositories.ActivityRepository, logger *zap.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.Named("activity-service"),
	}
}

var _ ActivityService = (*activityService)(nil)

func (s *activityService) Record(entry *models.ActivityEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.Create(ctx, entry); err != nil {
			s.logger.Warn("Failed to record activity",
				zap.String("action", entry.Action),
				zap.String("category", string(entry.Category)),
				zap.Error(err))
		}
	}()
}

func (s *activityService) List(ctx context.Context, category models.Category, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, category, limit)
}
