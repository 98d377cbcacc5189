package services

import (
	"context"

	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/repositories"
)

// AllAboutService lists stored summary-mode snapshots for review.
type AllAboutService interface {
	List(ctx context.Context, category models.Category, searchQuery string, limit int) ([]*models.AllAboutSnapshot, error)
}

type allAboutService struct {
	repo repositories.AllAboutRepository
}

// NewAllAboutService creates a new AllAboutService.
func NewAllAboutService(repo repositories.AllAboutRepository) AllAboutService {
	return &allAboutService{repo: repo}
}

var _ AllAboutService = (*allAboutService)(nil)

func (s *allAboutService) List(ctx context.Context, category models.Category, searchQuery string, limit int) ([]*models.AllAboutSnapshot, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByCategory(ctx, category, searchQuery, limit)
}
