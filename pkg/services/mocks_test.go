package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/repositories"
)

// mockEntityRepository is a configurable repository mock. Set the function
// fields to control behavior; call counts track invocations.
type mockEntityRepository struct {
	UpsertStructuredFunc func(ctx context.Context, category models.Category, fields models.FieldMap, opts repositories.UpsertOptions) (*models.Entity, error)
	MergeSummaryFunc     func(ctx context.Context, category models.Category, entityID uuid.UUID, name string, data *models.AllAboutData, opts repositories.UpsertOptions) (*models.Entity, error)
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.Entity, error)
	GetByNameFunc        func(ctx context.Context, category models.Category, name string) (*models.Entity, error)
	ListFunc             func(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error)
	UpdateFieldsFunc     func(ctx context.Context, id uuid.UUID, updates models.FieldMap, modifiedBy string) (*models.Entity, error)
	DeleteFunc           func(ctx context.Context, id uuid.UUID) error

	UpsertStructuredCalls int
	MergeSummaryCalls     int
	UpdateFieldsCalls     int
	DeleteCalls           int
}

var _ repositories.EntityRepository = (*mockEntityRepository)(nil)

func (m *mockEntityRepository) UpsertStructured(ctx context.Context, category models.Category, fields models.FieldMap, opts repositories.UpsertOptions) (*models.Entity, error) {
	m.UpsertStructuredCalls++
	if m.UpsertStructuredFunc != nil {
		return m.UpsertStructuredFunc(ctx, category, fields, opts)
	}
	return &models.Entity{ID: uuid.New(), Category: category, Fields: fields}, nil
}

func (m *mockEntityRepository) MergeSummary(ctx context.Context, category models.Category, entityID uuid.UUID, name string, data *models.AllAboutData, opts repositories.UpsertOptions) (*models.Entity, error) {
	m.MergeSummaryCalls++
	if m.MergeSummaryFunc != nil {
		return m.MergeSummaryFunc(ctx, category, entityID, name, data, opts)
	}
	id := entityID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &models.Entity{ID: id, Category: category, Name: name, AllAbout: data}, nil
}

func (m *mockEntityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entity, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntityRepository) GetByName(ctx context.Context, category models.Category, name string) (*models.Entity, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, category, name)
	}
	return nil, nil
}

func (m *mockEntityRepository) List(ctx context.Context, category models.Category, limit, offset int) ([]*models.Entity, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, category, limit, offset)
	}
	return nil, nil
}

func (m *mockEntityRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates models.FieldMap, modifiedBy string) (*models.Entity, error) {
	m.UpdateFieldsCalls++
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, id, updates, modifiedBy)
	}
	return &models.Entity{ID: id, Fields: updates}, nil
}

func (m *mockEntityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockAllAboutRepository captures snapshot writes.
type mockAllAboutRepository struct {
	CreateFunc func(ctx context.Context, snapshot *models.AllAboutSnapshot) error

	Created []*models.AllAboutSnapshot
}

var _ repositories.AllAboutRepository = (*mockAllAboutRepository)(nil)

func (m *mockAllAboutRepository) Create(ctx context.Context, snapshot *models.AllAboutSnapshot) error {
	m.Created = append(m.Created, snapshot)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, snapshot)
	}
	return nil
}

func (m *mockAllAboutRepository) ListByCategory(ctx context.Context, category models.Category, searchQuery string, limit int) ([]*models.AllAboutSnapshot, error) {
	return nil, nil
}

// mockActivityService records entries synchronously so tests can assert on
// them without races.
type mockActivityService struct {
	mu      sync.Mutex
	Entries []*models.ActivityEntry
}

var _ ActivityService = (*mockActivityService)(nil)

func (m *mockActivityService) Record(entry *models.ActivityEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

func (m *mockActivityService) List(ctx context.Context, category models.Category, limit int) ([]*models.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Entries, nil
}

func (m *mockActivityService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Action
	}
	return out
}
