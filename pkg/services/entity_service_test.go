package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/models"
)

func storedArtist(id uuid.UUID) *models.Entity {
	return &models.Entity{
		ID:       id,
		Category: models.CategoryArtist,
		Name:     "Ravi Shankar",
		Fields: models.FieldMap{
			"name":    {Value: "Ravi Shankar", Reference: "https://en.wikipedia.org/wiki/Ravi_Shankar", Verified: true},
			"guru":    {Value: "Allauddin Khan", Reference: "https://example.org/guru"},
			"gharana": {Value: "", Reference: "Information not found in available sources - use Structured Mode search to research this field"},
		},
	}
}

func newEntityFixture(t *testing.T, repo *mockEntityRepository) (EntityService, *mockActivityService) {
	t.Helper()
	activity := &mockActivityService{}
	return NewEntityService(repo, activity, zaptest.NewLogger(t)), activity
}

func TestEntityGet_CategoryMismatchIsNotFound(t *testing.T) {
	id := uuid.New()
	repo := &mockEntityRepository{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.Entity, error) {
			return storedArtist(id), nil
		},
	}
	svc, _ := newEntityFixture(t, repo)

	_, err := svc.Get(context.Background(), models.CategoryRaag, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound,
		"an artist fetched through the raag route must 404")
}

func TestEntityGetByName_MissIsNotFound(t *testing.T) {
	repo := &mockEntityRepository{} // GetByName defaults to (nil, nil)
	svc, _ := newEntityFixture(t, repo)

	_, err := svc.GetByName(context.Background(), models.CategoryArtist, "Nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEntityUpdateFields_StampsVerified(t *testing.T) {
	id := uuid.New()
	repo := &mockEntityRepository{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.Entity, error) {
			return storedArtist(id), nil
		},
	}
	var applied models.FieldMap
	repo.UpdateFieldsFunc = func(ctx context.Context, gotID uuid.UUID, updates models.FieldMap, modifiedBy string) (*models.Entity, error) {
		applied = updates
		assert.Equal(t, "curator@example.org", modifiedBy)
		return storedArtist(id), nil
	}
	svc, activity := newEntityFixture(t, repo)

	_, err := svc.UpdateFields(context.Background(), models.CategoryArtist, id,
		models.FieldMap{"guru": {Value: "Ustad Allauddin Khan", Reference: "https://example.org/corrected"}},
		"curator@example.org")
	require.NoError(t, err)

	assert.True(t, applied["guru"].Verified, "a human edit counts as verification")
	assert.Equal(t, "Ustad Allauddin Khan", applied["guru"].Value)

	require.Len(t, activity.Entries, 1)
	assert.Equal(t, models.ActivityActionFieldUpdate, activity.Entries[0].Action)
	assert.Equal(t, []string{"guru"}, activity.Entries[0].FieldsTouched)
}

func TestEntityUpdateFields_RejectsUnknownField(t *testing.T) {
	svc, _ := newEntityFixture(t, &mockEntityRepository{})

	_, err := svc.UpdateFields(context.Background(), models.CategoryArtist, uuid.New(),
		models.FieldMap{"favoriteColor": {Value: "blue"}}, "anyone")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestEntityUpdateFields_RejectsEmptyUpdate(t *testing.T) {
	svc, _ := newEntityFixture(t, &mockEntityRepository{})

	_, err := svc.UpdateFields(context.Background(), models.CategoryArtist, uuid.New(),
		models.FieldMap{}, "anyone")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestEntitySetVerified(t *testing.T) {
	id := uuid.New()
	repo := &mockEntityRepository{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.Entity, error) {
			return storedArtist(id), nil
		},
	}
	var applied models.FieldMap
	repo.UpdateFieldsFunc = func(ctx context.Context, gotID uuid.UUID, updates models.FieldMap, modifiedBy string) (*models.Entity, error) {
		applied = updates
		return storedArtist(id), nil
	}
	svc, _ := newEntityFixture(t, repo)

	_, err := svc.SetVerified(context.Background(), models.CategoryArtist, id, "guru", true, "curator")
	require.NoError(t, err)

	require.Contains(t, applied, "guru")
	assert.True(t, applied["guru"].Verified)
	assert.Equal(t, "Allauddin Khan", applied["guru"].Value, "value untouched")

	_, err = svc.SetVerified(context.Background(), models.CategoryArtist, id, "nonexistent", true, "curator")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestEntityVerifyAll_SkipsEmptyAndAlreadyVerified(t *testing.T) {
	id := uuid.New()
	repo := &mockEntityRepository{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.Entity, error) {
			return storedArtist(id), nil
		},
	}
	var applied models.FieldMap
	repo.UpdateFieldsFunc = func(ctx context.Context, gotID uuid.UUID, updates models.FieldMap, modifiedBy string) (*models.Entity, error) {
		applied = updates
		return storedArtist(id), nil
	}
	svc, _ := newEntityFixture(t, repo)

	_, err := svc.VerifyAll(context.Background(), models.CategoryArtist, id, "curator")
	require.NoError(t, err)

	assert.Len(t, applied, 1, "only guru: name already verified, gharana empty")
	assert.True(t, applied["guru"].Verified)
}

func TestEntityDelete_RecordsActivity(t *testing.T) {
	id := uuid.New()
	repo := &mockEntityRepository{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.Entity, error) {
			return storedArtist(id), nil
		},
	}
	svc, activity := newEntityFixture(t, repo)

	require.NoError(t, svc.Delete(context.Background(), models.CategoryArtist, id, "curator"))
	assert.Equal(t, 1, repo.DeleteCalls)
	require.Len(t, activity.Entries, 1)
	assert.Equal(t, models.ActivityActionDelete, activity.Entries[0].Action)
	assert.Equal(t, "Ravi Shankar", activity.Entries[0].EntityName)
}
