package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raagsetu/raag-engine/pkg/apperrors"
	"github.com/raagsetu/raag-engine/pkg/models"
	"github.com/raagsetu/raag-engine/pkg/testhelpers"
)

func yamanFields() models.FieldMap {
	return models.FieldMap{
		"name":  {Value: "Yaman", Reference: "https://en.wikipedia.org/wiki/Yaman_(raga)"},
		"thaat": {Value: "Kalyan", Reference: "https://en.wikipedia.org/wiki/Kalyan_thaat"},
	}
}

func TestEntityRepository_UpsertAndGet(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEntityRepository(tdb.NewDB())
	ctx := context.Background()

	created, err := repo.UpsertStructured(ctx, models.CategoryRaag, yamanFields(), UpsertOptions{ModifiedBy: "tester"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Yaman", created.Name)
	assert.Equal(t, "tester", created.CreatedBy)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kalyan", got.Fields["thaat"].Value)
}

func TestEntityRepository_UpsertIsIdempotentByName(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEntityRepository(tdb.NewDB())
	ctx := context.Background()

	first, err := repo.UpsertStructured(ctx, models.CategoryRaag, yamanFields(), UpsertOptions{ModifiedBy: "a"})
	require.NoError(t, err)

	// Same name, different case: must hit the same row.
	fields := yamanFields()
	fields["name"] = models.FieldValue{Value: "YAMAN", Reference: "https://example.org"}
	fields["mood"] = models.FieldValue{Value: "romantic", Reference: "https://example.org"}

	second, err := repo.UpsertStructured(ctx, models.CategoryRaag, fields, UpsertOptions{ModifiedBy: "b"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "YAMAN", second.Name, "stored name follows the latest merge")
	assert.Equal(t, "romantic", second.Fields["mood"].Value)

	all, err := repo.List(ctx, models.CategoryRaag, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEntityRepository_UpsertPreservesVerifiedFields(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEntityRepository(tdb.NewDB())
	ctx := context.Background()

	created, err := repo.UpsertStructured(ctx, models.CategoryRaag, yamanFields(), UpsertOptions{ModifiedBy: "tester"})
	require.NoError(t, err)

	// User verifies the thaat field.
	verified := created.Fields["thaat"]
	verified.Verified = true
	_, err = repo.UpdateFields(ctx, created.ID, models.FieldMap{"thaat": verified}, "curator")
	require.NoError(t, err)

	// A new research pass must not clobber it...
	overwrite := yamanFields()
	overwrite["thaat"] = models.FieldValue{Value: "Bilawal", Reference: "https://wrong.example"}
	merged, err := repo.UpsertStructured(ctx, models.CategoryRaag, overwrite, UpsertOptions{ModifiedBy: "tester"})
	require.NoError(t, err)
	assert.Equal(t, "Kalyan", merged.Fields["thaat"].Value)
	assert.True(t, merged.Fields["thaat"].Verified)

	// ...unless the overwrite is forced.
	forced, err := repo.UpsertStructured(ctx, models.CategoryRaag, overwrite, UpsertOptions{ModifiedBy: "tester", ForceOverwrite: true})
	require.NoError(t, err)
	assert.Equal(t, "Bilawal", forced.Fields["thaat"].Value)
	assert.False(t, forced.Fields["thaat"].Verified)
}

func TestEntityRepository_UpsertRequiresName(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewEntityRepository(tdb.NewDB())

	_, err := repo.UpsertStructured(context.Background(), models.CategoryRaag,
		models.FieldMap{"thaat": {Value: "Kafi"}}, UpsertOptions{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func summaryData() *models.AllAboutData {
	return &models.AllAboutData{
		Answer:  models.FieldValue{Value: "Yaman is a foundational evening raag."},
		Sources: []models.Source{{URL: "https://en.wikipedia.org/wiki/Yaman_(raga)", Domain: "en.wikipedia.org"}},
		Metadata: models.SummaryMetadata{
			AIProvider: "perplexity", AIModel: "sonar-pro",
		},
	}
}

func TestEntityRepository_MergeSummaryByID(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEntityRepository(tdb.NewDB())
	ctx := context.Background()

	created, err := repo.UpsertStructured(ctx, models.CategoryRaag, yamanFields(), UpsertOptions{ModifiedBy: "tester"})
	require.NoError(t, err)

	merged, err := repo.MergeSummary(ctx, models.CategoryRaag, created.ID, "Yaman", summaryData(), UpsertOptions{ModifiedBy: "tester"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, merged.ID)
	require.NotNil(t, merged.AllAbout)
	assert.Contains(t, merged.AllAbout.Answer.Value, "evening raag")

	// Structured fields survive the summary merge untouched.
	assert.Equal(t, "Kalyan", merged.Fields["thaat"].Value)
}

func TestEntityRepository_MergeSummaryCreatesPlaceholder(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEntityRepository(tdb.NewDB())
	ctx := context.Background()

	merged, err := repo.MergeSummary(ctx, models.CategoryRaag, uuid.Nil, "Marwa", summaryData(), UpsertOptions{ModifiedBy: "tester"})
	require.NoError(t, err)

	assert.Equal(t, "Marwa", merged.Name)
	require.NotNil(t, merged.AllAbout)
	assert.Equal(t, "Marwa", merged.Fields["name"].Value)
	// Placeholder fields direct the user to structured mode.
	assert.Empty(t, merged.Fields["thaat"].Value)
	assert.Contains(t, merged.Fields["thaat"].Reference, "Structured Mode")
}

func TestEntityRepository_MergeSummaryReplacesWholesale(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEntityRepository(tdb.NewDB())
	ctx := context.Background()

	first, err := repo.MergeSummary(ctx, models.CategoryRaag, uuid.Nil, "Yaman", summaryData(), UpsertOptions{})
	require.NoError(t, err)

	replacement := &models.AllAboutData{
		Answer:   models.FieldValue{Value: "A newer, shorter answer."},
		Metadata: models.SummaryMetadata{AIProvider: "openai", AIModel: "gpt-4o"},
	}
	second, err := repo.MergeSummary(ctx, models.CategoryRaag, first.ID, "Yaman", replacement, UpsertOptions{})
	require.NoError(t, err)

	assert.Equal(t, "A newer, shorter answer.", second.AllAbout.Answer.Value)
	assert.Empty(t, second.AllAbout.Sources, "old sources never accumulate")
	assert.Equal(t, "openai", second.AllAbout.Metadata.AIProvider)
}

func TestEntityRepository_Delete(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	repo := NewEntityRepository(tdb.NewDB())
	ctx := context.Background()

	created, err := repo.UpsertStructured(ctx, models.CategoryRaag, yamanFields(), UpsertOptions{})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), apperrors.ErrNotFound)
}
