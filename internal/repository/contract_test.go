package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verso/internal/model"
	"verso/internal/repository"
	"verso/internal/repository/testutil"
)

// repoFactory builds an empty repository plus an id that is well formed for
// that backend but never issued.
type repoFactory func(t *testing.T) (repo repository.TranslationRepository, missingID string)

func runTranslationRepositoryContract(t *testing.T, newRepo repoFactory) {
	t.Run("CreateReadsBack", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()

		before := time.Now().UTC().Add(-time.Second)
		created, err := repo.Create(ctx, model.TranslationCreate{
			InputText:      "Hello",
			TranslatedText: "Hallo",
			SourceLanguage: "en",
			TargetLanguage: "de",
			ModelUsed:      "opus-mt-en-de",
			Metadata:       map[string]any{"client": "web"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		require.Equal(t, "Hello", created.InputText)
		require.Equal(t, "Hallo", created.TranslatedText)
		require.Equal(t, "web", created.Metadata["client"])
		require.True(t, created.CreatedAt.After(before))
		require.Equal(t, time.UTC, created.CreatedAt.Location())

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		require.Equal(t, created.ID, fetched.ID)
		require.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
		require.Equal(t, created.InputText, fetched.InputText)
	})

	t.Run("CreateNilMetadataIsEmptyMap", func(t *testing.T) {
		repo, _ := newRepo(t)
		created := testutil.SeedTranslation(t, repo, model.TranslationCreate{})
		require.NotNil(t, created.Metadata)
		require.Empty(t, created.Metadata)
	})

	t.Run("GetByIDAbsent", func(t *testing.T) {
		repo, missingID := newRepo(t)
		ctx := context.Background()

		for _, id := range []string{missingID, "not-an-id", ""} {
			got, err := repo.GetByID(ctx, id)
			require.NoError(t, err, "id %q", id)
			require.Nil(t, got, "id %q", id)
		}
	})

	t.Run("ListInsertionOrderAndPaging", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()

		var ids []string
		for _, text := range []string{"one", "two", "three", "four", "five"} {
			ids = append(ids, testutil.SeedTranslation(t, repo, model.TranslationCreate{InputText: text}).ID)
		}

		page, err := repo.List(ctx, 0, 3, model.TranslationFilter{})
		require.NoError(t, err)
		require.Len(t, page, 3)
		require.Equal(t, ids[0], page[0].ID)
		require.Equal(t, ids[2], page[2].ID)

		page, err = repo.List(ctx, 3, 10, model.TranslationFilter{})
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.Equal(t, ids[3], page[0].ID)

		for i := 1; i < len(page); i++ {
			require.False(t, page[i].CreatedAt.Before(page[i-1].CreatedAt), "created_at must not decrease")
		}

		page, err = repo.List(ctx, 10, 10, model.TranslationFilter{})
		require.NoError(t, err)
		require.Empty(t, page)

		total, err := repo.Count(ctx, model.TranslationFilter{})
		require.NoError(t, err)
		require.Equal(t, int64(5), total)
	})

	t.Run("ListFilter", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()

		testutil.SeedTranslation(t, repo, model.TranslationCreate{SourceLanguage: "en", TargetLanguage: "de"})
		testutil.SeedTranslation(t, repo, model.TranslationCreate{SourceLanguage: "en", TargetLanguage: "fr"})
		testutil.SeedTranslation(t, repo, model.TranslationCreate{SourceLanguage: "es", TargetLanguage: "de"})

		filter := model.TranslationFilter{TargetLanguage: "de"}
		page, err := repo.List(ctx, 0, 10, filter)
		require.NoError(t, err)
		require.Len(t, page, 2)

		total, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		require.Equal(t, int64(2), total)

		total, err = repo.Count(ctx, model.TranslationFilter{SourceLanguage: "en", TargetLanguage: "fr"})
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()
		created := testutil.SeedTranslation(t, repo, model.TranslationCreate{
			Metadata: map[string]any{"v": "1"},
		})

		updated, err := repo.Update(ctx, created.ID, model.TranslationUpdate{
			Metadata: map[string]any{"reviewed": true},
		})
		require.NoError(t, err)
		require.NotNil(t, updated)
		require.Equal(t, created.TranslatedText, updated.TranslatedText)
		require.Equal(t, created.InputText, updated.InputText)
		require.Equal(t, created.ID, updated.ID)
		require.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		require.Equal(t, true, updated.Metadata["reviewed"])

		fixed := "Guten Tag"
		updated, err = repo.Update(ctx, created.ID, model.TranslationUpdate{TranslatedText: &fixed})
		require.NoError(t, err)
		require.Equal(t, "Guten Tag", updated.TranslatedText)
		require.Equal(t, true, updated.Metadata["reviewed"], "omitted metadata is untouched")

		unchanged, err := repo.Update(ctx, created.ID, model.TranslationUpdate{})
		require.NoError(t, err)
		require.Equal(t, "Guten Tag", unchanged.TranslatedText)
	})

	t.Run("UpdateAbsent", func(t *testing.T) {
		repo, missingID := newRepo(t)
		text := "x"
		for _, id := range []string{missingID, "not-an-id"} {
			got, err := repo.Update(context.Background(), id, model.TranslationUpdate{TranslatedText: &text})
			require.NoError(t, err)
			require.Nil(t, got)
		}
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		repo, missingID := newRepo(t)
		ctx := context.Background()
		created := testutil.SeedTranslation(t, repo, model.TranslationCreate{})

		deleted, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, deleted)

		deleted, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		require.False(t, deleted)

		for _, id := range []string{missingID, "not-an-id"} {
			deleted, err = repo.Delete(ctx, id)
			require.NoError(t, err)
			require.False(t, deleted)
		}

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("Ping", func(t *testing.T) {
		repo, _ := newRepo(t)
		require.NoError(t, repo.Ping(context.Background()))
	})
}
