package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"verso/internal/db"
	"verso/internal/model"
	"verso/internal/repository"
	"verso/internal/snowflake"
)

// NewTestDB opens a migrated SQLite database in a temp dir, closed on cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewTranslationRepository returns a SQLite-backed repository on a fresh database.
func NewTranslationRepository(t *testing.T) repository.TranslationRepository {
	t.Helper()
	ids, err := snowflake.New(1)
	require.NoError(t, err)
	return repository.NewSQLiteTranslationRepository(NewTestDB(t), ids)
}

// SeedTranslation inserts a record with sensible defaults for empty fields.
func SeedTranslation(t *testing.T, repo repository.TranslationRepository, in model.TranslationCreate) model.Translation {
	t.Helper()
	if in.InputText == "" {
		in.InputText = "Hello"
	}
	if in.TranslatedText == "" {
		in.TranslatedText = "Hallo"
	}
	if in.SourceLanguage == "" {
		in.SourceLanguage = "en"
	}
	if in.TargetLanguage == "" {
		in.TargetLanguage = "de"
	}
	if in.ModelUsed == "" {
		in.ModelUsed = "Helsinki-NLP/opus-mt-en-de"
	}
	created, err := repo.Create(t.Context(), in)
	require.NoError(t, err)
	return created
}
