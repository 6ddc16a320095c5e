package db

import (
	"database/sql"
	"fmt"
)

// Snowflake IDs, so no AUTOINCREMENT. Metadata is a JSON object.
const baseSchema = `
CREATE TABLE IF NOT EXISTS translations (
  id INTEGER PRIMARY KEY,
  input_text TEXT NOT NULL,
  translated_text TEXT NOT NULL DEFAULT '',
  source_language TEXT NOT NULL DEFAULT 'auto',
  target_language TEXT NOT NULL,
  created_at TEXT NOT NULL,
  model_used TEXT NOT NULL DEFAULT '',
  metadata TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_translations_created_at ON translations(created_at);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	// Listing filters hit these columns together.
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_translations_languages'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check languages index: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`CREATE INDEX idx_translations_languages ON translations(source_language, target_language)`); err != nil {
			return fmt.Errorf("add languages index: %w", err)
		}
	}
	return nil
}
