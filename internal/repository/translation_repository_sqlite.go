package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"verso/internal/model"
	"verso/internal/snowflake"
)

type sqliteTranslationRepository struct {
	db    dbtx
	ids   *snowflake.Generator
	clock *clock
}

// NewSQLiteTranslationRepository stores records in the embedded SQLite
// database, keyed by snowflake IDs.
func NewSQLiteTranslationRepository(db dbtx, ids *snowflake.Generator) TranslationRepository {
	return &sqliteTranslationRepository{db: db, ids: ids, clock: newClock()}
}

const translationColumns = `id, input_text, translated_text, source_language, target_language, created_at, model_used, metadata`

func (r *sqliteTranslationRepository) Create(ctx context.Context, in model.TranslationCreate) (model.Translation, error) {
	id := r.ids.Next()
	metadata, err := encodeMetadata(in.Metadata)
	if err != nil {
		return model.Translation{}, err
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO translations (`+translationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.InputText, in.TranslatedText, in.SourceLanguage, in.TargetLanguage,
		formatTime(r.clock.Now()), in.ModelUsed, metadata,
	)
	if err != nil {
		return model.Translation{}, fmt.Errorf("insert translation: %w", err)
	}

	created, err := r.getByID(ctx, id)
	if err != nil {
		return model.Translation{}, fmt.Errorf("read back translation: %w", err)
	}
	if created == nil {
		return model.Translation{}, fmt.Errorf("read back translation %d: not found", id)
	}
	return *created, nil
}

func (r *sqliteTranslationRepository) GetByID(ctx context.Context, id string) (*model.Translation, error) {
	key, ok := snowflake.Parse(id)
	if !ok {
		return nil, nil
	}
	return r.getByID(ctx, key)
}

func (r *sqliteTranslationRepository) getByID(ctx context.Context, id int64) (*model.Translation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+translationColumns+` FROM translations WHERE id = ?`, id)
	t, err := scanTranslation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *sqliteTranslationRepository) List(ctx context.Context, skip, limit int, filter model.TranslationFilter) ([]model.Translation, error) {
	skip, limit = clampPage(skip, limit)
	where, args := sqliteFilter(filter)
	args = append(args, limit, skip)

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+translationColumns+` FROM translations`+where+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	translations := make([]model.Translation, 0, limit)
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		translations = append(translations, t)
	}
	return translations, rows.Err()
}

func (r *sqliteTranslationRepository) Count(ctx context.Context, filter model.TranslationFilter) (int64, error) {
	where, args := sqliteFilter(filter)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return total, nil
}

func (r *sqliteTranslationRepository) Update(ctx context.Context, id string, upd model.TranslationUpdate) (*model.Translation, error) {
	key, ok := snowflake.Parse(id)
	if !ok {
		return nil, nil
	}
	if upd.Empty() {
		return r.getByID(ctx, key)
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if upd.InputText != nil {
		set("input_text", *upd.InputText)
	}
	if upd.TranslatedText != nil {
		set("translated_text", *upd.TranslatedText)
	}
	if upd.SourceLanguage != nil {
		set("source_language", *upd.SourceLanguage)
	}
	if upd.TargetLanguage != nil {
		set("target_language", *upd.TargetLanguage)
	}
	if upd.ModelUsed != nil {
		set("model_used", *upd.ModelUsed)
	}
	if upd.Metadata != nil {
		metadata, err := encodeMetadata(upd.Metadata)
		if err != nil {
			return nil, err
		}
		set("metadata", metadata)
	}
	args = append(args, key)

	result, err := r.db.ExecContext(ctx, `UPDATE translations SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update translation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return r.getByID(ctx, key)
}

func (r *sqliteTranslationRepository) Delete(ctx context.Context, id string) (bool, error) {
	key, ok := snowflake.Parse(id)
	if !ok {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM translations WHERE id = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete translation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *sqliteTranslationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranslation(s rowScanner) (model.Translation, error) {
	var t model.Translation
	var id int64
	var createdAt, metadata string
	if err := s.Scan(&id, &t.InputText, &t.TranslatedText, &t.SourceLanguage, &t.TargetLanguage, &createdAt, &t.ModelUsed, &metadata); err != nil {
		return t, err
	}
	t.ID = snowflake.Format(id)
	created, err := parseTime(createdAt)
	if err != nil {
		return t, fmt.Errorf("decode created_at for %d: %w", id, err)
	}
	t.CreatedAt = created
	t.Metadata = map[string]any{}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &t.Metadata); err != nil {
			return t, fmt.Errorf("decode metadata for %d: %w", id, err)
		}
	}
	return t, nil
}

func encodeMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

func sqliteFilter(f model.TranslationFilter) (string, []any) {
	var conds []string
	var args []any
	if f.SourceLanguage != "" {
		conds = append(conds, "source_language = ?")
		args = append(args, f.SourceLanguage)
	}
	if f.TargetLanguage != "" {
		conds = append(conds, "target_language = ?")
		args = append(args, f.TargetLanguage)
	}
	if f.ModelUsed != "" {
		conds = append(conds, "model_used = ?")
		args = append(args, f.ModelUsed)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
