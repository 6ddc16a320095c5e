package repository

import (
	"context"

	"verso/internal/model"
)

//go:generate mockgen -source=translation_repository.go -destination=mock/mock_translation_repository.go -package=mock

// TranslationRepository is the record store for translations.
//
// Lookups by an id that is malformed or matches nothing report absence
// (nil record, false) rather than an error. Errors are reserved for the
// store itself failing.
type TranslationRepository interface {
	// Create inserts a record and returns it as read back from the store.
	Create(ctx context.Context, in model.TranslationCreate) (model.Translation, error)
	GetByID(ctx context.Context, id string) (*model.Translation, error)
	// List returns a page in insertion order.
	List(ctx context.Context, skip, limit int, filter model.TranslationFilter) ([]model.Translation, error)
	Count(ctx context.Context, filter model.TranslationFilter) (int64, error)
	// Update applies the non-nil fields of upd and returns the updated record.
	Update(ctx context.Context, id string, upd model.TranslationUpdate) (*model.Translation, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}
