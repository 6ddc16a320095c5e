package model

import "time"

// Default field values applied when a request leaves them out.
const (
	DefaultSourceLanguage = "auto"
)

// Translation is a persisted translation record.
type Translation struct {
	ID             string
	InputText      string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	CreatedAt      time.Time
	ModelUsed      string
	Metadata       map[string]any
}

// TranslationCreate holds the fields a caller supplies on insert.
// ID and CreatedAt are always assigned by the store.
type TranslationCreate struct {
	InputText      string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	ModelUsed      string
	Metadata       map[string]any
}

// TranslationUpdate is a partial update. Nil fields are left untouched.
type TranslationUpdate struct {
	InputText      *string
	TranslatedText *string
	SourceLanguage *string
	TargetLanguage *string
	ModelUsed      *string
	Metadata       map[string]any
}

// Empty reports whether the update supplies no fields at all.
func (u TranslationUpdate) Empty() bool {
	return u.InputText == nil &&
		u.TranslatedText == nil &&
		u.SourceLanguage == nil &&
		u.TargetLanguage == nil &&
		u.ModelUsed == nil &&
		u.Metadata == nil
}

// TranslationFilter narrows a listing by exact field values.
// Empty fields do not constrain the result.
type TranslationFilter struct {
	SourceLanguage string
	TargetLanguage string
	ModelUsed      string
}
