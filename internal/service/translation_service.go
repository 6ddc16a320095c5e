package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"verso/internal/logger"
	"verso/internal/model"
	"verso/internal/repository"
)

// TranslateParams is a translation request. Empty languages take defaults.
type TranslateParams struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	Metadata       map[string]any
}

// ListParams selects one page of records.
type ListParams struct {
	Skip   int
	Limit  int
	Filter model.TranslationFilter
}

// ListResult is a page plus the total matching the filter.
type ListResult struct {
	Total        int64
	Translations []model.Translation
}

// Readiness is the dependency state reported by /ready.
type Readiness struct {
	ModelLoaded bool
	StoreErr    error
}

// Ready reports whether the service can take traffic.
func (r Readiness) Ready() bool {
	return r.ModelLoaded && r.StoreErr == nil
}

type TranslationService interface {
	Translate(ctx context.Context, params TranslateParams) (model.Translation, error)
	Get(ctx context.Context, id string) (model.Translation, error)
	List(ctx context.Context, params ListParams) (ListResult, error)
	Update(ctx context.Context, id string, upd model.TranslationUpdate) (model.Translation, error)
	Delete(ctx context.Context, id string) error
	Ready(ctx context.Context) Readiness
}

type translationService struct {
	translations     repository.TranslationRepository
	translator       TranslatorService
	defaultTarget    string
	readinessTimeout time.Duration
}

func NewTranslationService(translations repository.TranslationRepository, translator TranslatorService, defaultTarget string) TranslationService {
	if defaultTarget == "" {
		defaultTarget = "en"
	}
	return &translationService{
		translations:     translations,
		translator:       translator,
		defaultTarget:    defaultTarget,
		readinessTimeout: 2 * time.Second,
	}
}

func (s *translationService) Translate(ctx context.Context, params TranslateParams) (model.Translation, error) {
	if strings.TrimSpace(params.Text) == "" {
		return model.Translation{}, invalid("text", "must not be blank")
	}
	source := strings.TrimSpace(params.SourceLanguage)
	if source == "" {
		source = model.DefaultSourceLanguage
	}
	target := strings.TrimSpace(params.TargetLanguage)
	if target == "" {
		target = s.defaultTarget
	}

	translated, err := s.translator.Translate(ctx, TranslateInput{
		Text:           params.Text,
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return model.Translation{}, err
	}

	created, err := s.translations.Create(ctx, model.TranslationCreate{
		InputText:      params.Text,
		TranslatedText: translated,
		SourceLanguage: source,
		TargetLanguage: target,
		ModelUsed:      s.translator.ModelName(),
		Metadata:       params.Metadata,
	})
	if err != nil {
		return model.Translation{}, fmt.Errorf("save translation: %w", err)
	}
	logger.Info("translation saved", "module", "service", "action", "create", "resource", "translation", "result", "ok", "id", created.ID, "source_language", source, "target_language", target)
	return created, nil
}

func (s *translationService) Get(ctx context.Context, id string) (model.Translation, error) {
	t, err := s.translations.GetByID(ctx, id)
	if err != nil {
		return model.Translation{}, fmt.Errorf("get translation: %w", err)
	}
	if t == nil {
		return model.Translation{}, ErrNotFound
	}
	return *t, nil
}

func (s *translationService) List(ctx context.Context, params ListParams) (ListResult, error) {
	if params.Skip < 0 {
		return ListResult{}, invalid("skip", "must be >= 0")
	}
	if params.Limit < 1 || params.Limit > repository.MaxListLimit {
		return ListResult{}, invalid("limit", fmt.Sprintf("must be between 1 and %d", repository.MaxListLimit))
	}

	total, err := s.translations.Count(ctx, params.Filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count translations: %w", err)
	}
	items, err := s.translations.List(ctx, params.Skip, params.Limit, params.Filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("list translations: %w", err)
	}
	if items == nil {
		items = []model.Translation{}
	}
	return ListResult{Total: total, Translations: items}, nil
}

func (s *translationService) Update(ctx context.Context, id string, upd model.TranslationUpdate) (model.Translation, error) {
	if upd.InputText != nil && strings.TrimSpace(*upd.InputText) == "" {
		return model.Translation{}, invalid("input_text", "must not be blank")
	}

	t, err := s.translations.Update(ctx, id, upd)
	if err != nil {
		return model.Translation{}, fmt.Errorf("update translation: %w", err)
	}
	if t == nil {
		return model.Translation{}, ErrNotFound
	}
	logger.Info("translation updated", "module", "service", "action", "update", "resource", "translation", "result", "ok", "id", t.ID)
	return *t, nil
}

func (s *translationService) Delete(ctx context.Context, id string) error {
	deleted, err := s.translations.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete translation: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	logger.Info("translation deleted", "module", "service", "action", "delete", "resource", "translation", "result", "ok", "id", id)
	return nil
}

func (s *translationService) Ready(ctx context.Context) Readiness {
	ctx, cancel := context.WithTimeout(ctx, s.readinessTimeout)
	defer cancel()
	r := Readiness{ModelLoaded: s.translator.Loaded()}
	if err := s.translations.Ping(ctx); err != nil {
		logger.Warn("store ping failed", "module", "service", "action", "ping", "resource", "store", "result", "failed", "error", err)
		r.StoreErr = err
	}
	return r
}
