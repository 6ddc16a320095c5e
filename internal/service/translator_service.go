package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"verso/internal/logger"
	"verso/internal/service/ai"
	"verso/internal/tracking"
)

// TranslateInput is one call to the model.
type TranslateInput struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}

// TranslatorService owns the model handle. It is built once in main and
// shared by every request.
type TranslatorService interface {
	// Load builds the provider and warms it. It runs at most once; later
	// calls return the first result. Translate calls it when nobody has.
	Load(ctx context.Context) error
	// Loaded reports whether Load succeeded.
	Loaded() bool
	// ModelName is the tag recorded as model_used.
	ModelName() string
	// Translate returns the decoded output for in.Text.
	Translate(ctx context.Context, in TranslateInput) (string, error)
}

// ProviderFactory builds a provider from its config. ai.NewProvider in production.
type ProviderFactory func(cfg ai.Config) (ai.Provider, error)

// RunRecorder accepts tracking runs without blocking.
type RunRecorder interface {
	Record(run tracking.Run) bool
}

// TranslatorConfig configures NewTranslatorService.
type TranslatorConfig struct {
	Provider   ai.Config
	Experiment string
	// Params defaults to ai.DefaultGenerationParams when zero.
	Params ai.GenerationParams
	// StripHTML removes markup from the text before it reaches the model.
	StripHTML bool
}

type translatorService struct {
	cfg     TranslatorConfig
	build   ProviderFactory
	limiter *ai.RateLimiter
	runs    RunRecorder

	once     sync.Once
	loadErr  error
	loaded   atomic.Bool
	provider ai.Provider
}

func NewTranslatorService(cfg TranslatorConfig, build ProviderFactory, limiter *ai.RateLimiter, runs RunRecorder) TranslatorService {
	if build == nil {
		build = ai.NewProvider
	}
	if cfg.Params == (ai.GenerationParams{}) {
		cfg.Params = ai.DefaultGenerationParams
	}
	if limiter == nil {
		limiter = ai.NewRateLimiter(ai.DefaultRateLimit)
	}
	return &translatorService{cfg: cfg, build: build, limiter: limiter, runs: runs}
}

func (s *translatorService) Load(ctx context.Context) error {
	s.once.Do(func() {
		s.loadErr = s.load(ctx)
	})
	return s.loadErr
}

func (s *translatorService) load(ctx context.Context) error {
	start := time.Now()
	provider, err := s.build(s.cfg.Provider)
	if err != nil {
		logger.Error("model build failed", "module", "service", "action", "load", "resource", "model", "result", "failed", "provider", s.cfg.Provider.Provider, "error", err)
		return fmt.Errorf("build provider: %w", err)
	}
	if err := provider.Load(ctx); err != nil {
		logger.Error("model load failed", "module", "service", "action", "load", "resource", "model", "result", "failed", "provider", provider.Name(), "model", provider.Model(), "error", err)
		return fmt.Errorf("load model %s: %w", provider.Model(), err)
	}
	s.provider = provider
	s.loaded.Store(true)
	logger.Info("model loaded", "module", "service", "action", "load", "resource", "model", "result", "ok", "provider", provider.Name(), "model", provider.Model(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *translatorService) Loaded() bool {
	return s.loaded.Load()
}

func (s *translatorService) ModelName() string {
	if s.loaded.Load() {
		return s.provider.Model()
	}
	return s.cfg.Provider.Model
}

func (s *translatorService) Translate(ctx context.Context, in TranslateInput) (string, error) {
	if !s.loaded.Load() {
		if err := s.Load(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
	}

	text := in.Text
	if s.cfg.StripHTML {
		text = ai.StripHTML(text)
	}
	text, truncated := ai.TruncateTokens(text, s.cfg.Params.MaxInputTokens)
	if strings.TrimSpace(text) == "" {
		return "", invalid("text", "has no translatable content")
	}
	if truncated {
		logger.Debug("model input truncated", "module", "service", "action", "translate", "resource", "model", "result", "truncated", "max_tokens", s.cfg.Params.MaxInputTokens)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	run := tracking.NewRun(s.cfg.Experiment, "translate")
	run.Params["model"] = s.provider.Model()
	run.Params["input_length"] = strconv.Itoa(utf8.RuneCountInString(in.Text))
	run.Params["num_beams"] = strconv.Itoa(s.cfg.Params.NumBeams)
	run.Params["max_length"] = strconv.Itoa(s.cfg.Params.MaxLength)
	run.Params["early_stopping"] = strconv.FormatBool(s.cfg.Params.EarlyStopping)
	run.Params["source_language"] = in.SourceLanguage
	run.Params["target_language"] = in.TargetLanguage
	run.Artifacts["input.txt"] = in.Text

	start := time.Now()
	out, err := s.provider.Translate(ctx, ai.Request{
		Text:           text,
		SourceLanguage: in.SourceLanguage,
		TargetLanguage: in.TargetLanguage,
		Params:         s.cfg.Params,
	})
	elapsed := time.Since(start)
	out = ai.StripSpecialTokens(out)
	if err == nil && out == "" {
		err = ai.ErrEmptyOutput
	}

	run.Metrics["inference_time_ms"] = float64(elapsed.Microseconds()) / 1000
	if err == nil {
		run.Artifacts["output.txt"] = out
	}
	run.Finish(err)
	s.record(run)

	if err != nil {
		logger.Warn("translation failed", "module", "service", "action", "translate", "resource", "model", "result", "failed", "model", s.provider.Model(), "error", err)
		return "", fmt.Errorf("translate: %w", err)
	}
	logger.Debug("translation done", "module", "service", "action", "translate", "resource", "model", "result", "ok", "model", s.provider.Model(), "duration_ms", elapsed.Milliseconds())
	return out, nil
}

func (s *translatorService) record(run tracking.Run) {
	if s.runs == nil {
		return
	}
	s.runs.Record(run)
}
