package ai

import (
	"context"
	"errors"
	"net/http"
	"time"
)

//go:generate mockgen -source=provider.go -destination=mock/mock_provider.go -package=mock

// Provider is an inference backend able to run one translation.
type Provider interface {
	// Name returns the provider name.
	Name() string
	// Model returns the model identifier recorded with each translation.
	Model() string
	// Load prepares the backend and proves it can serve. It may be slow
	// (remote model cold start) and is called once per process.
	Load(ctx context.Context) error
	// Translate returns the best decoded output for req.Text.
	Translate(ctx context.Context, req Request) (string, error)
}

// Request is one translation call.
type Request struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	Params         GenerationParams
}

// Config holds the configuration for a provider.
type Config struct {
	Provider   string // seq2seq, openai, anthropic, compatible
	APIKey     string
	BaseURL    string // optional for seq2seq/openai/anthropic, required for compatible
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, carries proxy settings
}

// ProviderType constants
const (
	ProviderSeq2Seq    = "seq2seq"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderCompatible = "compatible"
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrMissingAPIKey   = errors.New("API key is required")
	ErrMissingBaseURL  = errors.New("base URL is required for compatible provider")
	ErrMissingModel    = errors.New("model is required")
	ErrEmptyOutput     = errors.New("model returned no output")
)

// NewProvider creates a provider based on the config.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}

	switch cfg.Provider {
	case ProviderSeq2Seq, "":
		return NewSeq2SeqProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.HTTPClient), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.HTTPClient), nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.HTTPClient), nil
	case ProviderCompatible:
		if cfg.BaseURL == "" {
			return nil, ErrMissingBaseURL
		}
		return NewCompatibleProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.HTTPClient), nil
	default:
		return nil, ErrInvalidProvider
	}
}
