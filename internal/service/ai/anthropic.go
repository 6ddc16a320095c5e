package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider for Anthropic API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, baseURL, model string, httpClient *http.Client) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Model returns the configured model.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Load sends a short request so bad keys and unknown models fail at startup.
func (p *AnthropicProvider) Load(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 8,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Hello world")),
		},
	})
	return err
}

// Translate runs one deterministic message request.
func (p *AnthropicProvider) Translate(ctx context.Context, req Request) (string, error) {
	maxTokens := int64(req.Params.MaxLength)
	if maxTokens <= 0 {
		maxTokens = int64(DefaultGenerationParams.MaxLength)
	}
	// Thinking must stay off for temperature 0.
	disabled := anthropic.NewThinkingConfigDisabledParam()
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: GetTranslatePrompt(req.SourceLanguage, req.TargetLanguage)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(WrapInputSimple(req.Text))),
		},
		Temperature: anthropic.Float(0),
		Thinking: anthropic.ThinkingConfigParamUnion{
			OfDisabled: &disabled,
		},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			return strings.TrimSpace(v.Text), nil
		}
	}
	return "", ErrEmptyOutput
}
