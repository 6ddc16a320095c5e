package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// CompatibleProvider implements Provider for OpenAI-compatible APIs.
// This supports services like OpenRouter, vLLM, Ollama, etc.
type CompatibleProvider struct {
	client openai.Client
	model  string
}

// NewCompatibleProvider creates a new OpenAI-compatible provider.
func NewCompatibleProvider(apiKey, baseURL, model string, httpClient *http.Client) *CompatibleProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &CompatibleProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Name returns the provider name.
func (p *CompatibleProvider) Name() string {
	return ProviderCompatible
}

// Model returns the configured model.
func (p *CompatibleProvider) Model() string {
	return p.model
}

// Load sends a short request so an unreachable endpoint fails at startup.
func (p *CompatibleProvider) Load(ctx context.Context) error {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello world"),
		},
		MaxTokens: openai.Int(8),
	}
	_, err := p.client.Chat.Completions.New(ctx, params, disableReasoning())
	return err
}

// Translate runs one deterministic chat completion.
func (p *CompatibleProvider) Translate(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(GetTranslatePrompt(req.SourceLanguage, req.TargetLanguage)),
			openai.UserMessage(WrapInputSimple(req.Text)),
		},
		Temperature: openai.Float(0),
	}
	if req.Params.MaxLength > 0 {
		params.MaxTokens = openai.Int(int64(req.Params.MaxLength))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params, disableReasoning())
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyOutput
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Some gateways enable reasoning by default, which breaks max token budgets.
func disableReasoning() option.RequestOption {
	return option.WithJSONSet("reasoning", map[string]interface{}{
		"enabled": false,
	})
}
