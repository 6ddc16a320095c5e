package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for OpenAI API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, baseURL, model string, httpClient *http.Client) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Model returns the configured model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Load sends a short request so bad keys and unknown models fail at startup.
func (p *OpenAIProvider) Load(ctx context.Context) error {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello world"),
		},
		MaxTokens: openai.Int(8),
	}
	_, err := p.client.Chat.Completions.New(ctx, params)
	return err
}

// Translate runs one deterministic chat completion.
func (p *OpenAIProvider) Translate(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(GetTranslatePrompt(req.SourceLanguage, req.TargetLanguage)),
			openai.UserMessage(WrapInputSimple(req.Text)),
		},
		Temperature: openai.Float(0),
	}
	if req.Params.MaxLength > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.Params.MaxLength))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyOutput
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
