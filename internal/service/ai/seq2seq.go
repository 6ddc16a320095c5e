package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultSeq2SeqBaseURL is the hosted inference endpoint for encoder-decoder models.
const DefaultSeq2SeqBaseURL = "https://api-inference.huggingface.co"

// Seq2SeqProvider calls a hosted MarianMT-style translation model using the
// Hugging Face inference wire format.
type Seq2SeqProvider struct {
	client *resty.Client
	model  string
}

type seq2seqPayload struct {
	Inputs     string            `json:"inputs"`
	Parameters seq2seqParameters `json:"parameters"`
	Options    seq2seqOptions    `json:"options"`
}

type seq2seqParameters struct {
	SrcLang            string             `json:"src_lang,omitempty"`
	TgtLang            string             `json:"tgt_lang,omitempty"`
	Truncation         string             `json:"truncation"`
	GenerateParameters seq2seqGenerateOpt `json:"generate_parameters"`
}

type seq2seqGenerateOpt struct {
	NumBeams      int  `json:"num_beams"`
	MaxLength     int  `json:"max_length"`
	EarlyStopping bool `json:"early_stopping"`
}

type seq2seqOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type seq2seqOutput struct {
	TranslationText string `json:"translation_text"`
	GeneratedText   string `json:"generated_text"`
}

type seq2seqError struct {
	Error string `json:"error"`
}

// NewSeq2SeqProvider creates a provider for baseURL (DefaultSeq2SeqBaseURL when empty).
func NewSeq2SeqProvider(apiKey, baseURL, model string, timeout time.Duration, httpClient *http.Client) *Seq2SeqProvider {
	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}
	if baseURL == "" {
		baseURL = DefaultSeq2SeqBaseURL
	}
	client.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Seq2SeqProvider{client: client, model: model}
}

// Name returns the provider name.
func (p *Seq2SeqProvider) Name() string {
	return ProviderSeq2Seq
}

// Model returns the configured model.
func (p *Seq2SeqProvider) Model() string {
	return p.model
}

// Load warms the remote model. The endpoint blocks until the weights are
// resident, so the first call can take a while.
func (p *Seq2SeqProvider) Load(ctx context.Context) error {
	_, err := p.Translate(ctx, Request{Text: "Hello world", Params: DefaultGenerationParams})
	return err
}

// Translate sends one generation request and returns the first candidate.
func (p *Seq2SeqProvider) Translate(ctx context.Context, req Request) (string, error) {
	payload := seq2seqPayload{
		Inputs: req.Text,
		Parameters: seq2seqParameters{
			Truncation: "longest_first",
			GenerateParameters: seq2seqGenerateOpt{
				NumBeams:      req.Params.NumBeams,
				MaxLength:     req.Params.MaxLength,
				EarlyStopping: req.Params.EarlyStopping,
			},
		},
		Options: seq2seqOptions{WaitForModel: true, UseCache: false},
	}
	if req.SourceLanguage != "" && !strings.EqualFold(req.SourceLanguage, "auto") {
		payload.Parameters.SrcLang = req.SourceLanguage
	}
	payload.Parameters.TgtLang = req.TargetLanguage

	var out []seq2seqOutput
	var apiErr seq2seqError
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		SetError(&apiErr).
		Post("/models/" + p.model)
	if err != nil {
		return "", fmt.Errorf("seq2seq request: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", fmt.Errorf("seq2seq status %d: %s", resp.StatusCode(), msg)
	}
	if len(out) == 0 {
		return "", ErrEmptyOutput
	}
	text := out[0].TranslationText
	if text == "" {
		text = out[0].GeneratedText
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}
