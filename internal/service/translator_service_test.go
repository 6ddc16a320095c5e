package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"verso/internal/service"
	"verso/internal/service/ai"
	aimock "verso/internal/service/ai/mock"
	"verso/internal/tracking"
)

type stubProvider struct {
	model   string
	loadErr error
	out     string
	err     error

	loads atomic.Int32
	mu    sync.Mutex
	last  ai.Request
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return p.model }

func (p *stubProvider) Load(context.Context) error {
	p.loads.Add(1)
	return p.loadErr
}

func (p *stubProvider) Translate(_ context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	p.last = req
	p.mu.Unlock()
	return p.out, p.err
}

type runSink struct {
	mu   sync.Mutex
	runs []tracking.Run
}

func (r *runSink) Record(run tracking.Run) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return true
}

func newTranslator(p *stubProvider, runs service.RunRecorder) service.TranslatorService {
	return newTranslatorWithConfig(p, runs, service.TranslatorConfig{})
}

func newTranslatorWithConfig(p *stubProvider, runs service.RunRecorder, cfg service.TranslatorConfig) service.TranslatorService {
	build := func(ai.Config) (ai.Provider, error) { return p, nil }
	cfg.Provider = ai.Config{Model: "configured-model"}
	cfg.Experiment = "translation_service"
	return service.NewTranslatorService(cfg, build, ai.NewRateLimiter(1000), runs)
}

func TestTranslatorService_LoadOnce(t *testing.T) {
	p := &stubProvider{model: "opus-mt-en-de", out: "Hallo"}
	svc := newTranslator(p, nil)
	require.False(t, svc.Loaded())
	require.Equal(t, "configured-model", svc.ModelName())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Load(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, p.loads.Load())
	require.True(t, svc.Loaded())
	require.Equal(t, "opus-mt-en-de", svc.ModelName())
}

func TestTranslatorService_LoadFailureIsRemembered(t *testing.T) {
	p := &stubProvider{model: "m", loadErr: errors.New("weights missing")}
	svc := newTranslator(p, nil)

	require.Error(t, svc.Load(context.Background()))
	require.Error(t, svc.Load(context.Background()))
	require.EqualValues(t, 1, p.loads.Load())
	require.False(t, svc.Loaded())

	_, err := svc.Translate(context.Background(), service.TranslateInput{Text: "Hello"})
	require.ErrorIs(t, err, service.ErrModelUnavailable)
	require.Contains(t, err.Error(), "weights missing")
}

func TestTranslatorService_BuildFailure(t *testing.T) {
	svc := service.NewTranslatorService(service.TranslatorConfig{Provider: ai.Config{Provider: "nope", Model: "m"}}, nil, nil, nil)
	require.ErrorIs(t, svc.Load(context.Background()), ai.ErrInvalidProvider)
}

func TestTranslatorService_TranslateLoadsLazily(t *testing.T) {
	p := &stubProvider{model: "opus", out: "Hallo"}
	svc := newTranslator(p, nil)
	require.False(t, svc.Loaded())

	out, err := svc.Translate(context.Background(), service.TranslateInput{Text: "Hello", TargetLanguage: "de"})
	require.NoError(t, err)
	require.Equal(t, "Hallo", out)
	require.True(t, svc.Loaded())

	_, err = svc.Translate(context.Background(), service.TranslateInput{Text: "Hello", TargetLanguage: "de"})
	require.NoError(t, err)
	require.EqualValues(t, 1, p.loads.Load())
	require.NoError(t, svc.Load(context.Background()))
	require.EqualValues(t, 1, p.loads.Load())
}

func TestTranslatorService_LazyLoadFailure(t *testing.T) {
	p := &stubProvider{model: "opus", loadErr: errors.New("weights missing")}
	svc := newTranslator(p, nil)

	_, err := svc.Translate(context.Background(), service.TranslateInput{Text: "Hello"})
	require.ErrorIs(t, err, service.ErrModelUnavailable)
	require.Contains(t, err.Error(), "weights missing")

	_, err = svc.Translate(context.Background(), service.TranslateInput{Text: "Hello"})
	require.ErrorIs(t, err, service.ErrModelUnavailable)
	require.EqualValues(t, 1, p.loads.Load())
}

func TestTranslatorService_Translate(t *testing.T) {
	p := &stubProvider{model: "opus", out: "<pad> Hallo Welt</s>"}
	runs := &runSink{}
	svc := newTranslator(p, runs)
	require.NoError(t, svc.Load(context.Background()))

	out, err := svc.Translate(context.Background(), service.TranslateInput{
		Text:           "Grüße, world",
		SourceLanguage: "en",
		TargetLanguage: "de",
	})
	require.NoError(t, err)
	require.Equal(t, "Hallo Welt", out)

	require.Equal(t, "Grüße, world", p.last.Text)
	require.Equal(t, ai.DefaultGenerationParams, p.last.Params)
	require.Equal(t, "de", p.last.TargetLanguage)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	require.Equal(t, "translation_service", run.Experiment)
	require.Equal(t, tracking.StatusFinished, run.Status)
	require.Equal(t, "opus", run.Params["model"])
	require.Equal(t, "12", run.Params["input_length"], "characters, not bytes")
	require.Equal(t, "4", run.Params["num_beams"])
	require.Contains(t, run.Metrics, "inference_time_ms")
	require.Equal(t, "Grüße, world", run.Artifacts["input.txt"])
	require.Equal(t, "Hallo Welt", run.Artifacts["output.txt"])
}

func TestTranslatorService_TruncatesLongInput(t *testing.T) {
	p := &stubProvider{model: "opus", out: "ok"}
	runs := &runSink{}
	svc := newTranslator(p, runs)
	require.NoError(t, svc.Load(context.Background()))

	long := strings.Repeat("word ", 2000)
	_, err := svc.Translate(context.Background(), service.TranslateInput{Text: long})
	require.NoError(t, err)
	require.Len(t, strings.Fields(p.last.Text), ai.DefaultGenerationParams.MaxInputTokens)

	require.Len(t, runs.runs, 1)
	require.Equal(t, long, runs.runs[0].Artifacts["input.txt"])
	require.Equal(t, "10000", runs.runs[0].Params["input_length"])
}

func TestTranslatorService_PassesLiteralText(t *testing.T) {
	p := &stubProvider{model: "opus", out: "ok"}
	svc := newTranslator(p, nil)
	require.NoError(t, svc.Load(context.Background()))

	for _, text := range []string{
		"if a<b and c>d then stop",
		"Use the <div> element for layout.",
		"line one\n  line two",
	} {
		_, err := svc.Translate(context.Background(), service.TranslateInput{Text: text})
		require.NoError(t, err)
		require.Equal(t, text, p.last.Text)
	}
}

func TestTranslatorService_KeepsOutputLines(t *testing.T) {
	p := &stubProvider{model: "opus", out: "<pad> Zeile eins\nZeile zwei</s>"}
	svc := newTranslator(p, nil)

	out, err := svc.Translate(context.Background(), service.TranslateInput{Text: "line one\nline two"})
	require.NoError(t, err)
	require.Equal(t, "Zeile eins\nZeile zwei", out)
}

func TestTranslatorService_EmptyOutputIsError(t *testing.T) {
	for _, raw := range []string{"", "  ", "<pad></s>"} {
		p := &stubProvider{model: "opus", out: raw}
		runs := &runSink{}
		svc := newTranslator(p, runs)

		out, err := svc.Translate(context.Background(), service.TranslateInput{Text: "Hello"})
		require.ErrorIs(t, err, ai.ErrEmptyOutput, "output %q", raw)
		require.Empty(t, out)
		require.Len(t, runs.runs, 1)
		require.Equal(t, tracking.StatusFailed, runs.runs[0].Status)
	}
}

func TestTranslatorService_ProviderErrorIsNotOutput(t *testing.T) {
	p := &stubProvider{model: "opus", err: errors.New("CUDA out of memory")}
	runs := &runSink{}
	svc := newTranslator(p, runs)
	require.NoError(t, svc.Load(context.Background()))

	out, err := svc.Translate(context.Background(), service.TranslateInput{Text: "Hello"})
	require.Error(t, err)
	require.Empty(t, out)
	require.NotErrorIs(t, err, service.ErrModelUnavailable)

	require.Len(t, runs.runs, 1)
	require.Equal(t, tracking.StatusFailed, runs.runs[0].Status)
	require.Equal(t, "CUDA out of memory", runs.runs[0].Error)
	require.NotContains(t, runs.runs[0].Artifacts, "output.txt")
}

func TestTranslatorService_StripHTMLOptIn(t *testing.T) {
	p := &stubProvider{model: "opus", out: "x"}
	runs := &runSink{}
	svc := newTranslatorWithConfig(p, runs, service.TranslatorConfig{StripHTML: true})

	_, err := svc.Translate(context.Background(), service.TranslateInput{Text: "<b>Hello</b> world"})
	require.NoError(t, err)
	require.Equal(t, "Hello world", p.last.Text)
	require.Equal(t, "<b>Hello</b> world", runs.runs[0].Artifacts["input.txt"])

	_, err = svc.Translate(context.Background(), service.TranslateInput{Text: "<br><img src=x>"})
	require.ErrorIs(t, err, service.ErrInvalid)
}

func TestTranslatorService_WithMockProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := aimock.NewMockProvider(ctrl)
	ctx := context.Background()

	p.EXPECT().Name().Return("seq2seq").AnyTimes()
	p.EXPECT().Model().Return("Helsinki-NLP/opus-mt-en-de").AnyTimes()
	p.EXPECT().Load(gomock.Any()).Return(nil)
	p.EXPECT().
		Translate(ctx, ai.Request{
			Text:           "Good morning",
			SourceLanguage: "en",
			TargetLanguage: "de",
			Params:         ai.DefaultGenerationParams,
		}).
		Return("Guten Morgen<unk>", nil)

	svc := service.NewTranslatorService(service.TranslatorConfig{Provider: ai.Config{Model: "Helsinki-NLP/opus-mt-en-de"}},
		func(ai.Config) (ai.Provider, error) { return p, nil }, nil, nil)
	require.NoError(t, svc.Load(ctx))

	out, err := svc.Translate(ctx, service.TranslateInput{Text: "Good morning", SourceLanguage: "en", TargetLanguage: "de"})
	require.NoError(t, err)
	require.Equal(t, "Guten Morgen", out)
}
