package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"verso/internal/model"
	"verso/internal/repository/mock"
	"verso/internal/service"
)

type translatorStub struct {
	out    string
	err    error
	loaded bool
	calls  int
	last   service.TranslateInput
}

func (s *translatorStub) Load(context.Context) error { return nil }
func (s *translatorStub) Loaded() bool               { return s.loaded }
func (s *translatorStub) ModelName() string          { return "Helsinki-NLP/opus-mt-en-de" }

func (s *translatorStub) Translate(_ context.Context, in service.TranslateInput) (string, error) {
	s.calls++
	s.last = in
	return s.out, s.err
}

func stringPtr(s string) *string {
	return &s
}

func TestTranslationService_Translate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	translator := &translatorStub{out: "Hallo", loaded: true}
	svc := service.NewTranslationService(mockRepo, translator, "en")
	ctx := context.Background()

	created := model.Translation{ID: "1", InputText: "Hello", TranslatedText: "Hallo", SourceLanguage: "en", TargetLanguage: "de", CreatedAt: time.Now().UTC()}
	mockRepo.EXPECT().
		Create(ctx, model.TranslationCreate{
			InputText:      "Hello",
			TranslatedText: "Hallo",
			SourceLanguage: "en",
			TargetLanguage: "de",
			ModelUsed:      "Helsinki-NLP/opus-mt-en-de",
			Metadata:       map[string]any{"client": "web"},
		}).
		Return(created, nil)

	got, err := svc.Translate(ctx, service.TranslateParams{
		Text:           "Hello",
		SourceLanguage: "en",
		TargetLanguage: "de",
		Metadata:       map[string]any{"client": "web"},
	})
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestTranslationService_Translate_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	translator := &translatorStub{out: "Hello", loaded: true}
	svc := service.NewTranslationService(mockRepo, translator, "")
	ctx := context.Background()

	mockRepo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, in model.TranslationCreate) (model.Translation, error) {
			require.Equal(t, "auto", in.SourceLanguage)
			require.Equal(t, "en", in.TargetLanguage)
			return model.Translation{ID: "1"}, nil
		})

	_, err := svc.Translate(ctx, service.TranslateParams{Text: "Hallo"})
	require.NoError(t, err)
	require.Equal(t, "auto", translator.last.SourceLanguage)
}

func TestTranslationService_Translate_BlankText(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	translator := &translatorStub{}
	svc := service.NewTranslationService(mockRepo, translator, "en")

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Translate(context.Background(), service.TranslateParams{Text: text})
		require.ErrorIs(t, err, service.ErrInvalid)
	}
	require.Zero(t, translator.calls, "model is never called for rejected input")
}

func TestTranslationService_Translate_ModelFailureWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	translator := &translatorStub{err: service.ErrModelUnavailable}
	svc := service.NewTranslationService(mockRepo, translator, "en")

	_, err := svc.Translate(context.Background(), service.TranslateParams{Text: "Hello"})
	require.ErrorIs(t, err, service.ErrModelUnavailable)
}

func TestTranslationService_Translate_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	svc := service.NewTranslationService(mockRepo, &translatorStub{out: "Hallo"}, "en")
	ctx := context.Background()

	mockRepo.EXPECT().Create(ctx, gomock.Any()).Return(model.Translation{}, errors.New("disk full"))

	_, err := svc.Translate(ctx, service.TranslateParams{Text: "Hello"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestTranslationService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	svc := service.NewTranslationService(mockRepo, &translatorStub{}, "en")
	ctx := context.Background()

	mockRepo.EXPECT().GetByID(ctx, "42").Return(&model.Translation{ID: "42"}, nil)
	mockRepo.EXPECT().GetByID(ctx, "43").Return(nil, nil)
	mockRepo.EXPECT().GetByID(ctx, "44").Return(nil, errors.New("connection reset"))

	got, err := svc.Get(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, "42", got.ID)

	_, err = svc.Get(ctx, "43")
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Get(ctx, "44")
	require.Error(t, err)
	require.NotErrorIs(t, err, service.ErrNotFound)
}

func TestTranslationService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	svc := service.NewTranslationService(mockRepo, &translatorStub{}, "en")
	ctx := context.Background()
	filter := model.TranslationFilter{TargetLanguage: "de"}

	mockRepo.EXPECT().Count(ctx, filter).Return(int64(3), nil)
	mockRepo.EXPECT().List(ctx, 1, 2, filter).Return([]model.Translation{{ID: "2"}, {ID: "3"}}, nil)

	res, err := svc.List(ctx, service.ListParams{Skip: 1, Limit: 2, Filter: filter})
	require.NoError(t, err)
	require.EqualValues(t, 3, res.Total)
	require.Len(t, res.Translations, 2)
}

func TestTranslationService_List_EmptyIsNotNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	svc := service.NewTranslationService(mockRepo, &translatorStub{}, "en")
	ctx := context.Background()

	mockRepo.EXPECT().Count(ctx, model.TranslationFilter{}).Return(int64(0), nil)
	mockRepo.EXPECT().List(ctx, 0, 10, model.TranslationFilter{}).Return(nil, nil)

	res, err := svc.List(ctx, service.ListParams{Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, res.Translations)
	require.Empty(t, res.Translations)
}

func TestTranslationService_List_RejectsOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.NewTranslationService(mock.NewMockTranslationRepository(ctrl), &translatorStub{}, "en")

	for _, p := range []service.ListParams{
		{Skip: -1, Limit: 10},
		{Skip: 0, Limit: 0},
		{Skip: 0, Limit: 101},
	} {
		_, err := svc.List(context.Background(), p)
		require.ErrorIs(t, err, service.ErrInvalid, "params %+v", p)
	}
}

func TestTranslationService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	svc := service.NewTranslationService(mockRepo, &translatorStub{}, "en")
	ctx := context.Background()

	upd := model.TranslationUpdate{Metadata: map[string]any{"reviewed": true}}
	mockRepo.EXPECT().Update(ctx, "1", upd).Return(&model.Translation{ID: "1", TranslatedText: "Hallo", Metadata: upd.Metadata}, nil)
	mockRepo.EXPECT().Update(ctx, "2", upd).Return(nil, nil)

	got, err := svc.Update(ctx, "1", upd)
	require.NoError(t, err)
	require.Equal(t, "Hallo", got.TranslatedText)

	_, err = svc.Update(ctx, "2", upd)
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Update(ctx, "1", model.TranslationUpdate{InputText: stringPtr("  ")})
	require.ErrorIs(t, err, service.ErrInvalid)
}

func TestTranslationService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	svc := service.NewTranslationService(mockRepo, &translatorStub{}, "en")
	ctx := context.Background()

	gomock.InOrder(
		mockRepo.EXPECT().Delete(ctx, "1").Return(true, nil),
		mockRepo.EXPECT().Delete(ctx, "1").Return(false, nil),
	)

	require.NoError(t, svc.Delete(ctx, "1"))
	require.ErrorIs(t, svc.Delete(ctx, "1"), service.ErrNotFound)
}

func TestTranslationService_Ready(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock.NewMockTranslationRepository(ctrl)
	translator := &translatorStub{loaded: true}
	svc := service.NewTranslationService(mockRepo, translator, "en")

	mockRepo.EXPECT().Ping(gomock.Any()).Return(nil)
	require.True(t, svc.Ready(context.Background()).Ready())

	mockRepo.EXPECT().Ping(gomock.Any()).Return(errors.New("no primary"))
	r := svc.Ready(context.Background())
	require.False(t, r.Ready())
	require.True(t, r.ModelLoaded)
	require.Error(t, r.StoreErr)
}
