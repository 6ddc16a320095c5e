package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"verso/internal/model"
	"verso/internal/repository"
	"verso/internal/service"
)

// TimeLayout renders created_at in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

type TranslationHandler struct {
	service service.TranslationService
	redact  bool
}

type translateRequest struct {
	Text           string         `json:"text" validate:"notblank"`
	SourceLanguage string         `json:"source_language"`
	TargetLanguage string         `json:"target_language"`
	SourceLang     string         `json:"source_lang" swaggerignore:"true"`
	TargetLang     string         `json:"target_lang" swaggerignore:"true"`
	Metadata       map[string]any `json:"metadata"`
}

type updateTranslationRequest struct {
	InputText      *string        `json:"input_text" validate:"omitnil,notblank"`
	TranslatedText *string        `json:"translated_text"`
	SourceLanguage *string        `json:"source_language"`
	TargetLanguage *string        `json:"target_language"`
	ModelUsed      *string        `json:"model_used"`
	Metadata       map[string]any `json:"metadata"`
}

type translationResponse struct {
	ID             string         `json:"_id"`
	InputText      string         `json:"input_text"`
	TranslatedText string         `json:"translated_text"`
	SourceLanguage string         `json:"source_language"`
	TargetLanguage string         `json:"target_language"`
	CreatedAt      string         `json:"created_at"`
	ModelUsed      string         `json:"model_used"`
	Metadata       map[string]any `json:"metadata"`
}

type translationListResponse struct {
	Total        int64                 `json:"total"`
	Translations []translationResponse `json:"translations"`
}

// NewTranslationHandler builds the handler. With redact set, 500 responses
// hide the underlying error.
func NewTranslationHandler(service service.TranslationService, redact bool) *TranslationHandler {
	return &TranslationHandler{service: service, redact: redact}
}

func (h *TranslationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/translate", h.Translate)
	g.GET("/translations", h.List)
	g.GET("/translations/:id", h.Get)
	g.PATCH("/translations/:id", h.Update)
	g.DELETE("/translations/:id", h.Delete)
}

// Translate translates text and stores the result.
// @Summary Translate text
// @Description Run text through the translation model and persist the record
// @Tags translations
// @Accept json
// @Produce json
// @Param request body translateRequest true "Text to translate"
// @Success 201 {object} translationResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /translate [post]
func (h *TranslationHandler) Translate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	source := req.SourceLanguage
	if source == "" {
		source = req.SourceLang
	}
	target := req.TargetLanguage
	if target == "" {
		target = req.TargetLang
	}

	t, err := h.service.Translate(c.Request().Context(), service.TranslateParams{
		Text:           req.Text,
		SourceLanguage: source,
		TargetLanguage: target,
		Metadata:       req.Metadata,
	})
	if err != nil {
		return writeServiceError(c, err, h.redact)
	}
	return c.JSON(http.StatusCreated, toTranslationResponse(t))
}

// List returns a page of translations.
// @Summary List translations
// @Description Get translations in insertion order with the total count
// @Tags translations
// @Produce json
// @Param skip query int false "Records to skip" default(0) minimum(0)
// @Param limit query int false "Page size" default(10) minimum(1) maximum(100)
// @Param source_language query string false "Filter by source language"
// @Param target_language query string false "Filter by target language"
// @Param model_used query string false "Filter by model"
// @Success 200 {object} translationListResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /translations [get]
func (h *TranslationHandler) List(c echo.Context) error {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	limit, err := queryInt(c, "limit", repository.DefaultListLimit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res, err := h.service.List(c.Request().Context(), service.ListParams{
		Skip:  skip,
		Limit: limit,
		Filter: model.TranslationFilter{
			SourceLanguage: c.QueryParam("source_language"),
			TargetLanguage: c.QueryParam("target_language"),
			ModelUsed:      c.QueryParam("model_used"),
		},
	})
	if err != nil {
		return writeServiceError(c, err, h.redact)
	}

	response := translationListResponse{
		Total:        res.Total,
		Translations: make([]translationResponse, 0, len(res.Translations)),
	}
	for _, t := range res.Translations {
		response.Translations = append(response.Translations, toTranslationResponse(t))
	}
	return c.JSON(http.StatusOK, response)
}

// Get returns one translation.
// @Summary Get a translation
// @Tags translations
// @Produce json
// @Param id path string true "Translation ID"
// @Success 200 {object} translationResponse
// @Failure 404 {object} errorResponse
// @Router /translations/{id} [get]
func (h *TranslationHandler) Get(c echo.Context) error {
	t, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err, h.redact)
	}
	return c.JSON(http.StatusOK, toTranslationResponse(t))
}

// Update applies a partial update.
// @Summary Update a translation
// @Description Only supplied, non-null fields are changed
// @Tags translations
// @Accept json
// @Produce json
// @Param id path string true "Translation ID"
// @Param request body updateTranslationRequest true "Fields to change"
// @Success 200 {object} translationResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /translations/{id} [patch]
func (h *TranslationHandler) Update(c echo.Context) error {
	var req updateTranslationRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	t, err := h.service.Update(c.Request().Context(), c.Param("id"), model.TranslationUpdate{
		InputText:      req.InputText,
		TranslatedText: req.TranslatedText,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		ModelUsed:      req.ModelUsed,
		Metadata:       req.Metadata,
	})
	if err != nil {
		return writeServiceError(c, err, h.redact)
	}
	return c.JSON(http.StatusOK, toTranslationResponse(t))
}

// Delete removes a translation.
// @Summary Delete a translation
// @Tags translations
// @Param id path string true "Translation ID"
// @Success 204 "No Content"
// @Failure 404 {object} errorResponse
// @Router /translations/{id} [delete]
func (h *TranslationHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeServiceError(c, err, h.redact)
	}
	return c.NoContent(http.StatusNoContent)
}

func toTranslationResponse(t model.Translation) translationResponse {
	metadata := t.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return translationResponse{
		ID:             t.ID,
		InputText:      t.InputText,
		TranslatedText: t.TranslatedText,
		SourceLanguage: t.SourceLanguage,
		TargetLanguage: t.TargetLanguage,
		CreatedAt:      formatTimestamp(t.CreatedAt),
		ModelUsed:      t.ModelUsed,
		Metadata:       metadata,
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
