package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"verso/internal/service"
)

type HealthHandler struct {
	service service.TranslationService
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type readyResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	ModelLoaded bool   `json:"model_loaded"`
	Store       string `json:"store"`
}

func NewHealthHandler(service service.TranslationService) *HealthHandler {
	return &HealthHandler{service: service}
}

func (h *HealthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
	g.GET("/ready", h.Ready)
}

// Health reports liveness.
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: formatTimestamp(time.Now()),
	})
}

// Ready reports whether the model is loaded and the store answers.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} readyResponse
// @Failure 503 {object} readyResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	r := h.service.Ready(c.Request().Context())
	resp := readyResponse{
		Status:      "ok",
		Timestamp:   formatTimestamp(time.Now()),
		ModelLoaded: r.ModelLoaded,
		Store:       "ok",
	}
	if r.StoreErr != nil {
		resp.Store = "unavailable"
	}
	if !r.Ready() {
		resp.Status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
