package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "verso/docs"
	"verso/internal/handler"
)

// @title Verso API
// @version 1.0
// @description Text translation service backed by a seq2seq model with a persistent record store.
// @BasePath /
func NewRouter(
	translationHandler *handler.TranslationHandler,
	healthHandler *handler.HealthHandler,
	staticDir string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(RequestLoggerMiddleware())
	e.Use(middleware.CORS())

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// The web client calls the /api prefix; scripts use the bare paths.
	for _, prefix := range []string{"", "/api"} {
		g := e.Group(prefix)
		healthHandler.RegisterRoutes(g)
		translationHandler.RegisterRoutes(g)
	}

	registerStatic(e, staticDir)

	return e
}
