package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"verso/internal/logger"
	"verso/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeServiceError maps service sentinels to status codes. Unexpected errors
// carry their message unless redact is set.
func writeServiceError(c echo.Context, err error, redact bool) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error()})
	case errors.Is(err, service.ErrInvalid):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "translation not found"})
	case errors.Is(err, service.ErrModelUnavailable):
		logger.Error("model unavailable", "module", "handler", "action", "request", "resource", "model", "result", "failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "model unavailable"})
	default:
		logger.Error("request failed", "module", "handler", "action", "request", "resource", "http", "result", "failed", "path", c.Path(), "error", err)
		msg := "internal error"
		if !redact {
			msg = err.Error()
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
	}
}
