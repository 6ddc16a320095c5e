package http

import (
	"time"

	"github.com/labstack/echo/v4"

	"verso/internal/logger"
)

// RequestLoggerMiddleware logs HTTP requests using logger.
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			status := res.Status
			result := "ok"
			if status >= 400 {
				result = "failed"
			}
			attrs := []any{
				"module", "http",
				"action", "request",
				"resource", "http",
				"result", result,
				"method", req.Method,
				"path", req.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
			}
			switch {
			case status >= 500:
				logger.Error("http request", attrs...)
			case status >= 400:
				logger.Warn("http request", attrs...)
			default:
				logger.Debug("http request", attrs...)
			}

			return nil
		}
	}
}
