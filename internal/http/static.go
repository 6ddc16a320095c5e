package http

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"verso/internal/logger"
)

// apiPrefixes never fall through to the web client's index.html.
var apiPrefixes = []string{"/api", "/swagger", "/translations", "/translate", "/health", "/ready"}

// registerStatic serves a built web client from dir. Unknown non-API paths
// get index.html so client-side routes survive a reload.
func registerStatic(e *echo.Echo, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	if info, err := os.Stat(index); err != nil || info.IsDir() {
		logger.Warn("static index missing", "module", "http", "action", "setup", "resource", "static", "result", "skipped", "path", index)
		return
	}

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:  dir,
		Index: "index.html",
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			return isAPIPath(c.Request().URL.Path)
		},
	}))
	logger.Info("static assets enabled", "module", "http", "action", "setup", "resource", "static", "result", "ok", "dir", dir)
}

func isAPIPath(p string) bool {
	for _, prefix := range apiPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
