package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the board frontend from the configured directory.
// Unknown API paths always answer JSON 404; every other unknown path falls
// back to index.html so the single-page app owns client-side routing. When
// the directory is missing the server degrades to API-only mode.
func (s *Server) mountStatic() {
	apiNotFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	}

	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		s.engine.NoRoute(apiNotFound)
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing; API only mode",
			"path", s.staticDir, "error", err)
		s.engine.NoRoute(apiNotFound)
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found; API only mode", "path", indexPath, "error", err)
		s.engine.NoRoute(apiNotFound)
		return
	}

	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			apiNotFound(c)
			return
		}
		candidate := filepath.Join(s.staticDir, filepath.Clean("/"+c.Request.URL.Path))
		if !strings.HasPrefix(candidate, filepath.Clean(s.staticDir)) {
			c.File(indexPath)
			return
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			c.File(candidate)
			return
		}
		c.File(indexPath)
	})
}
