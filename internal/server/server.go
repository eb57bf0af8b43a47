package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"board/internal/models"
	"board/internal/storage"
)

// Server provides the HTTP surface of the issue board.
type Server struct {
	engine    *gin.Engine
	store     storage.Store
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store storage.Store, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		store:     store,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/meta", s.handleMeta)
		api.GET("/project", s.handleProject)

		sprints := api.Group("/sprints")
		{
			sprints.GET("", s.handleListSprints)
			sprints.POST("", s.handleCreateSprint)
			sprints.PATCH(":id", s.handleUpdateSprint)
			sprints.DELETE(":id", s.handleDeleteSprint)
		}

		issues := api.Group("/issues")
		{
			issues.GET("", s.handleListIssues)
			issues.POST("", s.handleCreateIssue)
			issues.GET(":id", s.handleGetIssue)
			issues.PATCH(":id", s.handleUpdateIssue)
			issues.DELETE(":id", s.handleDeleteIssue)
			issues.POST(":id/comments", s.handleCreateComment)
		}
	}

	s.mountStatic()
}

// handleHealth reports liveness and the active storage provider.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"provider":  s.store.Provider(),
		"timestamp": models.Stamp(time.Now()),
	})
}

// handleMeta returns the enum tables and the user set for board controls.
func (s *Server) handleMeta(c *gin.Context) {
	users, err := s.store.Users(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statuses":   models.Statuses,
		"priorities": models.Priorities,
		"types":      models.Types,
		"users":      users,
	})
}

// handleProject returns the project metadata.
func (s *Server) handleProject(c *gin.Context) {
	project, err := s.store.Project(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// statusFor maps the error taxonomy onto HTTP statuses: validation 400,
// unknown ids 404, everything else a backend failure.
func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs server-side failures and answers with a single-message
// JSON payload.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondIssueError is respondError with the issue endpoints' contract:
// validation problems come back as an enumerable list.
func (s *Server) respondIssueError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Problems})
		return
	}
	s.respondError(c, err)
}
