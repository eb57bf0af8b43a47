package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"board/internal/models"
)

// handleListSprints returns all sprints ordered by start date.
func (s *Server) handleListSprints(c *gin.Context) {
	sprints, err := s.store.ListSprints(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sprints)
}

// handleCreateSprint creates a new sprint.
func (s *Server) handleCreateSprint(c *gin.Context) {
	var in models.SprintInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sprint, err := s.store.CreateSprint(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sprint)
}

// handleUpdateSprint applies a partial update to a sprint.
func (s *Server) handleUpdateSprint(c *gin.Context) {
	var patch models.SprintPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sprint, err := s.store.UpdateSprint(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sprint)
}

// handleDeleteSprint removes a sprint and detaches its issues.
func (s *Server) handleDeleteSprint(c *gin.Context) {
	id := c.Param("id")
	affected, err := s.store.DeleteSprint(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"removedSprintId": id,
		"affectedIssues":  affected,
	})
}
