package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"board/internal/models"
)

// handleCreateComment appends a comment to an issue.
func (s *Server) handleCreateComment(c *gin.Context) {
	var in models.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	comment, err := s.store.CreateComment(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
