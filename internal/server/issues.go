package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"board/internal/models"
)

// issueFilterFromQuery reads the list filters. Each parameter accepts a
// comma-separated "any of" list; search is a free-text substring.
func issueFilterFromQuery(c *gin.Context) models.IssueFilter {
	return models.IssueFilter{
		Statuses:   models.SplitList(c.Query("status")),
		Priorities: models.SplitList(c.Query("priority")),
		Assignees:  models.SplitList(c.Query("assignee")),
		Types:      models.SplitList(c.Query("type")),
		SprintIDs:  models.SplitList(c.Query("sprintId")),
		Search:     c.Query("search"),
	}
}

// handleListIssues returns the filtered issue list, newest first.
func (s *Server) handleListIssues(c *gin.Context) {
	issues, err := s.store.ListIssues(c.Request.Context(), issueFilterFromQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// handleGetIssue returns a single issue with its comments.
func (s *Server) handleGetIssue(c *gin.Context) {
	issue, err := s.store.GetIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// handleCreateIssue creates a new issue.
func (s *Server) handleCreateIssue(c *gin.Context) {
	var in models.IssueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}
	issue, err := s.store.CreateIssue(c.Request.Context(), in)
	if err != nil {
		s.respondIssueError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// handleUpdateIssue applies a partial update to an issue.
func (s *Server) handleUpdateIssue(c *gin.Context) {
	var patch models.IssuePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}
	issue, err := s.store.UpdateIssue(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.respondIssueError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// handleDeleteIssue removes an issue and its comments.
func (s *Server) handleDeleteIssue(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteIssue(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "removedId": id})
}
