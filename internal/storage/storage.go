// Package storage defines the repository contracts the HTTP layer talks to.
// Two providers implement them: jsonfile (whole-snapshot local document) and
// relational (per-entity tables over database/sql). The provider is chosen
// once at startup; nothing re-decides it per call.
package storage

import (
	"context"

	"board/internal/models"
)

// MetaRepository exposes the project singleton and the user set.
type MetaRepository interface {
	// Provider names the active backend, reported by the health endpoint.
	Provider() string
	Project(ctx context.Context) (models.Project, error)
	Users(ctx context.Context) ([]string, error)
}

// SprintRepository manages sprints. DeleteSprint detaches every issue that
// referenced the sprint and reports how many were touched; it never deletes
// issues.
type SprintRepository interface {
	ListSprints(ctx context.Context) ([]models.Sprint, error)
	CreateSprint(ctx context.Context, in models.SprintInput) (models.Sprint, error)
	UpdateSprint(ctx context.Context, id string, patch models.SprintPatch) (models.Sprint, error)
	DeleteSprint(ctx context.Context, id string) (affected int, err error)
}

// IssueRepository manages issues. Every issue returned has its Comments
// populated, newest first. DeleteIssue removes the issue's comments with it.
type IssueRepository interface {
	ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	GetIssue(ctx context.Context, id string) (models.Issue, error)
	CreateIssue(ctx context.Context, in models.IssueInput) (models.Issue, error)
	UpdateIssue(ctx context.Context, id string, patch models.IssuePatch) (models.Issue, error)
	DeleteIssue(ctx context.Context, id string) error
}

// CommentRepository appends comments to issues. Comments are immutable and
// have no individual update or delete.
type CommentRepository interface {
	CreateComment(ctx context.Context, issueID string, in models.CommentInput) (models.Comment, error)
}

// Store is the full persistence surface held by the server.
type Store interface {
	MetaRepository
	SprintRepository
	IssueRepository
	CommentRepository
	Close() error
}
