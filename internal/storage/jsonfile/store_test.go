package jsonfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"board/internal/models"
)

// newTestStore opens a store in a temp dir with a clock that advances one
// millisecond per reading, so every stamp is strictly increasing.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "board.json"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	return s
}

func TestFirstReadSeedsDataFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sprints, err := s.ListSprints(ctx)
	require.NoError(t, err)
	require.Len(t, sprints, 2)
	assert.Equal(t, "sprint-1", sprints[0].ID)
	assert.Equal(t, "sprint-2", sprints[1].ID)

	issues, err := s.ListIssues(ctx, models.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 3)

	project, err := s.Project(ctx)
	require.NoError(t, err)
	assert.Equal(t, "VGR", project.Key)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultUsers, users)

	_, err = os.Stat(s.path)
	assert.NoError(t, err)
}

func TestSeedAttachesComments(t *testing.T) {
	s := newTestStore(t)

	issue, err := s.GetIssue(context.Background(), "VGR-2")
	require.NoError(t, err)
	require.Len(t, issue.Comments, 1)
	assert.Equal(t, "comment-1", issue.Comments[0].ID)
}

func TestCreateIssueAllocatesSequentialIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateIssue(ctx, models.IssueInput{
		Title: "First", Type: "Task", Status: "Backlog", Priority: "Low",
	})
	require.NoError(t, err)
	assert.Equal(t, "VGR-4", first.ID)

	second, err := s.CreateIssue(ctx, models.IssueInput{
		Title: "Second", Type: "Task", Status: "Backlog", Priority: "Low",
	})
	require.NoError(t, err)
	assert.Equal(t, "VGR-5", second.ID)
}

func TestCreateIssueDefaultsAndUserGrowth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue, err := s.CreateIssue(ctx, models.IssueInput{
		Title:    "Tune jump physics",
		Type:     "Task",
		Status:   "Backlog",
		Priority: "Medium",
		Assignee: "Zara",
	})
	require.NoError(t, err)
	assert.Equal(t, "Zara", issue.Assignee)
	assert.Equal(t, models.DefaultReporter, issue.Reporter)
	assert.Zero(t, issue.StoryPoints)
	assert.Equal(t, []string{}, issue.Labels)
	assert.Equal(t, []models.Comment{}, issue.Comments)
	assert.Empty(t, issue.SprintID)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Contains(t, users, "Zara")
}

func TestCreateIssueRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateIssue(ctx, models.IssueInput{Type: "Task", Status: "Backlog", Priority: "Low"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "title is required")

	points := 150.0
	_, err = s.CreateIssue(ctx, models.IssueInput{
		Title: "Too big", Type: "Task", Status: "Backlog", Priority: "Low", StoryPoints: &points,
	})
	require.ErrorAs(t, err, &verr)

	// Nothing was written for either invalid payload.
	issues, err := s.ListIssues(ctx, models.IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, issues, 3)
}

func TestUpdateIssueRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before, err := s.GetIssue(ctx, "VGR-1")
	require.NoError(t, err)

	status := "In Review"
	updated, err := s.UpdateIssue(ctx, "VGR-1", models.IssuePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "In Review", updated.Status)
	assert.Greater(t, updated.UpdatedAt, before.UpdatedAt)

	after, err := s.GetIssue(ctx, "VGR-1")
	require.NoError(t, err)
	assert.Equal(t, "In Review", after.Status)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestUpdateIssueNotFound(t *testing.T) {
	s := newTestStore(t)

	status := "Done"
	_, err := s.UpdateIssue(context.Background(), "VGR-99", models.IssuePatch{Status: &status})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteSprintDetachesIssues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	affected, err := s.DeleteSprint(ctx, "sprint-1")
	require.NoError(t, err)
	assert.Equal(t, 2, affected)

	sprints, err := s.ListSprints(ctx)
	require.NoError(t, err)
	require.Len(t, sprints, 1)
	assert.Equal(t, "sprint-2", sprints[0].ID)

	for _, id := range []string{"VGR-1", "VGR-2"} {
		issue, err := s.GetIssue(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, issue.SprintID)
	}

	// The issue in the other sprint is untouched.
	other, err := s.GetIssue(ctx, "VGR-3")
	require.NoError(t, err)
	assert.Equal(t, "sprint-2", other.SprintID)
}

func TestDeleteSprintNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DeleteSprint(context.Background(), "sprint-99")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteIssueRemovesComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteIssue(ctx, "VGR-2"))

	_, err := s.GetIssue(ctx, "VGR-2")
	assert.ErrorIs(t, err, models.ErrNotFound)

	snap, err := s.read()
	require.NoError(t, err)
	assert.Empty(t, snap.Comments)

	_, err = s.CreateComment(ctx, "VGR-2", models.CommentInput{Body: "too late"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateCommentDefaultsAuthorAndSortsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	comment, err := s.CreateComment(ctx, "VGR-2", models.CommentInput{Body: "Looking into it."})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCommenter, comment.Author)

	issue, err := s.GetIssue(ctx, "VGR-2")
	require.NoError(t, err)
	require.Len(t, issue.Comments, 2)
	assert.Equal(t, comment.ID, issue.Comments[0].ID)
	assert.Equal(t, "comment-1", issue.Comments[1].ID)
}

func TestCreateCommentRequiresBody(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateComment(context.Background(), "VGR-1", models.CommentInput{Body: "   "})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "body is required")
}

func TestListIssuesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	filtered, err := s.ListIssues(ctx, models.IssueFilter{Statuses: []string{"To Do", "Backlog"}})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, issue := range filtered {
		assert.Contains(t, []string{"To Do", "Backlog"}, issue.Status)
	}

	searched, err := s.ListIssues(ctx, models.IssueFilter{Search: "login"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "VGR-1", searched[0].ID)
}

func TestListIssuesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateIssue(ctx, models.IssueInput{
		Title: "Latest", Type: "Task", Status: "Backlog", Priority: "Low",
	})
	require.NoError(t, err)

	issues, err := s.ListIssues(ctx, models.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 4)
	assert.Equal(t, created.ID, issues[0].ID)
}

func TestUsersAreNeverPruned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue, err := s.CreateIssue(ctx, models.IssueInput{
		Title: "Temp", Type: "Task", Status: "Backlog", Priority: "Low", Assignee: "Zara",
	})
	require.NoError(t, err)
	require.NoError(t, s.DeleteIssue(ctx, issue.ID))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Contains(t, users, "Zara")
}

func TestUpdateSprintAppliesPartialPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := "closed"
	updated, err := s.UpdateSprint(ctx, "sprint-1", models.SprintPatch{State: &state})
	require.NoError(t, err)
	assert.Equal(t, "closed", updated.State)
	assert.Equal(t, "Sprint 1 - Core Loop", updated.Name)

	bad := "archived"
	_, err = s.UpdateSprint(ctx, "sprint-1", models.SprintPatch{State: &bad})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}
