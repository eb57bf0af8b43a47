// Package jsonfile persists the whole board as one JSON document. Every
// mutation reads the full snapshot, changes it in memory and rewrites the
// file, which is adequate for the single-user local deployments this
// provider targets. Concurrent processes race last-write-wins.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"board/internal/ids"
	"board/internal/models"
	"board/internal/storage"
)

// snapshotMeta tracks document-level bookkeeping, including the persisted
// issue counter this provider allocates ids from.
type snapshotMeta struct {
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	IssueCounter int64  `json:"issueCounter"`
}

type snapshot struct {
	Meta     snapshotMeta     `json:"meta"`
	Project  models.Project   `json:"project"`
	Users    []string         `json:"users"`
	Sprints  []models.Sprint  `json:"sprints"`
	Issues   []models.Issue   `json:"issues"`
	Comments []models.Comment `json:"comments"`
}

// Store is the local file-backed provider.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open prepares a store writing to the given file. The file itself is
// created lazily, seeded on the first read.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty data file path")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &Store{path: path, logger: logger, now: time.Now}, nil
}

// Close implements storage.Store; the file handle is not held open.
func (s *Store) Close() error { return nil }

// Provider names this backend for the health endpoint.
func (s *Store) Provider() string { return "local" }

func (s *Store) stamp() string { return models.Stamp(s.now()) }

func (s *Store) read() (*snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		snap := seedSnapshot(s.stamp())
		if err := s.write(snap); err != nil {
			return nil, err
		}
		s.logger.Info("seeded data file", slog.String("path", s.path))
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if normalizeUsers(&snap) {
		if err := s.write(&snap); err != nil {
			return nil, err
		}
	}
	return &snap, nil
}

func (s *Store) write(snap *snapshot) error {
	snap.Meta.UpdatedAt = s.stamp()
	for i := range snap.Issues {
		snap.Issues[i].Comments = nil
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func seedSnapshot(createdAt string) *snapshot {
	seed := storage.Seed(createdAt)
	return &snapshot{
		Meta: snapshotMeta{
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
			IssueCounter: seed.IssueCounter,
		},
		Project:  seed.Project,
		Users:    seed.Users,
		Sprints:  seed.Sprints,
		Issues:   seed.Issues,
		Comments: seed.Comments,
	}
}

// normalizeUsers unions the persisted user set with the defaults and every
// name seen on issues and comments, reporting whether it changed. The set
// only grows; names recorded earlier stay even when nothing references them
// anymore.
func normalizeUsers(snap *snapshot) bool {
	users := append([]string(nil), models.DefaultUsers...)
	users = models.AddUser(users, snap.Users...)
	for _, issue := range snap.Issues {
		users = models.AddUser(users, issue.Assignee, issue.Reporter)
	}
	for _, comment := range snap.Comments {
		users = models.AddUser(users, comment.Author)
	}
	if slices.Equal(users, snap.Users) {
		return false
	}
	snap.Users = users
	return true
}

// attachComments returns a copy of the issue with its comments populated,
// newest first.
func attachComments(issue models.Issue, comments []models.Comment) models.Issue {
	attached := make([]models.Comment, 0)
	for _, comment := range comments {
		if comment.IssueID == issue.ID {
			attached = append(attached, comment)
		}
	}
	sort.SliceStable(attached, func(i, j int) bool {
		return attached[i].CreatedAt > attached[j].CreatedAt
	})
	issue.Comments = attached
	return issue
}

// Project returns the project singleton.
func (s *Store) Project(ctx context.Context) (models.Project, error) {
	snap, err := s.read()
	if err != nil {
		return models.Project{}, err
	}
	return snap.Project, nil
}

// Users returns the deduplicated user set.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	return snap.Users, nil
}

// ListSprints returns all sprints ordered by start date.
func (s *Store) ListSprints(ctx context.Context) ([]models.Sprint, error) {
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	sprints := append([]models.Sprint(nil), snap.Sprints...)
	sort.SliceStable(sprints, func(i, j int) bool {
		return sprints[i].StartDate < sprints[j].StartDate
	})
	return sprints, nil
}

// CreateSprint validates the input and appends a new sprint.
func (s *Store) CreateSprint(ctx context.Context, in models.SprintInput) (models.Sprint, error) {
	if err := models.ValidateNewSprint(in); err != nil {
		return models.Sprint{}, err
	}
	snap, err := s.read()
	if err != nil {
		return models.Sprint{}, err
	}
	sprint := models.NewSprint(ids.Sprint(s.now()), in, s.stamp())
	snap.Sprints = append(snap.Sprints, sprint)
	if err := s.write(snap); err != nil {
		return models.Sprint{}, err
	}
	return sprint, nil
}

// UpdateSprint applies the present fields of the patch to an existing sprint.
func (s *Store) UpdateSprint(ctx context.Context, id string, patch models.SprintPatch) (models.Sprint, error) {
	if err := models.ValidateSprintPatch(patch); err != nil {
		return models.Sprint{}, err
	}
	snap, err := s.read()
	if err != nil {
		return models.Sprint{}, err
	}
	for i := range snap.Sprints {
		if snap.Sprints[i].ID != id {
			continue
		}
		snap.Sprints[i].Apply(patch, s.stamp())
		if err := s.write(snap); err != nil {
			return models.Sprint{}, err
		}
		return snap.Sprints[i], nil
	}
	return models.Sprint{}, fmt.Errorf("sprint %s %w", id, models.ErrNotFound)
}

// DeleteSprint removes the sprint and detaches every issue that referenced
// it, returning the number of issues touched.
func (s *Store) DeleteSprint(ctx context.Context, id string) (int, error) {
	snap, err := s.read()
	if err != nil {
		return 0, err
	}
	index := -1
	for i := range snap.Sprints {
		if snap.Sprints[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return 0, fmt.Errorf("sprint %s %w", id, models.ErrNotFound)
	}
	snap.Sprints = append(snap.Sprints[:index], snap.Sprints[index+1:]...)

	affected := 0
	stamp := s.stamp()
	for i := range snap.Issues {
		if snap.Issues[i].SprintID == id {
			snap.Issues[i].SprintID = ""
			snap.Issues[i].UpdatedAt = stamp
			affected++
		}
	}
	if err := s.write(snap); err != nil {
		return 0, err
	}
	return affected, nil
}

// ListIssues returns the issues matching the filter, newest first, each with
// its comments attached.
func (s *Store) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	issues := make([]models.Issue, 0)
	for _, issue := range snap.Issues {
		if filter.Matches(issue) {
			issues = append(issues, attachComments(issue, snap.Comments))
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].CreatedAt > issues[j].CreatedAt
	})
	return issues, nil
}

// GetIssue returns a single issue with its comments attached.
func (s *Store) GetIssue(ctx context.Context, id string) (models.Issue, error) {
	snap, err := s.read()
	if err != nil {
		return models.Issue{}, err
	}
	for _, issue := range snap.Issues {
		if issue.ID == id {
			return attachComments(issue, snap.Comments), nil
		}
	}
	return models.Issue{}, fmt.Errorf("issue %s %w", id, models.ErrNotFound)
}

// CreateIssue validates the input, allocates the next counter-based id and
// appends the issue. New assignee and reporter names join the user set.
func (s *Store) CreateIssue(ctx context.Context, in models.IssueInput) (models.Issue, error) {
	if err := models.ValidateNewIssue(in); err != nil {
		return models.Issue{}, err
	}
	snap, err := s.read()
	if err != nil {
		return models.Issue{}, err
	}
	issue := models.NewIssue(ids.Issue(snap.Project.Key, snap.Meta.IssueCounter), in, s.stamp())
	snap.Meta.IssueCounter++
	snap.Users = models.AddUser(snap.Users, issue.Assignee, issue.Reporter)
	snap.Issues = append(snap.Issues, issue)
	if err := s.write(snap); err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

// UpdateIssue applies the present fields of the patch to an existing issue.
func (s *Store) UpdateIssue(ctx context.Context, id string, patch models.IssuePatch) (models.Issue, error) {
	if err := models.ValidateIssuePatch(patch); err != nil {
		return models.Issue{}, err
	}
	snap, err := s.read()
	if err != nil {
		return models.Issue{}, err
	}
	for i := range snap.Issues {
		if snap.Issues[i].ID != id {
			continue
		}
		snap.Issues[i].Apply(patch, s.stamp())
		snap.Users = models.AddUser(snap.Users, snap.Issues[i].Assignee, snap.Issues[i].Reporter)
		updated := attachComments(snap.Issues[i], snap.Comments)
		if err := s.write(snap); err != nil {
			return models.Issue{}, err
		}
		return updated, nil
	}
	return models.Issue{}, fmt.Errorf("issue %s %w", id, models.ErrNotFound)
}

// DeleteIssue removes the issue and every comment attached to it.
func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	snap, err := s.read()
	if err != nil {
		return err
	}
	index := -1
	for i := range snap.Issues {
		if snap.Issues[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("issue %s %w", id, models.ErrNotFound)
	}
	snap.Issues = append(snap.Issues[:index], snap.Issues[index+1:]...)

	kept := snap.Comments[:0]
	for _, comment := range snap.Comments {
		if comment.IssueID != id {
			kept = append(kept, comment)
		}
	}
	snap.Comments = kept
	return s.write(snap)
}

// CreateComment validates the input and appends a comment to an existing
// issue. A new author name joins the user set.
func (s *Store) CreateComment(ctx context.Context, issueID string, in models.CommentInput) (models.Comment, error) {
	if err := models.ValidateNewComment(in); err != nil {
		return models.Comment{}, err
	}
	snap, err := s.read()
	if err != nil {
		return models.Comment{}, err
	}
	found := false
	for _, issue := range snap.Issues {
		if issue.ID == issueID {
			found = true
			break
		}
	}
	if !found {
		return models.Comment{}, fmt.Errorf("issue %s %w", issueID, models.ErrNotFound)
	}
	comment := models.NewComment(ids.Comment(s.now()), issueID, in, s.stamp())
	snap.Comments = append(snap.Comments, comment)
	snap.Users = models.AddUser(snap.Users, comment.Author)
	if err := s.write(snap); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}
