// Package relational persists the board in five tables (projects, users,
// sprints, issues, comments) behind database/sql. The production driver is
// pgx against a remote Postgres; the sqlite3 driver serves the same schema
// for local relational deployments and tests, so every statement sticks to
// the portable intersection of the two: TEXT columns, $N placeholders and
// ON CONFLICT DO NOTHING.
package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"board/internal/ids"
	"board/internal/models"
	"board/internal/storage"
)

// Store is the remote table-backed provider.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	seedOnce sync.Once
	seedErr  error
}

var _ storage.Store = (*Store)(nil)

// Open connects with the given driver ("pgx" or "sqlite3"), verifies the
// connection and runs migrations. Seeding happens lazily on first use. A
// misconfigured remote fails here; there is no fallback to local storage.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty connection string")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Provider names this backend for the health endpoint.
func (s *Store) Provider() string { return "remote" }

func (s *Store) stamp() string { return models.Stamp(s.now()) }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			project_key TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			name TEXT PRIMARY KEY,
			added_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sprints (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			goal TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			assignee TEXT NOT NULL,
			reporter TEXT NOT NULL,
			labels TEXT NOT NULL DEFAULT '[]',
			story_points DOUBLE PRECISION NOT NULL DEFAULT 0,
			sprint_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			issue_id TEXT NOT NULL,
			author TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_sprint ON issues(sprint_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_issue ON comments(issue_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ensureSeed lays down the starter content exactly once per process. The
// inserts are insert-or-skip keyed by primary key, so a table populated by a
// previous process is left alone. A failed first seed stays failed until
// restart; there are no retries.
func (s *Store) ensureSeed(ctx context.Context) error {
	s.seedOnce.Do(func() {
		s.seedErr = s.seed(ctx)
	})
	if s.seedErr != nil {
		return fmt.Errorf("seed: %w", s.seedErr)
	}
	return nil
}

func (s *Store) seed(ctx context.Context) error {
	seed := storage.Seed(s.stamp())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, project_key, name, description) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		seed.Project.ID, seed.Project.Key, seed.Project.Name, seed.Project.Description)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	for _, name := range seed.Users {
		if err := s.upsertUser(ctx, name); err != nil {
			return err
		}
	}
	for _, sprint := range seed.Sprints {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO sprints (id, name, goal, state, start_date, end_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO NOTHING`,
			sprint.ID, sprint.Name, sprint.Goal, sprint.State,
			sprint.StartDate, sprint.EndDate, sprint.CreatedAt, sprint.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert sprint: %w", err)
		}
	}
	for _, issue := range seed.Issues {
		labels, err := encodeLabels(issue.Labels)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO issues (id, title, description, type, status, priority, assignee, reporter,
			                     labels, story_points, sprint_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT (id) DO NOTHING`,
			issue.ID, issue.Title, issue.Description, issue.Type, issue.Status, issue.Priority,
			issue.Assignee, issue.Reporter, labels, issue.StoryPoints, issue.SprintID,
			issue.CreatedAt, issue.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
	}
	for _, comment := range seed.Comments {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO comments (id, issue_id, author, body, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			comment.ID, comment.IssueID, comment.Author, comment.Body, comment.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
	}

	s.logger.Info("relational store ready", slog.String("project", seed.Project.Key))
	return nil
}

func (s *Store) upsertUser(ctx context.Context, name string) error {
	if name == "" || name == models.Unassigned {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, added_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, s.stamp())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func encodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	return string(raw), nil
}

func decodeLabels(raw string) ([]string, error) {
	labels := []string{}
	if raw == "" {
		return labels, nil
	}
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return labels, nil
}

// Project returns the project singleton.
func (s *Store) Project(ctx context.Context) (models.Project, error) {
	if err := s.ensureSeed(ctx); err != nil {
		return models.Project{}, err
	}
	var p models.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_key, name, description FROM projects LIMIT 1`).
		Scan(&p.ID, &p.Key, &p.Name, &p.Description)
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Users returns the user set, default users first.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	if err := s.ensureSeed(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM users ORDER BY added_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := append([]string(nil), models.DefaultUsers...)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = models.AddUser(users, name)
	}
	return users, rows.Err()
}

// ListSprints returns all sprints ordered by start date.
func (s *Store) ListSprints(ctx context.Context) ([]models.Sprint, error) {
	if err := s.ensureSeed(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, goal, state, start_date, end_date, created_at, updated_at
		 FROM sprints ORDER BY start_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	defer rows.Close()

	sprints := make([]models.Sprint, 0)
	for rows.Next() {
		var sp models.Sprint
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Goal, &sp.State,
			&sp.StartDate, &sp.EndDate, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

func (s *Store) getSprint(ctx context.Context, id string) (models.Sprint, error) {
	var sp models.Sprint
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, goal, state, start_date, end_date, created_at, updated_at
		 FROM sprints WHERE id = $1`, id).
		Scan(&sp.ID, &sp.Name, &sp.Goal, &sp.State,
			&sp.StartDate, &sp.EndDate, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sprint{}, fmt.Errorf("sprint %s %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Sprint{}, fmt.Errorf("get sprint: %w", err)
	}
	return sp, nil
}

// CreateSprint validates the input and inserts a new sprint.
func (s *Store) CreateSprint(ctx context.Context, in models.SprintInput) (models.Sprint, error) {
	if err := models.ValidateNewSprint(in); err != nil {
		return models.Sprint{}, err
	}
	if err := s.ensureSeed(ctx); err != nil {
		return models.Sprint{}, err
	}
	sprint := models.NewSprint(ids.Sprint(s.now()), in, s.stamp())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sprints (id, name, goal, state, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sprint.ID, sprint.Name, sprint.Goal, sprint.State,
		sprint.StartDate, sprint.EndDate, sprint.CreatedAt, sprint.UpdatedAt)
	if err != nil {
		return models.Sprint{}, fmt.Errorf("insert sprint: %w", err)
	}
	return sprint, nil
}

// UpdateSprint applies the present fields of the patch to an existing sprint.
func (s *Store) UpdateSprint(ctx context.Context, id string, patch models.SprintPatch) (models.Sprint, error) {
	if err := models.ValidateSprintPatch(patch); err != nil {
		return models.Sprint{}, err
	}
	if err := s.ensureSeed(ctx); err != nil {
		return models.Sprint{}, err
	}
	sprint, err := s.getSprint(ctx, id)
	if err != nil {
		return models.Sprint{}, err
	}
	sprint.Apply(patch, s.stamp())
	_, err = s.db.ExecContext(ctx,
		`UPDATE sprints SET name = $1, goal = $2, state = $3, start_date = $4, end_date = $5, updated_at = $6
		 WHERE id = $7`,
		sprint.Name, sprint.Goal, sprint.State, sprint.StartDate, sprint.EndDate, sprint.UpdatedAt, id)
	if err != nil {
		return models.Sprint{}, fmt.Errorf("update sprint: %w", err)
	}
	return sprint, nil
}

// DeleteSprint detaches the sprint's issues, then removes the sprint. The
// two statements are deliberately independent: a crash in between leaves
// issues detached with the sprint still present, which the next call can
// observe and the next delete can finish.
func (s *Store) DeleteSprint(ctx context.Context, id string) (int, error) {
	if err := s.ensureSeed(ctx); err != nil {
		return 0, err
	}
	if _, err := s.getSprint(ctx, id); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE issues SET sprint_id = '', updated_at = $1 WHERE sprint_id = $2`,
		s.stamp(), id)
	if err != nil {
		return 0, fmt.Errorf("detach issues: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("detach issues: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sprints WHERE id = $1`, id); err != nil {
		return 0, fmt.Errorf("delete sprint: %w", err)
	}
	return int(affected), nil
}

const issueColumns = `id, title, description, type, status, priority, assignee, reporter,
	labels, story_points, sprint_id, created_at, updated_at`

func scanIssue(scan func(dest ...any) error) (models.Issue, error) {
	var issue models.Issue
	var labels string
	err := scan(&issue.ID, &issue.Title, &issue.Description, &issue.Type, &issue.Status,
		&issue.Priority, &issue.Assignee, &issue.Reporter, &labels, &issue.StoryPoints,
		&issue.SprintID, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		return models.Issue{}, err
	}
	issue.Labels, err = decodeLabels(labels)
	if err != nil {
		return models.Issue{}, err
	}
	issue.Comments = []models.Comment{}
	return issue, nil
}

func (s *Store) getIssueRow(ctx context.Context, id string) (models.Issue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id)
	issue, err := scanIssue(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Issue{}, fmt.Errorf("issue %s %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Issue{}, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

func (s *Store) issueComments(ctx context.Context, issueID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, author, body, created_at FROM comments
		 WHERE issue_id = $1 ORDER BY created_at DESC, id DESC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListIssues returns the issues matching the filter, newest first, each with
// its comments attached. Filtering runs in process through the shared
// matcher so both providers agree on the semantics.
func (s *Store) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	if err := s.ensureSeed(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	issues := make([]models.Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		if filter.Matches(issue) {
			issues = append(issues, issue)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	comments, err := s.allComments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		if attached, ok := comments[issues[i].ID]; ok {
			issues[i].Comments = attached
		}
	}
	return issues, nil
}

func (s *Store) allComments(ctx context.Context) (map[string][]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, author, body, created_at FROM comments
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	byIssue := make(map[string][]models.Comment)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		byIssue[c.IssueID] = append(byIssue[c.IssueID], c)
	}
	return byIssue, rows.Err()
}

// GetIssue returns a single issue with its comments attached.
func (s *Store) GetIssue(ctx context.Context, id string) (models.Issue, error) {
	if err := s.ensureSeed(ctx); err != nil {
		return models.Issue{}, err
	}
	issue, err := s.getIssueRow(ctx, id)
	if err != nil {
		return models.Issue{}, err
	}
	issue.Comments, err = s.issueComments(ctx, id)
	if err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

// CreateIssue validates the input, scans the existing ids for the next
// number and inserts the issue. New assignee and reporter names join the
// user table.
func (s *Store) CreateIssue(ctx context.Context, in models.IssueInput) (models.Issue, error) {
	if err := models.ValidateNewIssue(in); err != nil {
		return models.Issue{}, err
	}
	if err := s.ensureSeed(ctx); err != nil {
		return models.Issue{}, err
	}

	var key string
	if err := s.db.QueryRowContext(ctx, `SELECT project_key FROM projects LIMIT 1`).Scan(&key); err != nil {
		return models.Issue{}, fmt.Errorf("get project key: %w", err)
	}
	existing, err := s.issueIDs(ctx, key)
	if err != nil {
		return models.Issue{}, err
	}

	issue := models.NewIssue(ids.Issue(key, ids.NextIssueNumber(key, existing)), in, s.stamp())
	labels, err := encodeLabels(issue.Labels)
	if err != nil {
		return models.Issue{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO issues (`+issueColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		issue.ID, issue.Title, issue.Description, issue.Type, issue.Status, issue.Priority,
		issue.Assignee, issue.Reporter, labels, issue.StoryPoints, issue.SprintID,
		issue.CreatedAt, issue.UpdatedAt)
	if err != nil {
		return models.Issue{}, fmt.Errorf("insert issue: %w", err)
	}

	if err := s.upsertUser(ctx, issue.Assignee); err != nil {
		return models.Issue{}, err
	}
	if err := s.upsertUser(ctx, issue.Reporter); err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

func (s *Store) issueIDs(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM issues WHERE id LIKE $1`, key+"-%")
	if err != nil {
		return nil, fmt.Errorf("list issue ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan issue id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpdateIssue applies the present fields of the patch to an existing issue.
func (s *Store) UpdateIssue(ctx context.Context, id string, patch models.IssuePatch) (models.Issue, error) {
	if err := models.ValidateIssuePatch(patch); err != nil {
		return models.Issue{}, err
	}
	if err := s.ensureSeed(ctx); err != nil {
		return models.Issue{}, err
	}
	issue, err := s.getIssueRow(ctx, id)
	if err != nil {
		return models.Issue{}, err
	}
	issue.Apply(patch, s.stamp())

	labels, err := encodeLabels(issue.Labels)
	if err != nil {
		return models.Issue{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE issues SET title = $1, description = $2, type = $3, status = $4, priority = $5,
		 assignee = $6, reporter = $7, labels = $8, story_points = $9, sprint_id = $10, updated_at = $11
		 WHERE id = $12`,
		issue.Title, issue.Description, issue.Type, issue.Status, issue.Priority,
		issue.Assignee, issue.Reporter, labels, issue.StoryPoints, issue.SprintID,
		issue.UpdatedAt, id)
	if err != nil {
		return models.Issue{}, fmt.Errorf("update issue: %w", err)
	}

	if err := s.upsertUser(ctx, issue.Assignee); err != nil {
		return models.Issue{}, err
	}
	if err := s.upsertUser(ctx, issue.Reporter); err != nil {
		return models.Issue{}, err
	}
	issue.Comments, err = s.issueComments(ctx, id)
	if err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

// DeleteIssue removes the issue, then its comments. Like the sprint cascade
// this is two independent statements with a visible in-between state.
func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	if err := s.ensureSeed(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("issue %s %w", id, models.ErrNotFound)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE issue_id = $1`, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	return nil
}

// CreateComment validates the input and inserts a comment against an
// existing issue. A new author name joins the user table.
func (s *Store) CreateComment(ctx context.Context, issueID string, in models.CommentInput) (models.Comment, error) {
	if err := models.ValidateNewComment(in); err != nil {
		return models.Comment{}, err
	}
	if err := s.ensureSeed(ctx); err != nil {
		return models.Comment{}, err
	}
	if _, err := s.getIssueRow(ctx, issueID); err != nil {
		return models.Comment{}, err
	}

	comment := models.NewComment(ids.Comment(s.now()), issueID, in, s.stamp())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, issue_id, author, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.IssueID, comment.Author, comment.Body, comment.CreatedAt)
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	if err := s.upsertUser(ctx, comment.Author); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}
