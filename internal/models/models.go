package models

import (
	"strings"
	"time"
)

// Statuses enumerates the board columns an issue can occupy.
var Statuses = []string{"Backlog", "To Do", "In Progress", "In Review", "Done"}

// Priorities enumerates issue priorities, lowest first.
var Priorities = []string{"Lowest", "Low", "Medium", "High", "Highest"}

// Types enumerates the supported issue types.
var Types = []string{"Story", "Task", "Bug", "Epic"}

// SprintStates enumerates the planning states of a sprint.
var SprintStates = []string{"planned", "active", "closed"}

// Unassigned is the sentinel assignee for issues without an owner.
const Unassigned = "Unassigned"

// DefaultUsers seeds the user set. Names encountered on issues and comments
// are unioned with this list and never pruned.
var DefaultUsers = []string{
	"Diana - PM",
	"Felipe",
	"Igor",
	"Marina",
	"Otto",
	"Priya",
	"Wes",
}

// DefaultReporter is substituted when an issue is created without a reporter.
const DefaultReporter = "Diana - PM"

// DefaultCommenter is substituted when a comment is posted without an author.
const DefaultCommenter = "Felipe"

// stampLayout is a fixed-width millisecond ISO format so that stamps compare
// chronologically as plain strings.
const stampLayout = "2006-01-02T15:04:05.000Z07:00"

// Stamp formats a point in time as the canonical UTC timestamp string.
func Stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// Project is the single project this board manages.
type Project struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Sprint is a time-boxed grouping of issues. Dates are calendar days in
// YYYY-MM-DD form, which sort chronologically as strings.
type Sprint struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	State     string `json:"state"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Issue is a tracked unit of work. Comments are attached at read time; they
// are persisted separately and correlated by IssueID.
type Issue struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Assignee    string    `json:"assignee"`
	Reporter    string    `json:"reporter"`
	Labels      []string  `json:"labels"`
	StoryPoints float64   `json:"storyPoints"`
	SprintID    string    `json:"sprintId"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
	Comments    []Comment `json:"comments"`
}

// Comment is immutable once created and lives until its issue is deleted.
type Comment struct {
	ID        string `json:"id"`
	IssueID   string `json:"issueId"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

// SprintInput carries the fields accepted when creating a sprint.
type SprintInput struct {
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	State     string `json:"state"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SprintPatch carries a partial sprint update; nil fields are untouched.
type SprintPatch struct {
	Name      *string `json:"name"`
	Goal      *string `json:"goal"`
	State     *string `json:"state"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// IssueInput carries the fields accepted when creating an issue.
type IssueInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Assignee    string    `json:"assignee"`
	Reporter    string    `json:"reporter"`
	Labels      LabelList `json:"labels"`
	StoryPoints *float64  `json:"storyPoints"`
	SprintID    string    `json:"sprintId"`
}

// IssuePatch carries a partial issue update; nil fields are untouched.
type IssuePatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Type        *string    `json:"type"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	Assignee    *string    `json:"assignee"`
	Reporter    *string    `json:"reporter"`
	Labels      *LabelList `json:"labels"`
	StoryPoints *float64   `json:"storyPoints"`
	SprintID    *string    `json:"sprintId"`
}

// CommentInput carries the fields accepted when posting a comment.
type CommentInput struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// NewSprint builds a sprint from validated input.
func NewSprint(id string, in SprintInput, stamp string) Sprint {
	state := in.State
	if state == "" {
		state = "planned"
	}
	return Sprint{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Goal:      strings.TrimSpace(in.Goal),
		State:     state,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
}

// Apply copies the present fields of a validated patch onto the sprint and
// refreshes its updatedAt stamp.
func (s *Sprint) Apply(p SprintPatch, stamp string) {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Goal != nil {
		s.Goal = strings.TrimSpace(*p.Goal)
	}
	if p.State != nil {
		s.State = *p.State
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = *p.EndDate
	}
	s.UpdatedAt = stamp
}

// NewIssue builds an issue from validated input, normalizing the blank
// assignee and reporter to their defaults.
func NewIssue(id string, in IssueInput, stamp string) Issue {
	assignee := strings.TrimSpace(in.Assignee)
	if assignee == "" {
		assignee = Unassigned
	}
	reporter := strings.TrimSpace(in.Reporter)
	if reporter == "" {
		reporter = DefaultReporter
	}
	var points float64
	if in.StoryPoints != nil {
		points = *in.StoryPoints
	}
	labels := []string(in.Labels)
	if labels == nil {
		labels = []string{}
	}
	return Issue{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Status:      in.Status,
		Priority:    in.Priority,
		Assignee:    assignee,
		Reporter:    reporter,
		Labels:      labels,
		StoryPoints: points,
		SprintID:    strings.TrimSpace(in.SprintID),
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
		Comments:    []Comment{},
	}
}

// Apply copies the present fields of a validated patch onto the issue and
// refreshes its updatedAt stamp.
func (i *Issue) Apply(p IssuePatch, stamp string) {
	if p.Title != nil {
		i.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		i.Description = strings.TrimSpace(*p.Description)
	}
	if p.Type != nil {
		i.Type = *p.Type
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.Priority != nil {
		i.Priority = *p.Priority
	}
	if p.Assignee != nil {
		i.Assignee = strings.TrimSpace(*p.Assignee)
	}
	if p.Reporter != nil {
		i.Reporter = strings.TrimSpace(*p.Reporter)
	}
	if p.Labels != nil {
		i.Labels = []string(*p.Labels)
	}
	if p.StoryPoints != nil {
		i.StoryPoints = *p.StoryPoints
	}
	if p.SprintID != nil {
		i.SprintID = strings.TrimSpace(*p.SprintID)
	}
	i.UpdatedAt = stamp
}

// NewComment builds a comment from validated input, defaulting the author.
func NewComment(id, issueID string, in CommentInput, stamp string) Comment {
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = DefaultCommenter
	}
	return Comment{
		ID:        id,
		IssueID:   issueID,
		Author:    author,
		Body:      strings.TrimSpace(in.Body),
		CreatedAt: stamp,
	}
}

// SplitList splits a comma-separated string into trimmed non-empty items.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// AddUser appends the given names to the user set, skipping blanks, the
// unassigned sentinel, and names already present. The set only ever grows;
// historical participants stay listed.
func AddUser(users []string, names ...string) []string {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == Unassigned {
			continue
		}
		if !contains(users, name) {
			users = append(users, name)
		}
	}
	return users
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, item := range values {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
