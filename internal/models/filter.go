package models

import "strings"

// IssueFilter narrows an issue listing. Each list means "any of" and the
// populated criteria combine with AND. Both storage providers evaluate
// filters through Matches so their semantics cannot drift apart.
type IssueFilter struct {
	Statuses   []string
	Priorities []string
	Assignees  []string
	Types      []string
	SprintIDs  []string
	Search     string
}

// Matches reports whether the issue satisfies every populated criterion.
// Assignee comparison is case-insensitive; Search is a case-insensitive
// substring match over id, title, description, assignee, reporter and labels.
func (f IssueFilter) Matches(issue Issue) bool {
	if len(f.Statuses) > 0 && !contains(f.Statuses, issue.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, issue.Priority) {
		return false
	}
	if len(f.Types) > 0 && !contains(f.Types, issue.Type) {
		return false
	}
	if len(f.Assignees) > 0 && !containsFold(f.Assignees, issue.Assignee) {
		return false
	}
	if len(f.SprintIDs) > 0 && !contains(f.SprintIDs, issue.SprintID) {
		return false
	}
	if f.Search != "" {
		fields := []string{issue.ID, issue.Title, issue.Description, issue.Assignee, issue.Reporter}
		fields = append(fields, issue.Labels...)
		haystack := strings.ToLower(strings.Join(fields, " "))
		if !strings.Contains(haystack, strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}
