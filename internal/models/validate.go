package models

import (
	"fmt"
	"strings"
)

func enumProblem(field string, allowed []string) string {
	return fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}

// ValidateNewSprint checks the fields required to create a sprint. The
// endDate >= startDate rule is enforced by the board client, not here.
func ValidateNewSprint(in SprintInput) error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if in.State != "" && !contains(SprintStates, in.State) {
		problems = append(problems, enumProblem("state", SprintStates))
	}
	if in.StartDate == "" || in.EndDate == "" {
		problems = append(problems, "startDate and endDate are required (YYYY-MM-DD)")
	}
	return Validation(problems...)
}

// ValidateSprintPatch checks only the fields present in a partial update.
func ValidateSprintPatch(p SprintPatch) error {
	var problems []string
	if p.State != nil && !contains(SprintStates, *p.State) {
		problems = append(problems, enumProblem("state", SprintStates))
	}
	return Validation(problems...)
}

// ValidateNewIssue checks the fields required to create an issue.
func ValidateNewIssue(in IssueInput) error {
	var problems []string
	if strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !contains(Types, in.Type) {
		problems = append(problems, enumProblem("type", Types))
	}
	if !contains(Statuses, in.Status) {
		problems = append(problems, enumProblem("status", Statuses))
	}
	if !contains(Priorities, in.Priority) {
		problems = append(problems, enumProblem("priority", Priorities))
	}
	if in.StoryPoints != nil && (*in.StoryPoints < 0 || *in.StoryPoints > 100) {
		problems = append(problems, "storyPoints must be a number between 0 and 100")
	}
	return Validation(problems...)
}

// ValidateIssuePatch checks only the fields present in a partial update.
func ValidateIssuePatch(p IssuePatch) error {
	var problems []string
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		problems = append(problems, "title is required")
	}
	if p.Type != nil && !contains(Types, *p.Type) {
		problems = append(problems, enumProblem("type", Types))
	}
	if p.Status != nil && !contains(Statuses, *p.Status) {
		problems = append(problems, enumProblem("status", Statuses))
	}
	if p.Priority != nil && !contains(Priorities, *p.Priority) {
		problems = append(problems, enumProblem("priority", Priorities))
	}
	if p.StoryPoints != nil && (*p.StoryPoints < 0 || *p.StoryPoints > 100) {
		problems = append(problems, "storyPoints must be a number between 0 and 100")
	}
	return Validation(problems...)
}

// ValidateNewComment checks the fields required to post a comment.
func ValidateNewComment(in CommentInput) error {
	var problems []string
	if strings.TrimSpace(in.Body) == "" {
		problems = append(problems, "body is required")
	}
	return Validation(problems...)
}
