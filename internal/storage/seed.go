package storage

import "board/internal/models"

// SeedData is the starter content both providers lay down on first use: the
// project, the default users, two sprints, three issues and one comment.
type SeedData struct {
	Project      models.Project
	Users        []string
	Sprints      []models.Sprint
	Issues       []models.Issue
	Comments     []models.Comment
	IssueCounter int64
}

// Seed builds the starter content with every timestamp set to createdAt.
// IssueCounter starts just past the seeded issues.
func Seed(createdAt string) SeedData {
	return SeedData{
		Project: models.Project{
			ID:          "project-voyager",
			Key:         "VGR",
			Name:        "Voyager",
			Description: "Main issue board for the Voyager project",
		},
		Users: append([]string(nil), models.DefaultUsers...),
		Sprints: []models.Sprint{
			{
				ID:        "sprint-1",
				Name:      "Sprint 1 - Core Loop",
				Goal:      "Stabilize the core gameplay loop",
				State:     "active",
				StartDate: "2026-02-10",
				EndDate:   "2026-02-24",
				CreatedAt: createdAt,
				UpdatedAt: createdAt,
			},
			{
				ID:        "sprint-2",
				Name:      "Sprint 2 - Economy",
				Goal:      "Roll out the initial economy system",
				State:     "planned",
				StartDate: "2026-02-25",
				EndDate:   "2026-03-10",
				CreatedAt: createdAt,
				UpdatedAt: createdAt,
			},
		},
		Issues: []models.Issue{
			{
				ID:          "VGR-1",
				Title:       "Implement player login",
				Description: "Add player authentication with a persistent session.",
				Type:        "Story",
				Status:      "In Progress",
				Priority:    "High",
				Assignee:    "Felipe",
				Reporter:    "Diana - PM",
				Labels:      []string{"backend", "auth"},
				StoryPoints: 5,
				SprintID:    "sprint-1",
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			},
			{
				ID:          "VGR-2",
				Title:       "Fix inventory freeze",
				Description: "The client locks up when items are dragged quickly.",
				Type:        "Bug",
				Status:      "To Do",
				Priority:    "Highest",
				Assignee:    "Marina",
				Reporter:    "Priya",
				Labels:      []string{"frontend", "inventory"},
				StoryPoints: 3,
				SprintID:    "sprint-1",
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			},
			{
				ID:          "VGR-3",
				Title:       "Draft starting economy",
				Description: "Model base currencies and shop prices.",
				Type:        "Task",
				Status:      "Backlog",
				Priority:    "Medium",
				Assignee:    "Igor",
				Reporter:    "Diana - PM",
				Labels:      []string{"design", "economy"},
				StoryPoints: 8,
				SprintID:    "sprint-2",
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			},
		},
		Comments: []models.Comment{
			{
				ID:        "comment-1",
				IssueID:   "VGR-2",
				Author:    "Priya",
				Body:      "Reproduces locally every time.",
				CreatedAt: createdAt,
			},
		},
		IssueCounter: 4,
	}
}
