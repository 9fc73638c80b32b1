// Package notify builds notification drafts from entity-change events and
// delivers them asynchronously.
package notify

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhub-dev/taskhub/internal/models"
)

// Draft is a composed, not-yet-delivered notification. The ID is only used
// to correlate delivery attempts in logs.
type Draft struct {
	ID             uuid.UUID
	RecipientID    uint
	RecipientEmail string
	Subject        string
	Body           string
}

// ComposeTaskEvent builds the draft for a task create or update. A task
// notifies exactly its assignee; an unassigned task yields no drafts.
func ComposeTaskEvent(task models.Task, projectName string, wasCreated bool) []Draft {
	if task.AssignedTo == nil {
		return nil
	}

	var subject, body string

	if wasCreated {
		subject = fmt.Sprintf("New Task Created: %s", task.Name)
		body = fmt.Sprintf("A new task has been created in the project %s.", projectName)
	} else {
		subject = fmt.Sprintf("Task Updated: %s", task.Name)
		body = fmt.Sprintf("The task in the project %s has been updated.", projectName)
	}

	return []Draft{{
		ID:             uuid.New(),
		RecipientID:    task.AssignedTo.ID,
		RecipientEmail: task.AssignedTo.Email,
		Subject:        subject,
		Body:           body,
	}}
}

// ComposeMilestoneEvent builds one draft per recipient for a milestone
// create or update. Recipients are the role cohort of the owning project's
// owner, resolved by the caller.
func ComposeMilestoneEvent(milestone models.Milestone, projectName string, wasCreated bool, recipients []models.User) []Draft {
	var subject, body string

	if wasCreated {
		subject = fmt.Sprintf("New Milestone Created: %s", milestone.Name)
		body = fmt.Sprintf("A new milestone has been created in the project %s.", projectName)
	} else {
		subject = fmt.Sprintf("Milestone Updated: %s", milestone.Name)
		body = fmt.Sprintf("The milestone in the project %s has been updated.", projectName)
	}

	drafts := make([]Draft, 0, len(recipients))

	for _, user := range recipients {
		drafts = append(drafts, Draft{
			ID:             uuid.New(),
			RecipientID:    user.ID,
			RecipientEmail: user.Email,
			Subject:        subject,
			Body:           body,
		})
	}

	return drafts
}
