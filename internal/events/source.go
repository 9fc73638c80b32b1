// Package events wires entity writes to the notification pipeline. Handlers
// call it after the database write commits; everything past that point is
// decoupled from the request, so a notification problem can never fail the
// originating write.
package events

import (
	"log"

	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/notify"
	"github.com/taskhub-dev/taskhub/internal/roles"
	"gorm.io/gorm"
)

// Enqueuer is the dispatcher surface the source needs.
type Enqueuer interface {
	Enqueue(draft notify.Draft)
}

type Source struct {
	db         *gorm.DB
	roles      *roles.Store
	dispatcher Enqueuer

	// Publish, when set, pushes the recorded notification to the
	// recipient's live stream (websocket). Optional.
	Publish func(userID uint, record models.NotificationRecord)
}

func NewSource(db *gorm.DB, roleStore *roles.Store, dispatcher Enqueuer) *Source {
	return &Source{
		db:         db,
		roles:      roleStore,
		dispatcher: dispatcher,
	}
}

// TaskWritten fires the change event for a task create or update. It reloads
// the task so the event reflects the committed row, composes the draft for
// the assignee, records it, and hands it to the dispatcher.
func (s *Source) TaskWritten(taskID uint, wasCreated bool) {
	var task models.Task

	if err := s.db.Preload("Project").Preload("AssignedTo").First(&task, taskID).Error; err != nil {
		log.Printf("Failed to load task %d for notification: %v", taskID, err)
		return
	}

	drafts := notify.ComposeTaskEvent(task, task.Project.Name, wasCreated)
	s.record(drafts)
}

// MilestoneWritten fires the change event for a milestone create or update.
// Recipients are every user in the role group of the owning project's owner.
func (s *Source) MilestoneWritten(milestoneID uint, wasCreated bool) {
	var milestone models.Milestone

	if err := s.db.Preload("Project.Owner").First(&milestone, milestoneID).Error; err != nil {
		log.Printf("Failed to load milestone %d for notification: %v", milestoneID, err)
		return
	}

	recipients, err := s.roles.Members(milestone.Project.Owner.Role)
	if err != nil {
		log.Printf("Failed to resolve recipients for milestone %d: %v", milestoneID, err)
		return
	}

	drafts := notify.ComposeMilestoneEvent(milestone, milestone.Project.Name, wasCreated, recipients)
	s.record(drafts)
}

// record appends a NotificationRecord per draft, then enqueues delivery and
// publishes to any live stream. Record failures are logged, never surfaced.
func (s *Source) record(drafts []notify.Draft) {
	for _, draft := range drafts {
		rec := models.NotificationRecord{
			UserID:  draft.RecipientID,
			Subject: draft.Subject,
			Message: draft.Body,
		}

		if err := s.db.Create(&rec).Error; err != nil {
			log.Printf("Failed to record notification for user %d: %v", draft.RecipientID, err)
		}

		s.dispatcher.Enqueue(draft)

		if s.Publish != nil {
			s.Publish(draft.RecipientID, rec)
		}
	}
}
