package services

import (
	"context"
	"time"

	"github.com/helpmarq/backend/internal/metrics"
	"github.com/helpmarq/backend/internal/models"
	"github.com/helpmarq/backend/pkg/logger"
)

// Event names emitted by the workflows.
const (
	EventApplicationReceived = "application.received"
	EventApplicationApproved = "application.approved"
	EventApplicationRejected = "application.rejected"
	EventFeedbackSubmitted   = "feedback.submitted"
	EventFeedbackRated       = "feedback.rated"
	EventProjectCreated      = "project.created"
	EventMessageSent         = "message.sent"
	EventDeadlineReminder    = "deadline.reminder"
)

// Event is a snapshot of the entities involved in a state change.
// Pointers are copies taken after the change committed; nil when not relevant.
type Event struct {
	Name        string
	OccurredAt  time.Time
	Project     *models.Project
	Reviewer    *models.Reviewer
	Application *models.Application
	Feedback    *models.Feedback
	Message     *models.Message

	XPAwarded     int
	PreviousLevel int
	LeveledUp     bool
	HoursLeft     int
	FirstProject  bool
}

// Notifier is a fire-and-forget sink for workflow events.
// Implementations must not block on delivery and never report failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

// EventDispatcher fans events out to live SSE subscribers and the delivery queue.
type EventDispatcher struct {
	queue TaskQueue
	hub   *SSEHub
}

func NewEventDispatcher(queue TaskQueue, hub *SSEHub) *EventDispatcher {
	return &EventDispatcher{queue: queue, hub: hub}
}

func (d *EventDispatcher) Notify(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	task := NewEventTask(event)

	if d.hub != nil {
		d.hub.Publish(task.StreamEvent())
	}

	if d.queue == nil {
		metrics.NotificationDispatched(event.Name, "skipped")
		return
	}
	if err := d.queue.Enqueue(task); err != nil {
		logger.Warn().Err(err).Str("event", event.Name).Msg("notification enqueue failed")
		metrics.NotificationDispatched(event.Name, "failed")
		return
	}
	metrics.NotificationDispatched(event.Name, "queued")
}

// notify guards workflows against a nil notifier and a panicking one.
func notify(ctx context.Context, n Notifier, event Event) {
	if n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Interface("panic", r).Str("event", event.Name).Msg("notifier panicked")
		}
	}()
	n.Notify(ctx, event)
}

// NewEventTask flattens an event into a serialisable delivery job and picks its recipient.
func NewEventTask(ev Event) *EventTask {
	t := &EventTask{
		Event:         ev.Name,
		OccurredAt:    ev.OccurredAt,
		XPAwarded:     ev.XPAwarded,
		PreviousLevel: ev.PreviousLevel,
		LeveledUp:     ev.LeveledUp,
		HoursLeft:     ev.HoursLeft,
		FirstProject:  ev.FirstProject,
	}

	if p := ev.Project; p != nil {
		t.ProjectID = p.ID
		t.ProjectTitle = p.Title
		t.ProjectLink = p.Link
		t.ProjectCategory = p.Category
		t.XPReward = p.XPReward
		t.Deadline = p.Deadline
		t.OwnerID = p.OwnerID
		t.OwnerName = p.OwnerName
		t.OwnerEmail = p.OwnerEmail
	}
	if r := ev.Reviewer; r != nil {
		t.ReviewerID = r.ID
		t.ReviewerUserID = r.UserID
		t.ReviewerUsername = r.Username
		t.ReviewerEmail = r.Email
		t.ReviewerXP = r.XP
		t.ReviewerLevel = r.Level
		t.ReviewerTotalReviews = r.TotalReviews
		t.ReviewerAverageRating = r.AverageRating
	}
	if a := ev.Application; a != nil {
		t.ApplicationID = a.ID
		t.Qualifications = a.Qualifications
		t.FocusAreas = a.FocusAreas
		t.RejectionReason = a.RejectionReason
		if t.ReviewerUsername == "" {
			t.ReviewerUsername = a.ReviewerUsername
		}
	}
	if f := ev.Feedback; f != nil {
		t.FeedbackID = f.ID
		t.FeedbackPreview = preview(f.FeedbackText, 200)
		t.ProjectRating = f.ProjectRating
		t.OwnerRating = f.OwnerRating
	}
	if m := ev.Message; m != nil {
		t.MessageID = m.ID
		t.ApplicationID = m.ApplicationID
		t.SenderName = m.SenderName
		t.SenderRole = m.SenderRole
		t.MessagePreview = preview(m.Text, 200)
	}

	switch ev.Name {
	case EventApplicationReceived, EventFeedbackSubmitted, EventProjectCreated:
		t.RecipientName, t.RecipientEmail = t.OwnerName, t.OwnerEmail
	case EventApplicationApproved, EventApplicationRejected, EventFeedbackRated, EventDeadlineReminder:
		t.RecipientName, t.RecipientEmail = t.ReviewerUsername, t.ReviewerEmail
	case EventMessageSent:
		if t.SenderRole == "owner" {
			t.RecipientName, t.RecipientEmail = t.ReviewerUsername, t.ReviewerEmail
		} else {
			t.RecipientName, t.RecipientEmail = t.OwnerName, t.OwnerEmail
		}
	}
	return t
}

func preview(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
