package services

import (
	"context"
	"fmt"

	"github.com/helpmarq/backend/internal/metrics"
	"github.com/helpmarq/backend/pkg/logger"
)

// NotificationService turns queued events into emails.
type NotificationService struct {
	mailer Mailer
}

func NewNotificationService(mailer Mailer) *NotificationService {
	return &NotificationService{mailer: mailer}
}

// Deliver is the queue processor. Returning an error lets asynq retry the task.
func (s *NotificationService) Deliver(ctx context.Context, task *EventTask) error {
	if task.RecipientEmail == "" {
		logger.Debug().Str("event", task.Event).Msg("notification has no recipient address")
		metrics.NotificationDispatched(task.Event, "skipped")
		return nil
	}

	subject, body, err := renderEmail(task)
	if err != nil {
		metrics.NotificationDispatched(task.Event, "failed")
		return err
	}

	if err := s.mailer.Send(ctx, task.RecipientEmail, subject, body); err != nil {
		metrics.NotificationDispatched(task.Event, "failed")
		return fmt.Errorf("send %s email: %w", task.Event, err)
	}

	metrics.NotificationDispatched(task.Event, "sent")
	logger.Info().Str("event", task.Event).Str("to", task.RecipientEmail).Msg("notification sent")
	return nil
}
