package services

import (
	"context"
	"strings"
	"time"

	"github.com/helpmarq/backend/internal/models"
	"gorm.io/gorm"
)

const (
	SenderOwner    = "owner"
	SenderReviewer = "reviewer"
)

// MessageService carries the chat between an owner and an approved reviewer.
type MessageService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewMessageService(db *gorm.DB, notifier Notifier) *MessageService {
	return &MessageService{db: db, notifier: notifier}
}

type SendMessageRequest struct {
	ApplicationID uint   `json:"application_id" validate:"required"`
	Text          string `json:"text" validate:"required,min=1,max=1000"`
}

type thread struct {
	app      *models.Application
	project  *models.Project
	reviewer *models.Reviewer
	role     string
}

// openThread checks the application is approved and the actor is one of its two parties.
func openThread(db *gorm.DB, actor Actor, applicationID uint) (*thread, error) {
	app, err := findApplication(db, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationApproved {
		return nil, newError(ErrForbidden, "messaging is only available for approved applications")
	}
	project, err := findProject(db, app.ProjectID)
	if err != nil {
		return nil, err
	}
	reviewer, err := findReviewer(db, app.ReviewerID)
	if err != nil {
		return nil, err
	}

	t := &thread{app: app, project: project, reviewer: reviewer}
	switch actor.UserID {
	case project.OwnerID:
		t.role = SenderOwner
	case reviewer.UserID:
		t.role = SenderReviewer
	default:
		return nil, newError(ErrForbidden, "you are not part of this conversation")
	}
	return t, nil
}

func (s *MessageService) Send(ctx context.Context, actor Actor, req *SendMessageRequest) (*models.Message, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	t, err := openThread(db, actor, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	name := actor.Username
	if t.role == SenderReviewer {
		name = t.reviewer.Username
	} else if name == "" {
		name = t.project.OwnerName
	}

	msg := models.Message{
		ApplicationID: t.app.ID,
		SenderID:      actor.UserID,
		SenderRole:    t.role,
		SenderName:    name,
		Text:          req.Text,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, Event{
		Name:        EventMessageSent,
		OccurredAt:  msg.CreatedAt,
		Project:     t.project,
		Reviewer:    t.reviewer,
		Application: t.app,
		Message:     &msg,
	})
	return &msg, nil
}

// List returns the thread oldest first and marks the counterpart's messages read.
func (s *MessageService) List(ctx context.Context, actor Actor, applicationID uint) ([]models.Message, error) {
	db := s.db.WithContext(ctx)
	t, err := openThread(db, actor, applicationID)
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	if err := db.Where("application_id = ?", t.app.ID).
		Order("created_at ASC").Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Message{}).
		Where("application_id = ? AND sender_id <> ? AND is_read = ?", t.app.ID, actor.UserID, false).
		Update("is_read", true).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
