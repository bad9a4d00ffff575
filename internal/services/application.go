package services

import (
	"context"
	"strings"
	"time"

	"github.com/helpmarq/backend/internal/metrics"
	"github.com/helpmarq/backend/internal/models"
	"github.com/helpmarq/backend/pkg/logger"
	"gorm.io/gorm"
)

// ApplicationService governs creation and review of applications.
type ApplicationService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewApplicationService(db *gorm.DB, notifier Notifier) *ApplicationService {
	return &ApplicationService{db: db, notifier: notifier, now: time.Now}
}

type SubmitApplicationRequest struct {
	ProjectID      uint   `json:"project_id" validate:"required"`
	ReviewerID     uint   `json:"reviewer_id" validate:"required"`
	Qualifications string `json:"qualifications" validate:"required,min=20,max=500"`
	FocusAreas     string `json:"focus_areas" validate:"required,min=20,max=500"`
	NDAAccepted    bool   `json:"nda_accepted" validate:"required"`
	// ApplicantIP is filled in by the transport layer, never from the body.
	ApplicantIP string `json:"-"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Submit creates a pending application for the (project, reviewer) pair.
// The unique index on the pair decides concurrent duplicates.
func (s *ApplicationService) Submit(ctx context.Context, actor Actor, req *SubmitApplicationRequest) (*models.Application, error) {
	req.Qualifications = strings.TrimSpace(req.Qualifications)
	req.FocusAreas = strings.TrimSpace(req.FocusAreas)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	project, err := findProject(db, req.ProjectID)
	if err != nil {
		return nil, err
	}
	reviewer, err := findReviewer(db, req.ReviewerID)
	if err != nil {
		return nil, err
	}

	if reviewer.UserID != actor.UserID {
		return nil, newError(ErrForbidden, "you can only apply with your own reviewer profile")
	}
	if project.OwnerID == actor.UserID {
		return nil, newError(ErrForbidden, "you cannot apply to your own project")
	}

	app := &models.Application{
		ProjectID:        project.ID,
		ReviewerID:       reviewer.ID,
		ReviewerUsername: reviewer.Username,
		Qualifications:   req.Qualifications,
		FocusAreas:       req.FocusAreas,
		NDAAccepted:      true,
		ApplicantIP:      req.ApplicantIP,
		Status:           models.ApplicationPending,
		AppliedAt:        s.now(),
	}
	app.NDAAcceptedAt = &app.AppliedAt

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			if isUniqueViolation(err) {
				return newError(ErrConflict, "you have already applied to this project")
			}
			return err
		}
		return increment(tx, &models.Project{}, project.ID, "applicants_count", 1)
	})
	if err != nil {
		return nil, err
	}
	project.ApplicantsCount++

	metrics.ApplicationSubmitted()
	logger.Info().Uint("application_id", app.ID).Uint("project_id", project.ID).Uint("reviewer_id", reviewer.ID).Msg("application submitted")

	notify(ctx, s.notifier, Event{
		Name:        EventApplicationReceived,
		OccurredAt:  app.AppliedAt,
		Project:     project,
		Reviewer:    reviewer,
		Application: app,
	})
	return app, nil
}

// Approve moves a pending application to approved and bumps the project's approved counter.
func (s *ApplicationService) Approve(ctx context.Context, actor Actor, id uint) (*models.Application, error) {
	return s.review(ctx, actor, id, models.ApplicationApproved, "")
}

// Reject moves a pending application to rejected with an optional reason.
func (s *ApplicationService) Reject(ctx context.Context, actor Actor, id uint, req *RejectApplicationRequest) (*models.Application, error) {
	reason := ""
	if req != nil {
		req.Reason = strings.TrimSpace(req.Reason)
		if err := validateStruct(req); err != nil {
			return nil, err
		}
		reason = req.Reason
	}
	return s.review(ctx, actor, id, models.ApplicationRejected, reason)
}

func (s *ApplicationService) review(ctx context.Context, actor Actor, id uint, next models.ApplicationStatus, reason string) (*models.Application, error) {
	db := s.db.WithContext(ctx)

	app, err := findApplication(db, id)
	if err != nil {
		return nil, err
	}
	project, err := findProject(db, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.UserID {
		return nil, newError(ErrForbidden, "only the project owner can review applications")
	}
	if app.Status.Terminal() {
		return nil, newError(ErrInvalidState, "application has already been %s", app.Status)
	}
	if err := app.Status.CanTransitionTo(next); err != nil {
		return nil, newError(ErrInvalidState, "%v", err)
	}

	reviewedAt := s.now()
	updates := map[string]interface{}{
		"status":      next,
		"reviewed_at": reviewedAt,
	}
	if next == models.ApplicationRejected && reason != "" {
		updates["rejection_reason"] = reason
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Conditioned on pending so a concurrent reviewer loses cleanly
		result := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, models.ApplicationPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(ErrInvalidState, "application is no longer pending")
		}
		if next == models.ApplicationApproved {
			return increment(tx, &models.Project{}, project.ID, "approved_count", 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Status = next
	app.ReviewedAt = &reviewedAt
	if next == models.ApplicationRejected {
		app.RejectionReason = reason
	} else {
		project.ApprovedCount++
	}

	metrics.ApplicationReviewed(string(next))
	logger.Info().Uint("application_id", app.ID).Str("status", string(next)).Msg("application reviewed")

	event := Event{
		Name:        EventApplicationApproved,
		OccurredAt:  reviewedAt,
		Project:     project,
		Application: app,
	}
	if next == models.ApplicationRejected {
		event.Name = EventApplicationRejected
	}
	if reviewer, err := findReviewer(db, app.ReviewerID); err == nil {
		event.Reviewer = reviewer
	} else {
		logger.Warn().Err(err).Uint("reviewer_id", app.ReviewerID).Msg("reviewer lookup for notification failed")
	}
	notify(ctx, s.notifier, event)

	return app, nil
}

// GetByID returns an application with its project and reviewer.
// Only the project owner and the applying reviewer may read it.
func (s *ApplicationService) GetByID(ctx context.Context, actor Actor, id uint) (*models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).
		Preload("Project", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("Reviewer").
		First(&app, id).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, newError(ErrNotFound, "application not found")
		}
		return nil, err
	}

	isOwner := app.Project != nil && app.Project.OwnerID == actor.UserID
	isApplicant := app.Reviewer != nil && app.Reviewer.UserID == actor.UserID
	if !isOwner && !isApplicant {
		return nil, newError(ErrForbidden, "you can only view applications you own or made")
	}
	return &app, nil
}

// ListByProject returns a project's applications, newest first. Owner only.
func (s *ApplicationService) ListByProject(ctx context.Context, actor Actor, projectID uint) ([]models.Application, error) {
	db := s.db.WithContext(ctx)

	project, err := findProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.UserID {
		return nil, newError(ErrForbidden, "only the project owner can list its applications")
	}

	var apps []models.Application
	if err := db.Preload("Reviewer").
		Where("project_id = ?", projectID).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// ListByReviewer returns a reviewer's own applications, newest first.
func (s *ApplicationService) ListByReviewer(ctx context.Context, actor Actor, reviewerID uint) ([]models.Application, error) {
	db := s.db.WithContext(ctx)

	reviewer, err := findReviewer(db, reviewerID)
	if err != nil {
		return nil, err
	}
	if reviewer.UserID != actor.UserID {
		return nil, newError(ErrForbidden, "you can only list your own applications")
	}

	var apps []models.Application
	if err := db.Preload("Project").
		Where("reviewer_id = ?", reviewerID).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func findProject(db *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, newError(ErrNotFound, "project not found")
		}
		return nil, err
	}
	return &project, nil
}

func findReviewer(db *gorm.DB, id uint) (*models.Reviewer, error) {
	var reviewer models.Reviewer
	if err := db.First(&reviewer, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, newError(ErrNotFound, "reviewer not found")
		}
		return nil, err
	}
	return &reviewer, nil
}

func findApplication(db *gorm.DB, id uint) (*models.Application, error) {
	var app models.Application
	if err := db.First(&app, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, newError(ErrNotFound, "application not found")
		}
		return nil, err
	}
	return &app, nil
}
