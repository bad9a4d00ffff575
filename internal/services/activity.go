package services

import (
	"context"
	"time"

	"github.com/helpmarq/backend/internal/models"
	"gorm.io/gorm"
)

const activityWindow = 7 * 24 * time.Hour

// ActivityService summarises what needs the caller's attention.
type ActivityService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db, now: time.Now}
}

type OwnerActivity struct {
	NewApplicants   int64 `json:"new_applicants"`
	NewFeedback     int64 `json:"new_feedback"`
	UnratedFeedback int64 `json:"unrated_feedback"`
}

type ReviewerActivity struct {
	ApplicationApproved int64 `json:"application_approved"`
	ApplicationRejected int64 `json:"application_rejected"`
	FeedbackRated       int64 `json:"feedback_rated"`
}

type ActivitySummary struct {
	Owner    OwnerActivity    `json:"owner"`
	Reviewer ReviewerActivity `json:"reviewer"`
}

// Summary counts pending work on the actor's projects and recent outcomes of the
// actor's reviewer profile, over the last seven days where relevant.
func (s *ActivityService) Summary(ctx context.Context, actor Actor) (*ActivitySummary, error) {
	db := s.db.WithContext(ctx)
	since := s.now().Add(-activityWindow)
	var out ActivitySummary

	owned := db.Model(&models.Project{}).Select("id").Where("owner_id = ?", actor.UserID)

	if err := db.Model(&models.Application{}).
		Where("project_id IN (?) AND status = ?", owned, models.ApplicationPending).
		Count(&out.Owner.NewApplicants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Feedback{}).
		Where("project_id IN (?) AND is_rated = ?", owned, false).
		Count(&out.Owner.UnratedFeedback).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Feedback{}).
		Where("project_id IN (?) AND is_rated = ? AND submitted_at >= ?", owned, false, since).
		Count(&out.Owner.NewFeedback).Error; err != nil {
		return nil, err
	}

	var reviewer models.Reviewer
	err := db.Where("user_id = ?", actor.UserID).First(&reviewer).Error
	if isRecordNotFound(err) {
		return &out, nil
	}
	if err != nil {
		return nil, err
	}

	if err := db.Model(&models.Application{}).
		Where("reviewer_id = ? AND status = ? AND reviewed_at >= ?", reviewer.ID, models.ApplicationApproved, since).
		Count(&out.Reviewer.ApplicationApproved).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Application{}).
		Where("reviewer_id = ? AND status = ? AND reviewed_at >= ?", reviewer.ID, models.ApplicationRejected, since).
		Count(&out.Reviewer.ApplicationRejected).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Feedback{}).
		Where("reviewer_id = ? AND is_rated = ? AND rated_at >= ?", reviewer.ID, true, since).
		Count(&out.Reviewer.FeedbackRated).Error; err != nil {
		return nil, err
	}

	return &out, nil
}
