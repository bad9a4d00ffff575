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

// FeedbackService governs feedback submission and the one-time owner rating.
type FeedbackService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewFeedbackService(db *gorm.DB, notifier Notifier) *FeedbackService {
	return &FeedbackService{db: db, notifier: notifier, now: time.Now}
}

type SubmitFeedbackRequest struct {
	ProjectID     uint   `json:"project_id" validate:"required"`
	ReviewerID    uint   `json:"reviewer_id" validate:"required"`
	FeedbackText  string `json:"feedback_text" validate:"required,min=50,max=2000"`
	ProjectRating *int   `json:"project_rating" validate:"omitempty,min=1,max=5"`
}

type RateFeedbackRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// RatingResult describes the reputation change caused by a rating.
type RatingResult struct {
	Feedback      *models.Feedback `json:"feedback"`
	Reviewer      *models.Reviewer `json:"reviewer"`
	XPAwarded     int              `json:"xp_awarded"`
	PreviousLevel int              `json:"previous_level"`
	NewLevel      int              `json:"new_level"`
	LeveledUp     bool             `json:"leveled_up"`
}

// Submit stores a reviewer's feedback. The pair must hold an approved application.
func (s *FeedbackService) Submit(ctx context.Context, actor Actor, req *SubmitFeedbackRequest) (*models.Feedback, error) {
	req.FeedbackText = strings.TrimSpace(req.FeedbackText)
	db := s.db.WithContext(ctx)

	// Authorization is settled before field validation
	reviewer, err := findReviewer(db, req.ReviewerID)
	if err != nil {
		return nil, err
	}
	if reviewer.UserID != actor.UserID {
		return nil, newError(ErrForbidden, "you can only submit feedback as yourself")
	}
	project, err := findProject(db, req.ProjectID)
	if err != nil {
		return nil, err
	}

	var approved int64
	if err := db.Model(&models.Application{}).
		Where("project_id = ? AND reviewer_id = ? AND status = ?", project.ID, reviewer.ID, models.ApplicationApproved).
		Count(&approved).Error; err != nil {
		return nil, err
	}
	if approved == 0 {
		return nil, newError(ErrForbidden, "you must be approved to submit feedback for this project")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	feedback := &models.Feedback{
		ProjectID:        project.ID,
		ReviewerID:       reviewer.ID,
		ReviewerUsername: reviewer.Username,
		FeedbackText:     req.FeedbackText,
		ProjectRating:    req.ProjectRating,
		SubmittedAt:      s.now(),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(feedback).Error; err != nil {
			if isUniqueViolation(err) {
				return newError(ErrConflict, "you have already submitted feedback for this project")
			}
			return err
		}
		return increment(tx, &models.Project{}, project.ID, "reviews_count", 1)
	})
	if err != nil {
		return nil, err
	}
	project.ReviewsCount++

	metrics.FeedbackSubmitted()
	logger.Info().Uint("feedback_id", feedback.ID).Uint("project_id", project.ID).Uint("reviewer_id", reviewer.ID).Msg("feedback submitted")

	notify(ctx, s.notifier, Event{
		Name:       EventFeedbackSubmitted,
		OccurredAt: feedback.SubmittedAt,
		Project:    project,
		Reviewer:   reviewer,
		Feedback:   feedback,
	})
	return feedback, nil
}

// Rate records the owner's rating and pays the reviewer exactly once.
// The flip of is_rated is conditioned on its prior value; only the winner
// touches the reviewer, inside the same transaction.
func (s *FeedbackService) Rate(ctx context.Context, actor Actor, feedbackID uint, req *RateFeedbackRequest) (*RatingResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	feedback, err := findFeedback(db, feedbackID)
	if err != nil {
		return nil, err
	}
	// A deleted project's feedback can still be rated and paid out
	project, err := findProject(db.Unscoped(), feedback.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.UserID {
		return nil, newError(ErrForbidden, "only the project owner can rate feedback")
	}
	if feedback.IsRated {
		return nil, newError(ErrInvalidState, "feedback has already been rated")
	}

	rating := req.Rating
	xp := XPForRating(project.XPReward, rating)
	ratedAt := s.now()

	var reviewer models.Reviewer
	var previousLevel int
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Feedback{}).
			Where("id = ? AND is_rated = ?", feedback.ID, false).
			Updates(map[string]interface{}{
				"owner_rating": rating,
				"xp_awarded":   xp,
				"is_rated":     true,
				"rated_at":     ratedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(ErrInvalidState, "feedback has already been rated")
		}

		result = tx.Model(&models.Reviewer{}).
			Where("id = ?", feedback.ReviewerID).
			UpdateColumns(map[string]interface{}{
				"xp":            gorm.Expr("xp + ?", xp),
				"total_reviews": gorm.Expr("total_reviews + ?", 1),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(ErrNotFound, "reviewer not found")
		}

		// The row is now held by this transaction, so the level read here
		// is the one committed by the previous rating.
		if err := tx.First(&reviewer, feedback.ReviewerID).Error; err != nil {
			return err
		}
		previousLevel = reviewer.Level

		var ratings []int
		if err := tx.Model(&models.Feedback{}).
			Where("reviewer_id = ? AND is_rated = ?", reviewer.ID, true).
			Pluck("owner_rating", &ratings).Error; err != nil {
			return err
		}

		reviewer.Level = LevelForXP(reviewer.XP)
		reviewer.AverageRating = AverageRating(ratings)
		return tx.Model(&models.Reviewer{}).
			Where("id = ?", reviewer.ID).
			UpdateColumns(map[string]interface{}{
				"level":          reviewer.Level,
				"average_rating": reviewer.AverageRating,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	feedback.OwnerRating = &rating
	feedback.XPAwarded = xp
	feedback.IsRated = true
	feedback.RatedAt = &ratedAt

	res := &RatingResult{
		Feedback:      feedback,
		Reviewer:      &reviewer,
		XPAwarded:     xp,
		PreviousLevel: previousLevel,
		NewLevel:      reviewer.Level,
		LeveledUp:     reviewer.Level > previousLevel,
	}

	metrics.FeedbackRated(rating, xp)
	logger.Info().
		Uint("feedback_id", feedback.ID).
		Uint("reviewer_id", reviewer.ID).
		Int("rating", rating).
		Int("xp_awarded", xp).
		Bool("leveled_up", res.LeveledUp).
		Msg("feedback rated")

	notify(ctx, s.notifier, Event{
		Name:          EventFeedbackRated,
		OccurredAt:    ratedAt,
		Project:       project,
		Reviewer:      &reviewer,
		Feedback:      feedback,
		XPAwarded:     xp,
		PreviousLevel: previousLevel,
		LeveledUp:     res.LeveledUp,
	})
	return res, nil
}

// ListByProject returns a project's feedback, newest first.
func (s *FeedbackService) ListByProject(ctx context.Context, projectID uint) ([]models.Feedback, error) {
	db := s.db.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}

	var items []models.Feedback
	if err := db.Where("project_id = ?", projectID).
		Order("submitted_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByReviewer returns a reviewer's feedback with project details, newest first.
func (s *FeedbackService) ListByReviewer(ctx context.Context, reviewerID uint) ([]models.Feedback, error) {
	db := s.db.WithContext(ctx)
	if _, err := findReviewer(db, reviewerID); err != nil {
		return nil, err
	}

	var items []models.Feedback
	if err := db.Preload("Project").
		Where("reviewer_id = ?", reviewerID).
		Order("submitted_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func findFeedback(db *gorm.DB, id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := db.First(&feedback, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, newError(ErrNotFound, "feedback not found")
		}
		return nil, err
	}
	return &feedback, nil
}
