package services

import (
	"context"
	"strings"

	"github.com/helpmarq/backend/internal/models"
	"github.com/helpmarq/backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewerService struct {
	db *gorm.DB
}

func NewReviewerService(db *gorm.DB) *ReviewerService {
	return &ReviewerService{db: db}
}

type CreateReviewerRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=50"` // display name, spaces allowed
	Email      string `json:"email" validate:"omitempty,email"`
	Expertise  string `json:"expertise" validate:"required,expertise"`
	Experience string `json:"experience" validate:"required,experience"`
	Portfolio  string `json:"portfolio" validate:"max=500"`
	Bio        string `json:"bio" validate:"required,min=50,max=500"`
}

type LeaderboardRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Sort     string `form:"sort"` // xp, level, reviews, rating, newest
}

type ReviewerListResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Items    []models.Reviewer `json:"items"`
}

var reviewerSorts = map[string]string{
	"xp":      "xp DESC",
	"level":   "level DESC, xp DESC",
	"reviews": "total_reviews DESC",
	"rating":  "average_rating DESC",
	"newest":  "created_at DESC",
}

// CreateProfile registers the actor as a reviewer. One profile per user.
func (s *ReviewerService) CreateProfile(ctx context.Context, actor Actor, req *CreateReviewerRequest) (*models.Reviewer, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Bio = strings.TrimSpace(req.Bio)
	req.Portfolio = strings.TrimSpace(req.Portfolio)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		req.Email = strings.ToLower(actor.Email)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, fieldError("email", "is required")
	}

	reviewer := models.Reviewer{
		UserID:     actor.UserID,
		Username:   req.Username,
		Email:      req.Email,
		Expertise:  req.Expertise,
		Experience: req.Experience,
		Portfolio:  req.Portfolio,
		Bio:        req.Bio,
		Level:      1,
	}

	if err := s.db.WithContext(ctx).Create(&reviewer).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newError(ErrConflict, "reviewer profile or username already exists")
		}
		return nil, err
	}

	logger.Info().Uint("reviewer_id", reviewer.ID).Str("username", reviewer.Username).Msg("reviewer profile created")
	return &reviewer, nil
}

func (s *ReviewerService) GetByID(ctx context.Context, id uint) (*models.Reviewer, error) {
	return findReviewer(s.db.WithContext(ctx), id)
}

// GetByUserID returns the reviewer profile of an identity-provider user.
func (s *ReviewerService) GetByUserID(ctx context.Context, userID string) (*models.Reviewer, error) {
	var reviewer models.Reviewer
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&reviewer).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, newError(ErrNotFound, "reviewer profile not found")
		}
		return nil, err
	}
	return &reviewer, nil
}

// Leaderboard lists reviewers ordered by the requested reputation measure.
func (s *ReviewerService) Leaderboard(ctx context.Context, req *LeaderboardRequest) (*ReviewerListResponse, error) {
	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize, 20)

	order, ok := reviewerSorts[req.Sort]
	if !ok {
		order = reviewerSorts["xp"]
	}

	var total int64
	query := s.db.WithContext(ctx).Model(&models.Reviewer{})
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Reviewer
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order(order).Order("id ASC").Offset(offset).Limit(req.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &ReviewerListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}
