package services

import (
	"context"
	"strings"
	"time"

	"github.com/helpmarq/backend/internal/models"
	"github.com/helpmarq/backend/pkg/logger"
	"gorm.io/gorm"
)

// Project categories accepted on create.
var ProjectCategories = []string{"website", "app", "design", "pitch", "business", "other"}

type ProjectService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewProjectService(db *gorm.DB, notifier Notifier) *ProjectService {
	return &ProjectService{db: db, notifier: notifier, now: time.Now}
}

type ProjectListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Category string `form:"category"`
	MinXP    int    `form:"min_xp"`
	OwnerID  string `form:"owner_id"`
	Status   string `form:"status"`
	Sort     string `form:"sort"` // newest, oldest, highestXP, lowestXP, mostApplicants
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Title            string    `json:"title" validate:"required,min=5,max=100"`
	Description      string    `json:"description" validate:"required,min=20,max=500"`
	Category         string    `json:"category" validate:"required,oneof=website app design pitch business other"`
	Link             string    `json:"link" validate:"required,url,max=500"`
	ImageURL         string    `json:"image_url" validate:"omitempty,url,max=500"`
	ReviewFocusAreas []string  `json:"review_focus_areas" validate:"required,min=1,max=8,dive,required,max=50"`
	XPReward         int       `json:"xp_reward" validate:"required,min=50,max=500"`
	Deadline         time.Time `json:"deadline" validate:"required"`
}

type UpdateProjectStatusRequest struct {
	Status models.ProjectStatus `json:"status" validate:"required"`
}

var projectSorts = map[string]string{
	"newest":         "created_at DESC",
	"oldest":         "created_at ASC",
	"highestXP":      "xp_reward DESC",
	"lowestXP":       "xp_reward ASC",
	"mostApplicants": "applicants_count DESC",
}

// List returns paginated projects. Without an explicit status only open projects are listed.
func (s *ProjectService) List(ctx context.Context, req *ProjectListRequest) (*ProjectListResponse, error) {
	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize, 12)

	var projects []models.Project
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Project{})

	if req.Status != "" {
		if !models.ProjectStatus(req.Status).Valid() {
			return nil, fieldError("status", "unknown project status")
		}
		query = query.Where("status = ?", req.Status)
	} else if req.OwnerID == "" {
		query = query.Where("status = ?", models.ProjectOpen)
	}
	if req.Category != "" && req.Category != "all" {
		query = query.Where("category = ?", req.Category)
	}
	if req.MinXP > 0 {
		query = query.Where("xp_reward >= ?", req.MinXP)
	}
	if req.OwnerID != "" {
		query = query.Where("owner_id = ?", req.OwnerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	order, ok := projectSorts[req.Sort]
	if !ok {
		order = projectSorts["newest"]
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order(order).Order("id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project by ID
func (s *ProjectService) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	return findProject(s.db.WithContext(ctx), id)
}

// Create lists a new open project owned by the actor
func (s *ProjectService) Create(ctx context.Context, actor Actor, req *CreateProjectRequest) (*models.Project, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Link = strings.TrimSpace(req.Link)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	for i, area := range req.ReviewFocusAreas {
		req.ReviewFocusAreas[i] = strings.TrimSpace(area)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.Deadline.After(s.now()) {
		return nil, fieldError("deadline", "must be in the future")
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Project{}).Where("owner_id = ?", actor.UserID).Count(&existing).Error; err != nil {
		return nil, err
	}

	ownerName := actor.Username
	if ownerName == "" {
		ownerName = actor.Email
	}

	project := models.Project{
		OwnerID:          actor.UserID,
		OwnerName:        ownerName,
		OwnerEmail:       actor.Email,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Link:             req.Link,
		ImageURL:         req.ImageURL,
		ReviewFocusAreas: req.ReviewFocusAreas,
		XPReward:         req.XPReward,
		Deadline:         req.Deadline,
		Status:           models.ProjectOpen,
	}

	if err := db.Create(&project).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("project_id", project.ID).Str("owner_id", actor.UserID).Msg("project created")

	notify(ctx, s.notifier, Event{
		Name:         EventProjectCreated,
		OccurredAt:   project.CreatedAt,
		Project:      &project,
		FirstProject: existing == 0,
	})
	return &project, nil
}

// UpdateStatus changes a project's lifecycle state. Owner only.
func (s *ProjectService) UpdateStatus(ctx context.Context, actor Actor, id uint, req *UpdateProjectStatusRequest) (*models.Project, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, fieldError("status", "must be one of: open in-progress completed closed")
	}

	db := s.db.WithContext(ctx)
	project, err := findProject(db, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.UserID {
		return nil, newError(ErrForbidden, "only the project owner can change its status")
	}

	if err := db.Model(project).Update("status", req.Status).Error; err != nil {
		return nil, err
	}
	project.Status = req.Status
	return project, nil
}

// Delete soft-deletes a project. Owner only.
func (s *ProjectService) Delete(ctx context.Context, actor Actor, id uint) error {
	db := s.db.WithContext(ctx)
	project, err := findProject(db, id)
	if err != nil {
		return err
	}
	if project.OwnerID != actor.UserID {
		return newError(ErrForbidden, "only the project owner can delete it")
	}
	return db.Delete(project).Error
}
