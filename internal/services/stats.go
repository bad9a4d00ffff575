package services

import (
	"context"
	"time"

	"github.com/helpmarq/backend/internal/models"
	"gorm.io/gorm"
)

// StatsService aggregates platform-wide figures for the public stats page.
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

type PlatformTotals struct {
	Projects             int64 `json:"projects"`
	Reviewers            int64 `json:"reviewers"`
	Applications         int64 `json:"applications"`
	Feedback             int64 `json:"feedback"`
	ActiveProjects       int64 `json:"active_projects"`
	ApprovedApplications int64 `json:"approved_applications"`
}

type TopReviewer struct {
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
}

type PlatformQuality struct {
	AveragePlatformRating float64      `json:"avg_platform_rating"`
	TotalXPAwarded        int64        `json:"total_xp_awarded"`
	TopReviewer           *TopReviewer `json:"top_reviewer"`
}

type RecentActivity struct {
	Projects     int64 `json:"projects"`
	Applications int64 `json:"applications"`
	Feedback     int64 `json:"feedback"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type PlatformStats struct {
	Totals       PlatformTotals  `json:"totals"`
	Quality      PlatformQuality `json:"quality"`
	Last7Days    RecentActivity  `json:"last_7_days"`
	Distribution []CategoryCount `json:"distribution"`
}

func (s *StatsService) Platform(ctx context.Context) (*PlatformStats, error) {
	db := s.db.WithContext(ctx)
	var out PlatformStats

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.Project{}), &out.Totals.Projects},
		{db.Model(&models.Reviewer{}), &out.Totals.Reviewers},
		{db.Model(&models.Application{}), &out.Totals.Applications},
		{db.Model(&models.Feedback{}), &out.Totals.Feedback},
		{db.Model(&models.Project{}).Where("applicants_count > 0"), &out.Totals.ActiveProjects},
		{db.Model(&models.Application{}).Where("status = ?", models.ApplicationApproved), &out.Totals.ApprovedApplications},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&models.Reviewer{}).
		Where("total_reviews > 0").
		Select("COALESCE(AVG(average_rating), 0)").
		Scan(&out.Quality.AveragePlatformRating).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Reviewer{}).
		Select("COALESCE(SUM(xp), 0)").
		Scan(&out.Quality.TotalXPAwarded).Error; err != nil {
		return nil, err
	}

	var top models.Reviewer
	err := db.Order("xp DESC").Order("id ASC").First(&top).Error
	switch {
	case err == nil:
		out.Quality.TopReviewer = &TopReviewer{Username: top.Username, XP: top.XP, Level: top.Level}
	case !isRecordNotFound(err):
		return nil, err
	}

	since := s.now().AddDate(0, 0, -7)
	recent := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Project{}, &out.Last7Days.Projects},
		{&models.Application{}, &out.Last7Days.Applications},
		{&models.Feedback{}, &out.Last7Days.Feedback},
	}
	for _, r := range recent {
		if err := db.Model(r.model).Where("created_at >= ?", since).Count(r.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&models.Project{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Order("count DESC").
		Scan(&out.Distribution).Error; err != nil {
		return nil, err
	}

	return &out, nil
}
