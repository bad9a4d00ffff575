package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle state of a project listing.
type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectClosed     ProjectStatus = "closed"
)

// ProjectStatuses lists every known project state in lifecycle order.
var ProjectStatuses = []ProjectStatus{ProjectOpen, ProjectInProgress, ProjectCompleted, ProjectClosed}

// Valid reports whether s is one of the known project states.
func (s ProjectStatus) Valid() bool {
	for _, known := range ProjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AcceptsReviews reports whether reviewers can still be reminded about the project.
func (s ProjectStatus) AcceptsReviews() bool {
	return s == ProjectOpen || s == ProjectInProgress
}

// ReviewableStatuses returns the states for which AcceptsReviews holds.
func ReviewableStatuses() []ProjectStatus {
	out := make([]ProjectStatus, 0, len(ProjectStatuses))
	for _, s := range ProjectStatuses {
		if s.AcceptsReviews() {
			out = append(out, s)
		}
	}
	return out
}

// Project is a piece of work an owner puts up for critique
type Project struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	OwnerID          string         `gorm:"size:100;index;not null" json:"owner_id"` // identity provider subject
	OwnerName        string         `gorm:"size:100;not null" json:"owner_name"`
	OwnerEmail       string         `gorm:"size:255" json:"-"`
	Title            string         `gorm:"size:100;not null" json:"title"`
	Description      string         `gorm:"size:500;not null" json:"description"`
	Category         string         `gorm:"size:20;index;not null" json:"category"` // website, app, design, pitch, business, other
	Link             string         `gorm:"size:500;not null" json:"link"`
	ImageURL         string         `gorm:"size:500" json:"image_url,omitempty"`
	// ReviewFocusAreas are the aspects the owner wants critiqued, 1 to 8 entries
	ReviewFocusAreas []string       `gorm:"serializer:json;type:text" json:"review_focus_areas"`
	XPReward         int            `gorm:"index;not null" json:"xp_reward"`
	Deadline         time.Time      `gorm:"index" json:"deadline"`
	Status           ProjectStatus  `gorm:"size:20;default:open;index" json:"status"`
	ApplicantsCount  int            `gorm:"default:0;not null" json:"applicants_count"`
	ApprovedCount    int            `gorm:"default:0;not null" json:"approved_count"`
	ReviewsCount     int            `gorm:"default:0;not null" json:"reviews_count"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
