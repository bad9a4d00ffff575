package models

import "time"

// Feedback is the review a reviewer submits once their application is approved.
// OwnerRating, XPAwarded and RatedAt are written once, together with IsRated.
type Feedback struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ProjectID        uint       `gorm:"uniqueIndex:idx_feedback_pair;not null" json:"project_id"`
	Project          *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ReviewerID       uint       `gorm:"uniqueIndex:idx_feedback_pair;index;not null" json:"reviewer_id"`
	ReviewerUsername string     `gorm:"size:50;not null" json:"reviewer_username"`
	FeedbackText     string     `gorm:"type:text;not null" json:"feedback_text"`
	ProjectRating    *int       `json:"project_rating"`
	OwnerRating      *int       `json:"owner_rating"`
	XPAwarded        int        `gorm:"default:0;not null" json:"xp_awarded"`
	IsRated          bool       `gorm:"default:false;not null;index" json:"is_rated"`
	SubmittedAt      time.Time  `gorm:"index" json:"submitted_at"`
	RatedAt          *time.Time `json:"rated_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Feedback) TableName() string { return "feedbacks" }
