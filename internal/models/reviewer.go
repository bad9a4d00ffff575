package models

import "time"

// ReviewerExpertise lists the specialities a reviewer can declare.
var ReviewerExpertise = []string{
	"UI/UX Design",
	"Web Development",
	"Mobile Development",
	"Graphic Design",
	"Product Management",
	"Marketing",
	"Copywriting",
	"Business Strategy",
	"Data Analysis",
	"Other",
}

// ReviewerExperience lists the accepted years-of-experience brackets.
var ReviewerExperience = []string{"0-1", "1-3", "3-5", "5-10", "10+"}

// Reviewer is the reputation profile of a user who critiques projects
type Reviewer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"uniqueIndex;size:100;not null" json:"-"`
	Username      string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email         string    `gorm:"size:255;not null" json:"-"`
	Expertise     string    `gorm:"size:50;not null" json:"expertise"`
	Experience    string    `gorm:"size:10;not null" json:"experience"`
	Portfolio     string    `gorm:"size:500" json:"portfolio"`
	Bio           string    `gorm:"size:500;not null" json:"bio"`
	XP            int       `gorm:"default:0;not null;index" json:"xp"`
	Level         int       `gorm:"default:1;not null" json:"level"` // 1-10 declared, 1-6 computed
	TotalReviews  int       `gorm:"default:0;not null" json:"total_reviews"`
	AverageRating float64   `gorm:"default:0;not null" json:"average_rating"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Reviewer) TableName() string { return "reviewers" }
