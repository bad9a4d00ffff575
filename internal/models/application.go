package models

import (
	"errors"
	"fmt"
	"time"
)

// ApplicationStatus is the review state of an application.
// pending is the only non-terminal state.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// ErrIllegalTransition is returned for any edge outside pending -> approved|rejected.
var ErrIllegalTransition = errors.New("illegal application status transition")

// Terminal reports whether no further transition is possible from s.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case ApplicationApproved, ApplicationRejected:
		return true
	case ApplicationPending:
		return false
	}
	return true
}

// CanTransitionTo validates the edge s -> next.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) error {
	switch s {
	case ApplicationPending:
		switch next {
		case ApplicationApproved, ApplicationRejected:
			return nil
		}
	case ApplicationApproved, ApplicationRejected:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, s)
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
}

// Application is a reviewer's request to critique a project.
// At most one exists per (project, reviewer) pair.
type Application struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	ProjectID        uint              `gorm:"uniqueIndex:idx_application_pair;not null" json:"project_id"`
	Project          *Project          `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ReviewerID       uint              `gorm:"uniqueIndex:idx_application_pair;index;not null" json:"reviewer_id"`
	Reviewer         *Reviewer         `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	ReviewerUsername string            `gorm:"size:50;not null" json:"reviewer_username"`
	Qualifications   string            `gorm:"size:500;not null" json:"qualifications"`
	FocusAreas       string            `gorm:"size:500;not null" json:"focus_areas"`
	NDAAccepted      bool              `gorm:"not null;default:false" json:"nda_accepted"`
	NDAAcceptedAt    *time.Time        `json:"nda_accepted_at"`
	ApplicantIP      string            `gorm:"size:64" json:"-"`
	Status           ApplicationStatus `gorm:"size:20;default:pending;index" json:"status"`
	RejectionReason  string            `gorm:"size:500" json:"rejection_reason,omitempty"`
	AppliedAt        time.Time         `gorm:"index" json:"applied_at"`
	ReviewedAt       *time.Time        `json:"reviewed_at"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Application) TableName() string { return "applications" }
