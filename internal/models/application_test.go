package models

import (
	"errors"
	"testing"
)

func TestApplicationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  ApplicationStatus
		to    ApplicationStatus
		legal bool
	}{
		{ApplicationPending, ApplicationApproved, true},
		{ApplicationPending, ApplicationRejected, true},
		{ApplicationPending, ApplicationPending, false},
		{ApplicationApproved, ApplicationRejected, false},
		{ApplicationApproved, ApplicationPending, false},
		{ApplicationApproved, ApplicationApproved, false},
		{ApplicationRejected, ApplicationApproved, false},
		{ApplicationRejected, ApplicationPending, false},
		{ApplicationStatus("withdrawn"), ApplicationApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := tt.from.CanTransitionTo(tt.to)
			if tt.legal && err != nil {
				t.Errorf("expected legal transition, got %v", err)
			}
			if !tt.legal {
				if err == nil {
					t.Error("expected illegal transition error")
				} else if !errors.Is(err, ErrIllegalTransition) {
					t.Errorf("error should wrap ErrIllegalTransition, got %v", err)
				}
			}
		})
	}
}

func TestApplicationStatus_Terminal(t *testing.T) {
	if ApplicationPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if !ApplicationApproved.Terminal() {
		t.Error("approved should be terminal")
	}
	if !ApplicationRejected.Terminal() {
		t.Error("rejected should be terminal")
	}
}

func TestProjectStatus(t *testing.T) {
	for _, s := range []ProjectStatus{ProjectOpen, ProjectInProgress, ProjectCompleted, ProjectClosed} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if ProjectStatus("archived").Valid() {
		t.Error("unknown status should be invalid")
	}
	if !ProjectOpen.AcceptsReviews() || !ProjectInProgress.AcceptsReviews() {
		t.Error("open and in-progress projects accept reviews")
	}
	if ProjectCompleted.AcceptsReviews() || ProjectClosed.AcceptsReviews() {
		t.Error("completed and closed projects do not accept reviews")
	}

	got := ReviewableStatuses()
	if len(got) != 2 || got[0] != ProjectOpen || got[1] != ProjectInProgress {
		t.Errorf("ReviewableStatuses() = %v, want [open in-progress]", got)
	}
}

func TestTableNames(t *testing.T) {
	names := map[string]string{
		Project{}.TableName():       "projects",
		Reviewer{}.TableName():      "reviewers",
		Application{}.TableName():   "applications",
		Feedback{}.TableName():      "feedbacks",
		Message{}.TableName():       "messages",
		SchedulerLock{}.TableName(): "scheduler_locks",
	}
	for got, want := range names {
		if got != want {
			t.Errorf("TableName() = %q, expected %q", got, want)
		}
	}
}
