package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/helpmarq/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProjectReq() *CreateProjectRequest {
	return &CreateProjectRequest{
		Title:            "Pitch deck for a coffee startup",
		Description:      "Ten slides, looking for feedback on story and numbers",
		Category:         "pitch",
		Link:             "https://example.com/deck",
		ImageURL:         "https://example.com/deck/cover.png",
		ReviewFocusAreas: []string{"Storytelling", " Financial model "},
		XPReward:         150,
		Deadline:         time.Now().Add(48 * time.Hour),
	}
}

func TestProjectService_Create(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewProjectService(db, notifier)
	ctx := context.Background()

	p, err := svc.Create(ctx, ownerActor, validProjectReq())
	require.NoError(t, err)
	assert.Equal(t, models.ProjectOpen, p.Status)
	assert.Equal(t, ownerActor.UserID, p.OwnerID)
	assert.Equal(t, ownerActor.Email, p.OwnerEmail)
	assert.True(t, notifier.last().FirstProject)

	stored := reload[models.Project](t, db, p.ID)
	assert.Equal(t, "https://example.com/deck/cover.png", stored.ImageURL)
	assert.Equal(t, []string{"Storytelling", "Financial model"}, stored.ReviewFocusAreas)

	_, err = svc.Create(ctx, ownerActor, validProjectReq())
	require.NoError(t, err)
	assert.False(t, notifier.last().FirstProject)
	assert.Equal(t, []string{EventProjectCreated, EventProjectCreated}, notifier.names())
}

func TestProjectService_CreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, NopNotifier{})

	tests := []struct {
		name   string
		mutate func(r *CreateProjectRequest)
	}{
		{"short title", func(r *CreateProjectRequest) { r.Title = "Hey" }},
		{"unknown category", func(r *CreateProjectRequest) { r.Category = "music" }},
		{"bad link", func(r *CreateProjectRequest) { r.Link = "not a url" }},
		{"reward too low", func(r *CreateProjectRequest) { r.XPReward = 10 }},
		{"reward too high", func(r *CreateProjectRequest) { r.XPReward = 501 }},
		{"past deadline", func(r *CreateProjectRequest) { r.Deadline = time.Now().Add(-time.Hour) }},
		{"bad image url", func(r *CreateProjectRequest) { r.ImageURL = "cover.png" }},
		{"no focus areas", func(r *CreateProjectRequest) { r.ReviewFocusAreas = nil }},
		{"empty focus area list", func(r *CreateProjectRequest) { r.ReviewFocusAreas = []string{} }},
		{"too many focus areas", func(r *CreateProjectRequest) {
			r.ReviewFocusAreas = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
		}},
		{"blank focus area", func(r *CreateProjectRequest) { r.ReviewFocusAreas = []string{"Story", "   "} }},
		{"long focus area", func(r *CreateProjectRequest) { r.ReviewFocusAreas = []string{strings.Repeat("x", 51)} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validProjectReq()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), ownerActor, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProjectService_CreateFocusAreaBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, NopNotifier{})

	req := validProjectReq()
	req.ReviewFocusAreas = []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	p, err := svc.Create(context.Background(), ownerActor, req)
	require.NoError(t, err)
	assert.Len(t, p.ReviewFocusAreas, 8)

	req = validProjectReq()
	req.ImageURL = ""
	req.ReviewFocusAreas = append(req.ReviewFocusAreas, "Design", "Copy", "Pricing", "Market", "Team", "Ask", "Extra")
	_, err = svc.Create(context.Background(), ownerActor, req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cannot have more than 8 entries", verr.Fields["review_focus_areas"])
}

func TestProjectService_List(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, NopNotifier{})
	ctx := context.Background()

	low := seedProject(t, db, ownerActor.UserID, 50)
	high := seedProject(t, db, ownerActor.UserID, 400)
	closed := seedProject(t, db, "someone_else", 300)
	require.NoError(t, db.Model(closed).Update("status", models.ProjectClosed).Error)

	res, err := svc.List(ctx, &ProjectListRequest{Sort: "highestXP"})
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Total)
	assert.Equal(t, high.ID, res.Items[0].ID)
	assert.Equal(t, low.ID, res.Items[1].ID)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 12, res.PageSize)

	res, err = svc.List(ctx, &ProjectListRequest{MinXP: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	res, err = svc.List(ctx, &ProjectListRequest{Status: "closed"})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Total)
	assert.Equal(t, closed.ID, res.Items[0].ID)

	res, err = svc.List(ctx, &ProjectListRequest{Category: "app"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	_, err = svc.List(ctx, &ProjectListRequest{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProjectService_UpdateStatusAndDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, NopNotifier{})
	ctx := context.Background()
	p := seedProject(t, db, ownerActor.UserID, 100)

	_, err := svc.UpdateStatus(ctx, reviewerActor, p.ID, &UpdateProjectStatusRequest{Status: models.ProjectCompleted})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateStatus(ctx, ownerActor, p.ID, &UpdateProjectStatusRequest{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateStatus(ctx, ownerActor, p.ID, &UpdateProjectStatusRequest{Status: models.ProjectCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, updated.Status)

	assert.ErrorIs(t, svc.Delete(ctx, reviewerActor, p.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, ownerActor, p.ID))

	_, err = svc.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
