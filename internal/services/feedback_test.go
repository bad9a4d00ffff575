package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/helpmarq/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedbackReq(projectID, reviewerID uint) *SubmitFeedbackRequest {
	return &SubmitFeedbackRequest{ProjectID: projectID, ReviewerID: reviewerID, FeedbackText: testFeedback}
}

func TestFeedbackService_SubmitRequiresApproval(t *testing.T) {
	db := newTestDB(t)
	apps := NewApplicationService(db, NopNotifier{})
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")

	_, err := svc.Submit(ctx, reviewerActor, feedbackReq(project.ID, reviewer.ID))
	assert.ErrorIs(t, err, ErrForbidden, "no application at all")

	app, err := apps.Submit(ctx, reviewerActor, submitReq(project.ID, reviewer.ID))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, reviewerActor, feedbackReq(project.ID, reviewer.ID))
	assert.ErrorIs(t, err, ErrForbidden, "pending application")

	_, err = apps.Approve(ctx, ownerActor, app.ID)
	require.NoError(t, err)

	fb, err := svc.Submit(ctx, reviewerActor, feedbackReq(project.ID, reviewer.ID))
	require.NoError(t, err)
	assert.False(t, fb.IsRated)
	assert.Nil(t, fb.OwnerRating)
	assert.Equal(t, 1, reload[models.Project](t, db, project.ID).ReviewsCount)

	_, err = svc.Submit(ctx, reviewerActor, feedbackReq(project.ID, reviewer.ID))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, reload[models.Project](t, db, project.ID).ReviewsCount)
}

func TestFeedbackService_SubmitRejectedApplicationForbidden(t *testing.T) {
	db := newTestDB(t)
	apps := NewApplicationService(db, NopNotifier{})
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	app, err := apps.Submit(ctx, reviewerActor, submitReq(project.ID, reviewer.ID))
	require.NoError(t, err)
	_, err = apps.Reject(ctx, ownerActor, app.ID, nil)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, reviewerActor, feedbackReq(project.ID, reviewer.ID))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestFeedbackService_SubmitValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	seedApproved(t, db, project, reviewer)

	six := 6
	tests := []struct {
		name string
		req  *SubmitFeedbackRequest
	}{
		{"text too short", &SubmitFeedbackRequest{ProjectID: project.ID, ReviewerID: reviewer.ID, FeedbackText: "Looks good."}},
		{"text too long", &SubmitFeedbackRequest{ProjectID: project.ID, ReviewerID: reviewer.ID, FeedbackText: strings.Repeat("x", 2001)}},
		{"project rating out of range", &SubmitFeedbackRequest{ProjectID: project.ID, ReviewerID: reviewer.ID, FeedbackText: testFeedback, ProjectRating: &six}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, reviewerActor, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := svc.Submit(ctx, strangerActor, feedbackReq(project.ID, reviewer.ID))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestFeedbackService_SubmitForbiddenBeforeValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	short := &SubmitFeedbackRequest{ProjectID: project.ID, ReviewerID: reviewer.ID, FeedbackText: "Looks good."}

	_, err := svc.Submit(ctx, reviewerActor, short)
	assert.ErrorIs(t, err, ErrForbidden, "not approved")
	assert.NotErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(ctx, strangerActor, short)
	assert.ErrorIs(t, err, ErrForbidden, "someone else's profile")

	seedApproved(t, db, project, reviewer)
	_, err = svc.Submit(ctx, reviewerActor, short)
	assert.ErrorIs(t, err, ErrValidation, "approved reviewer gets field errors")
}

func TestFeedbackService_ConcurrentSubmit(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	seedApproved(t, db, project, reviewer)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, reviewerActor, feedbackReq(project.ID, reviewer.ID))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, reload[models.Project](t, db, project.ID).ReviewsCount)
}

func TestFeedbackService_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	apps := NewApplicationService(db, notifier)
	svc := NewFeedbackService(db, notifier)
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")

	app, err := apps.Submit(ctx, reviewerActor, submitReq(project.ID, reviewer.ID))
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)

	_, err = apps.Approve(ctx, ownerActor, app.ID)
	require.NoError(t, err)

	fb, err := svc.Submit(ctx, reviewerActor, feedbackReq(project.ID, reviewer.ID))
	require.NoError(t, err)

	res, err := svc.Rate(ctx, ownerActor, fb.ID, &RateFeedbackRequest{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 250, res.XPAwarded)
	assert.False(t, res.LeveledUp)

	r := reload[models.Reviewer](t, db, reviewer.ID)
	assert.Equal(t, 250, r.XP)
	assert.Equal(t, 1, r.TotalReviews)
	assert.Equal(t, 5.0, r.AverageRating)
	assert.Equal(t, LevelForXP(250), r.Level)

	stored := reload[models.Feedback](t, db, fb.ID)
	assert.True(t, stored.IsRated)
	require.NotNil(t, stored.OwnerRating)
	assert.Equal(t, 5, *stored.OwnerRating)
	assert.Equal(t, 250, stored.XPAwarded)
	assert.NotNil(t, stored.RatedAt)

	assert.Equal(t, []string{
		EventApplicationReceived,
		EventApplicationApproved,
		EventFeedbackSubmitted,
		EventFeedbackRated,
	}, notifier.names())
	assert.Equal(t, 250, notifier.last().XPAwarded)
}

func TestFeedbackService_RateTwice(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	fb := seedFeedback(t, db, project, reviewer)

	_, err := svc.Rate(ctx, ownerActor, fb.ID, &RateFeedbackRequest{Rating: 4})
	require.NoError(t, err)

	_, err = svc.Rate(ctx, ownerActor, fb.ID, &RateFeedbackRequest{Rating: 1})
	assert.ErrorIs(t, err, ErrInvalidState)

	r := reload[models.Reviewer](t, db, reviewer.ID)
	assert.Equal(t, 225, r.XP)
	assert.Equal(t, 1, r.TotalReviews)
	assert.Equal(t, 4.0, r.AverageRating)
	assert.Equal(t, 4, *reload[models.Feedback](t, db, fb.ID).OwnerRating)
}

func TestFeedbackService_ConcurrentRate(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 300)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	fb := seedFeedback(t, db, project, reviewer)

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Rate(ctx, ownerActor, fb.ID, &RateFeedbackRequest{Rating: 1 + i%5})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	require.Equal(t, 1, succeeded)

	stored := reload[models.Feedback](t, db, fb.ID)
	r := reload[models.Reviewer](t, db, reviewer.ID)
	assert.Equal(t, stored.XPAwarded, r.XP)
	assert.Equal(t, XPForRating(300, *stored.OwnerRating), r.XP)
	assert.Equal(t, 1, r.TotalReviews)
}

func TestFeedbackService_AverageAcrossProjects(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	for _, rating := range []int{5, 3, 4} {
		project := seedProject(t, db, ownerActor.UserID, 100)
		fb := seedFeedback(t, db, project, reviewer)
		_, err := svc.Rate(ctx, ownerActor, fb.ID, &RateFeedbackRequest{Rating: rating})
		require.NoError(t, err)
	}

	r := reload[models.Reviewer](t, db, reviewer.ID)
	assert.Equal(t, 4.0, r.AverageRating)
	assert.Equal(t, 3, r.TotalReviews)
	assert.Equal(t, 150+100+125, r.XP)
}

func TestFeedbackService_RateLevelsUp(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewFeedbackService(db, notifier)

	project := seedProject(t, db, ownerActor.UserID, 500)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	fb := seedFeedback(t, db, project, reviewer)

	res, err := svc.Rate(context.Background(), ownerActor, fb.ID, &RateFeedbackRequest{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 550, res.XPAwarded)
	assert.Equal(t, 1, res.PreviousLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, res.LeveledUp)
	assert.True(t, notifier.last().LeveledUp)
	assert.Equal(t, 2, reload[models.Reviewer](t, db, reviewer.ID).Level)
}

func TestFeedbackService_RateFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})

	project := seedProject(t, db, ownerActor.UserID, 50)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	fb := seedFeedback(t, db, project, reviewer)

	res, err := svc.Rate(context.Background(), ownerActor, fb.ID, &RateFeedbackRequest{Rating: 1})
	require.NoError(t, err)
	assert.Zero(t, res.XPAwarded)

	r := reload[models.Reviewer](t, db, reviewer.ID)
	assert.Zero(t, r.XP)
	assert.Equal(t, 1, r.TotalReviews)
	assert.Equal(t, 1.0, r.AverageRating)
}

func TestFeedbackService_RateErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	fb := seedFeedback(t, db, project, reviewer)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Rate(ctx, ownerActor, fb.ID, &RateFeedbackRequest{Rating: rating})
		assert.ErrorIs(t, err, ErrValidation, "rating %d", rating)
	}

	_, err := svc.Rate(ctx, ownerActor, 9999, &RateFeedbackRequest{Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Rate(ctx, reviewerActor, fb.ID, &RateFeedbackRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	r := reload[models.Reviewer](t, db, reviewer.ID)
	assert.Zero(t, r.XP)
	assert.Zero(t, r.TotalReviews)
	assert.False(t, reload[models.Feedback](t, db, fb.ID).IsRated)
}

func TestFeedbackService_RateAfterProjectDeleted(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewFeedbackService(db, notifier)
	projects := NewProjectService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	fb := seedFeedback(t, db, project, reviewer)

	require.NoError(t, projects.Delete(ctx, ownerActor, project.ID))
	_, err := projects.GetByID(ctx, project.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Rate(ctx, reviewerActor, fb.ID, &RateFeedbackRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrForbidden, "ownership still applies")

	res, err := svc.Rate(ctx, ownerActor, fb.ID, &RateFeedbackRequest{Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, XPForRating(200, 4), res.XPAwarded)
	assert.Equal(t, res.XPAwarded, reload[models.Reviewer](t, db, reviewer.ID).XP)
	assert.True(t, reload[models.Feedback](t, db, fb.ID).IsRated)
	assert.Equal(t, project.ID, notifier.last().Project.ID)
}

func TestFeedbackService_Listings(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedbackService(db, NopNotifier{})
	ctx := context.Background()

	project := seedProject(t, db, ownerActor.UserID, 200)
	reviewer := seedReviewer(t, db, reviewerActor.UserID, "rex")
	seedFeedback(t, db, project, reviewer)

	byProject, err := svc.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, byProject, 1)

	byReviewer, err := svc.ListByReviewer(ctx, reviewer.ID)
	require.NoError(t, err)
	require.Len(t, byReviewer, 1)
	require.NotNil(t, byReviewer[0].Project)

	_, err = svc.ListByProject(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
