package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/helpmarq/backend/internal/config"
	"github.com/helpmarq/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func emailConfigForTest(enabled bool) config.EmailConfig {
	return config.EmailConfig{Enabled: enabled, Port: 587, From: "no-reply@example.com"}
}

func TestReminderService_RunOnce(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	now := time.Now()

	dueSoon := seedProject(t, db, ownerActor.UserID, 200)
	require.NoError(t, db.Model(dueSoon).Update("deadline", now.Add(5*time.Hour+30*time.Minute)).Error)
	later := seedProject(t, db, ownerActor.UserID, 200)
	require.NoError(t, db.Model(later).Update("deadline", now.Add(72*time.Hour)).Error)
	closed := seedProject(t, db, ownerActor.UserID, 200)
	require.NoError(t, db.Model(closed).Updates(map[string]interface{}{"deadline": now.Add(2 * time.Hour), "status": models.ProjectClosed}).Error)

	pending := seedReviewer(t, db, "u1", "pending")
	done := seedReviewer(t, db, "u2", "done")
	seedApproved(t, db, dueSoon, pending)
	seedApproved(t, db, dueSoon, done)
	seedFeedback(t, db, dueSoon, done)
	seedApproved(t, db, later, pending)
	seedApproved(t, db, closed, pending)

	svc := NewReminderService(db, notifier, config.ReminderConfig{LookaheadHours: 24})
	svc.now = func() time.Time { return now }

	sent, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	ev := notifier.last()
	assert.Equal(t, EventDeadlineReminder, ev.Name)
	assert.Equal(t, pending.ID, ev.Reviewer.ID)
	assert.Equal(t, dueSoon.ID, ev.Project.ID)
	assert.Equal(t, 5, ev.HoursLeft)

	// A second instance in the same hour finds the window claimed
	other := NewReminderService(db, notifier, config.ReminderConfig{LookaheadHours: 24})
	other.now = func() time.Time { return now }
	sent, err = other.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	var locks int64
	db.Model(&models.SchedulerLock{}).Count(&locks)
	assert.EqualValues(t, 1, locks)
}

func TestReminderService_NextWindowRunsAgain(t *testing.T) {
	db := newTestDB(t)
	svc := NewReminderService(db, NopNotifier{}, config.ReminderConfig{})
	now := time.Date(2026, 5, 1, 10, 15, 0, 0, time.UTC)

	svc.now = func() time.Time { return now }
	ok, err := svc.acquireLock(db, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.acquireLock(db, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "same hour")

	ok, err = svc.acquireLock(db, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok, "next hour")
}

func TestReminderService_FailedRunReleasesWindow(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	now := time.Now()

	project := seedProject(t, db, ownerActor.UserID, 200)
	require.NoError(t, db.Model(project).Update("deadline", now.Add(3*time.Hour)).Error)
	reviewer := seedReviewer(t, db, "u1", "pending")
	seedApproved(t, db, project, reviewer)

	failProjects := errors.New("projects table unavailable")
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:fail_projects", func(tx *gorm.DB) {
		if tx.Statement.Table == "projects" {
			_ = tx.AddError(failProjects)
		}
	}))

	svc := NewReminderService(db, notifier, config.ReminderConfig{LookaheadHours: 24})
	svc.now = func() time.Time { return now }

	sent, err := svc.RunOnce(context.Background())
	require.ErrorIs(t, err, failProjects)
	assert.Zero(t, sent)

	var locks int64
	require.NoError(t, db.Model(&models.SchedulerLock{}).Count(&locks).Error)
	assert.Zero(t, locks, "failed run must not keep the window")

	require.NoError(t, db.Callback().Query().Remove("test:fail_projects"))

	// Another instance can take the same window once the database recovers
	other := NewReminderService(db, notifier, config.ReminderConfig{LookaheadHours: 24})
	other.now = func() time.Time { return now }
	sent, err = other.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, reviewer.ID, notifier.last().Reviewer.ID)
}

func TestNewReminderService_Defaults(t *testing.T) {
	svc := NewReminderService(nil, NopNotifier{}, config.ReminderConfig{})
	assert.Equal(t, 24, svc.cfg.LookaheadHours)
	assert.Equal(t, "0 * * * *", svc.cfg.Schedule)
	assert.NotEmpty(t, svc.instanceID)
}
