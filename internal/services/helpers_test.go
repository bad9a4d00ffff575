package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/helpmarq/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testQualifications = "Five years of frontend work and UX audits"
	testFocusAreas     = "Navigation, accessibility and copy clarity"
	testFeedback       = "The landing page is clear, but the signup form needs inline validation and better error copy."
)

var (
	ownerActor    = Actor{UserID: "user_owner", Username: "olivia", Email: "olivia@example.com", Role: "owner"}
	reviewerActor = Actor{UserID: "user_reviewer", Username: "rex", Email: "rex@example.com", Role: "reviewer"}
	strangerActor = Actor{UserID: "user_stranger", Username: "sam", Email: "sam@example.com", Role: "reviewer"}
)

// newTestDB opens a private in-memory database with the real schema and unique indexes.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := models.Open("sqlite", dsn, gormlogger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection serialises concurrent callers the way a single sqlite writer would
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func seedProject(t *testing.T, db *gorm.DB, ownerID string, xpReward int) *models.Project {
	t.Helper()
	p := &models.Project{
		OwnerID:     ownerID,
		OwnerName:   "Olivia",
		OwnerEmail:  "olivia@example.com",
		Title:       "Portfolio redesign",
		Description: "A personal portfolio built with a static site generator",
		Category:    "website",
		Link:        "https://example.com/portfolio",
		XPReward:    xpReward,
		Deadline:    time.Now().Add(72 * time.Hour),
		Status:      models.ProjectOpen,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedReviewer(t *testing.T, db *gorm.DB, userID, username string) *models.Reviewer {
	t.Helper()
	r := &models.Reviewer{
		UserID:   userID,
		Username: username,
		Email:    username + "@example.com",
		Level:    1,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func seedApproved(t *testing.T, db *gorm.DB, project *models.Project, reviewer *models.Reviewer) *models.Application {
	t.Helper()
	now := time.Now()
	app := &models.Application{
		ProjectID:        project.ID,
		ReviewerID:       reviewer.ID,
		ReviewerUsername: reviewer.Username,
		Qualifications:   testQualifications,
		FocusAreas:       testFocusAreas,
		Status:           models.ApplicationApproved,
		AppliedAt:        now,
		ReviewedAt:       &now,
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

func seedFeedback(t *testing.T, db *gorm.DB, project *models.Project, reviewer *models.Reviewer) *models.Feedback {
	t.Helper()
	f := &models.Feedback{
		ProjectID:        project.ID,
		ReviewerID:       reviewer.ID,
		ReviewerUsername: reviewer.Username,
		FeedbackText:     testFeedback,
		SubmittedAt:      time.Now(),
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

func reload[T any](t *testing.T, db *gorm.DB, id uint) *T {
	t.Helper()
	var v T
	require.NoError(t, db.First(&v, id).Error)
	return &v
}

// recordingNotifier captures events in order.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func (r *recordingNotifier) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, Event) { panic("smtp exploded") }
