package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/helpmarq/backend/internal/config"
	"github.com/helpmarq/backend/internal/models"
	"github.com/helpmarq/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const reminderLockName = "deadline_reminder"

// ReminderService nudges approved reviewers whose feedback is due soon.
type ReminderService struct {
	db            *gorm.DB
	notifier      Notifier
	cfg           config.ReminderConfig
	instanceID    string
	cronScheduler *cron.Cron
	now           func() time.Time
}

func NewReminderService(db *gorm.DB, notifier Notifier, cfg config.ReminderConfig) *ReminderService {
	if cfg.LookaheadHours <= 0 {
		cfg.LookaheadHours = 24
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 * * * *"
	}
	return &ReminderService{
		db:         db,
		notifier:   notifier,
		cfg:        cfg,
		instanceID: uuid.NewString(),
		now:        time.Now,
	}
}

func (s *ReminderService) StartScheduler() error {
	s.cronScheduler = cron.New()

	_, err := s.cronScheduler.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.Errorf("[Reminder] run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cronScheduler.Start()
	logger.Infof("[Reminder] Scheduler started (cron: %s, lookahead: %dh)", s.cfg.Schedule, s.cfg.LookaheadHours)
	return nil
}

func (s *ReminderService) StopScheduler() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
	}
}

// RunOnce sends reminders for the current hour window and returns how many were emitted.
// Only one instance per window does the work.
func (s *ReminderService) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	acquired, err := s.acquireLock(db, now)
	if err != nil {
		return 0, err
	}
	if !acquired {
		logger.Debug().Msg("reminder window already claimed by another instance")
		return 0, nil
	}

	sent, err := s.remind(ctx, db, now)
	if err != nil {
		if sent == 0 {
			// Nothing went out, so another instance may retry this window
			s.releaseLock(db, now)
		}
		return sent, err
	}
	if sent > 0 {
		logger.Info().Int("reminders", sent).Msg("deadline reminders sent")
	}
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, db *gorm.DB, now time.Time) (int, error) {
	var projects []models.Project
	if err := db.Where("deadline >= ? AND deadline <= ? AND status IN ?",
		now, now.Add(time.Duration(s.cfg.LookaheadHours)*time.Hour),
		models.ReviewableStatuses()).
		Find(&projects).Error; err != nil {
		return 0, err
	}

	sent := 0
	for i := range projects {
		project := &projects[i]

		pending, err := s.pendingReviewers(db, project.ID)
		if err != nil {
			return sent, err
		}

		hoursLeft := int(project.Deadline.Sub(now).Hours())
		for j := range pending {
			notify(ctx, s.notifier, Event{
				Name:       EventDeadlineReminder,
				OccurredAt: now,
				Project:    project,
				Reviewer:   &pending[j],
				HoursLeft:  hoursLeft,
			})
			sent++
		}
	}
	return sent, nil
}

// pendingReviewers returns approved reviewers of the project who have not submitted feedback.
func (s *ReminderService) pendingReviewers(db *gorm.DB, projectID uint) ([]models.Reviewer, error) {
	approved := db.Model(&models.Application{}).
		Select("reviewer_id").
		Where("project_id = ? AND status = ?", projectID, models.ApplicationApproved)
	submitted := db.Model(&models.Feedback{}).
		Select("reviewer_id").
		Where("project_id = ?", projectID)

	var reviewers []models.Reviewer
	err := db.Where("id IN (?) AND id NOT IN (?)", approved, submitted).
		Order("id ASC").
		Find(&reviewers).Error
	return reviewers, err
}

// acquireLock claims the UTC hour window. The unique (lock_name, lock_key)
// index turns a second insert into a lost race.
func (s *ReminderService) acquireLock(db *gorm.DB, now time.Time) (bool, error) {
	window := now.UTC().Truncate(time.Hour)

	// Expired locks are only kept for diagnosis
	if err := db.Where("lock_name = ? AND expires_at < ?", reminderLockName, now.Add(-24*time.Hour)).
		Delete(&models.SchedulerLock{}).Error; err != nil {
		logger.Warn().Err(err).Msg("failed to purge expired scheduler locks")
	}

	lock := models.SchedulerLock{
		LockName:  reminderLockName,
		LockKey:   lockKey(window),
		LockedBy:  s.instanceID,
		LockedAt:  now,
		ExpiresAt: window.Add(time.Hour),
	}
	err := db.Create(&lock).Error
	if err == nil {
		return true, nil
	}
	if isUniqueViolation(err) {
		return false, nil
	}
	return false, err
}

// releaseLock gives up this instance's claim on the window containing now.
func (s *ReminderService) releaseLock(db *gorm.DB, now time.Time) {
	err := db.Where("lock_name = ? AND lock_key = ? AND locked_by = ?",
		reminderLockName, lockKey(now.UTC().Truncate(time.Hour)), s.instanceID).
		Delete(&models.SchedulerLock{}).Error
	if err != nil {
		logger.Warn().Err(err).Msg("failed to release reminder window")
	}
}

func lockKey(window time.Time) string {
	return window.Format("2006-01-02T15")
}
