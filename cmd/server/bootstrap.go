package main

import (
	"github.com/helpmarq/backend/internal/config"
	"github.com/helpmarq/backend/internal/handlers"
	"github.com/helpmarq/backend/internal/models"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/internal/utils"
	"github.com/helpmarq/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg             *config.Config
	taskQueue       services.TaskQueue
	worker          *services.Worker
	reminderService *services.ReminderService
	hub             *services.SSEHub

	projectHandler     *handlers.ProjectHandler
	reviewerHandler    *handlers.ReviewerHandler
	applicationHandler *handlers.ApplicationHandler
	feedbackHandler    *handlers.FeedbackHandler
	messageHandler     *handlers.MessageHandler
	statsHandler       *handlers.StatsHandler
	healthHandler      *handlers.HealthHandler
	sseHandler         *handlers.SSEHandler
}

// bootstrap initializes all application dependencies: database, queue, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	// Email delivery runs behind the task queue (Redis when enabled, otherwise in-process)
	emailService := services.NewEmailService(cfg.Email)
	if !emailService.Enabled() {
		logger.Infof("[Email] SMTP disabled, notifications are logged only")
	}
	notificationService := services.NewNotificationService(emailService)

	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.Deliver)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.Deliver)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start notification worker")
			}
		}
	}

	hub := services.GetSSEHub()
	notifier := services.NewEventDispatcher(taskQueue, hub)

	reminderService := services.NewReminderService(db, notifier, cfg.Reminder)
	if cfg.Reminder.Enabled {
		if err := reminderService.StartScheduler(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start deadline reminder scheduler")
		}
	}

	handlers.RegisterStateGauges(db, taskQueue, hub)

	return &appServices{
		cfg:             cfg,
		taskQueue:       taskQueue,
		worker:          worker,
		reminderService: reminderService,
		hub:             hub,

		projectHandler:     handlers.NewProjectHandler(services.NewProjectService(db, notifier)),
		reviewerHandler:    handlers.NewReviewerHandler(services.NewReviewerService(db)),
		applicationHandler: handlers.NewApplicationHandler(services.NewApplicationService(db, notifier)),
		feedbackHandler:    handlers.NewFeedbackHandler(services.NewFeedbackService(db, notifier)),
		messageHandler:     handlers.NewMessageHandler(services.NewMessageService(db, notifier)),
		statsHandler:       handlers.NewStatsHandler(services.NewStatsService(db), services.NewActivityService(db)),
		healthHandler:      handlers.NewHealthHandler(db, taskQueue, hub),
		sseHandler:         handlers.NewSSEHandler(hub),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.reminderService.StopScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if sqlDB, err := models.GetDB().DB(); err == nil {
		sqlDB.Close()
	}
}
