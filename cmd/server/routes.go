package main

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/handlers"
	"github.com/helpmarq/backend/internal/metrics"
	"github.com/helpmarq/backend/internal/middleware"
	"github.com/helpmarq/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) *middleware.RateLimiter {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(metrics.GinMiddleware())
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))
	r.Use(middleware.AuditLog())

	// Per-caller limiter for state-changing routes
	writeLimiter := middleware.NewRateLimiter(svc.cfg.RateLimit.RPS, svc.cfg.RateLimit.Burst)
	limited := writeLimiter.Middleware()

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics())

	api := r.Group("/api")
	{
		// Public browsing
		api.GET("/projects", middleware.OptionalAuth(), svc.projectHandler.List)
		api.GET("/projects/:id", svc.projectHandler.GetByID)
		api.GET("/reviewers", svc.reviewerHandler.Leaderboard)
		api.GET("/reviewers/:id", svc.reviewerHandler.GetByID)
		api.GET("/feedback/project/:projectId", svc.feedbackHandler.ListByProject)
		api.GET("/feedback/reviewer/:reviewerId", svc.feedbackHandler.ListByReviewer)
		api.GET("/stats", svc.statsHandler.Platform)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Live updates, token may be passed as ?token=
			protected.GET("/events", svc.sseHandler.StreamEvents)

			protected.GET("/reviewers/me", svc.reviewerHandler.Me)
			protected.GET("/applications/:id", svc.applicationHandler.GetByID)
			protected.GET("/applications/project/:projectId", svc.applicationHandler.ListByProject)
			protected.GET("/applications/reviewer/:reviewerId", svc.applicationHandler.ListByReviewer)
			protected.GET("/messages/:applicationId", svc.messageHandler.List)
			protected.GET("/notifications", svc.statsHandler.Activity)

			// Projects
			protected.POST("/projects", limited, svc.projectHandler.Create)
			protected.PUT("/projects/:id/status", limited, svc.projectHandler.UpdateStatus)
			protected.DELETE("/projects/:id", limited, svc.projectHandler.Delete)

			// Reviewer profile
			protected.POST("/reviewers", limited, svc.reviewerHandler.Create)

			// Application workflow
			protected.POST("/applications", limited, svc.applicationHandler.Submit)
			protected.PUT("/applications/:id/approve", limited, svc.applicationHandler.Approve)
			protected.PUT("/applications/:id/reject", limited, svc.applicationHandler.Reject)

			// Feedback workflow
			protected.POST("/feedback", limited, svc.feedbackHandler.Submit)
			protected.PUT("/feedback/:id/rate", limited, svc.feedbackHandler.Rate)

			// Messaging
			protected.POST("/messages", limited, svc.messageHandler.Send)
		}
	}

	return writeLimiter
}
