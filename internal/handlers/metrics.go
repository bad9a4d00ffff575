package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/metrics"
	"github.com/helpmarq/backend/internal/models"
	"github.com/helpmarq/backend/internal/services"
	"gorm.io/gorm"
)

// Metrics serves the Prometheus registry.
// GET /metrics
func Metrics() gin.HandlerFunc {
	return gin.WrapH(metrics.Handler())
}

// RegisterStateGauges exposes point-in-time gauges read at scrape time.
func RegisterStateGauges(db *gorm.DB, queue services.TaskQueue, hub *services.SSEHub) {
	metrics.RegisterGauge("sse_active_clients", "Number of active SSE connections", func() float64 {
		return float64(hub.ClientCount())
	})
	metrics.RegisterGauge("queue_async_enabled", "Whether the Redis notification queue is enabled (1=yes, 0=no)", func() float64 {
		if queue != nil && queue.IsAsync() {
			return 1
		}
		return 0
	})
	metrics.RegisterGauge("db_open_connections", "Number of open DB connections", func() float64 {
		sqlDB, err := db.DB()
		if err != nil {
			return 0
		}
		return float64(sqlDB.Stats().OpenConnections)
	})
	metrics.RegisterGauge("projects_open", "Number of projects currently accepting reviewers", func() float64 {
		var n int64
		db.Model(&models.Project{}).Where("status = ?", models.ProjectOpen).Count(&n)
		return float64(n)
	})
	metrics.RegisterGauge("feedback_unrated", "Feedback awaiting an owner rating", func() float64 {
		var n int64
		db.Model(&models.Feedback{}).Where("is_rated = ?", false).Count(&n)
		return float64(n)
	})
}
