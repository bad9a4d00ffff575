package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/pkg/response"
)

type StatsHandler struct {
	statsService    *services.StatsService
	activityService *services.ActivityService
}

func NewStatsHandler(statsService *services.StatsService, activityService *services.ActivityService) *StatsHandler {
	return &StatsHandler{statsService: statsService, activityService: activityService}
}

// Platform returns marketplace-wide statistics
// GET /api/stats
func (h *StatsHandler) Platform(c *gin.Context) {
	stats, err := h.statsService.Platform(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, stats)
}

// Activity returns the caller's unread-style activity counters
// GET /api/notifications
func (h *StatsHandler) Activity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	summary, err := h.activityService.Summary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, summary)
}
