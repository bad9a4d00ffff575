package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/pkg/response"
)

type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// Submit records a reviewer's feedback on a project they were approved for
// POST /api/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.SubmitFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	feedback, err := h.feedbackService.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, feedback)
}

// Rate lets the project owner rate feedback once and awards XP
// PUT /api/feedback/:id/rate
func (h *FeedbackHandler) Rate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.RateFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.feedbackService.Rate(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// GET /api/feedback/project/:projectId
func (h *FeedbackHandler) ListByProject(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	list, err := h.feedbackService.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, list)
}

// GET /api/feedback/reviewer/:reviewerId
func (h *FeedbackHandler) ListByReviewer(c *gin.Context) {
	reviewerID, ok := parseID(c, "reviewerId")
	if !ok {
		return
	}

	list, err := h.feedbackService.ListByReviewer(c.Request.Context(), reviewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, list)
}
