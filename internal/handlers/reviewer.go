package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/pkg/response"
)

type ReviewerHandler struct {
	reviewerService *services.ReviewerService
}

func NewReviewerHandler(reviewerService *services.ReviewerService) *ReviewerHandler {
	return &ReviewerHandler{reviewerService: reviewerService}
}

// Leaderboard lists reviewers ranked by reputation
// GET /api/reviewers
func (h *ReviewerHandler) Leaderboard(c *gin.Context) {
	var req services.LeaderboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.reviewerService.Leaderboard(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, response.NewPage(resp.Items, resp.Total, resp.Page, resp.PageSize))
}

// GET /api/reviewers/:id
func (h *ReviewerHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	reviewer, err := h.reviewerService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, reviewer)
}

// Me returns the caller's reviewer profile
// GET /api/reviewers/me
func (h *ReviewerHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	reviewer, err := h.reviewerService.GetByUserID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, reviewer)
}

// Create registers the caller as a reviewer
// POST /api/reviewers
func (h *ReviewerHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateReviewerRequest
	if !bindJSON(c, &req) {
		return
	}

	reviewer, err := h.reviewerService.CreateProfile(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, reviewer)
}
