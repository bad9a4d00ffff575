package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/pkg/response"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// Submit applies the caller's reviewer profile to a project
// POST /api/applications
func (h *ApplicationHandler) Submit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.SubmitApplicationRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ApplicantIP = c.ClientIP()

	app, err := h.applicationService.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, app)
}

// PUT /api/applications/:id/approve
func (h *ApplicationHandler) Approve(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	app, err := h.applicationService.Approve(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, app)
}

// Reject accepts an optional {"reason": "..."} body
// PUT /api/applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body services.RejectApplicationRequest
	present, ok := bindOptionalJSON(c, &body)
	if !ok {
		return
	}
	var req *services.RejectApplicationRequest
	if present {
		req = &body
	}

	app, err := h.applicationService.Reject(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, app)
}

// GetByID is visible to the project owner and the applying reviewer
// GET /api/applications/:id
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	app, err := h.applicationService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, app)
}

// ListByProject is visible to the project owner only
// GET /api/applications/project/:projectId
func (h *ApplicationHandler) ListByProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	apps, err := h.applicationService.ListByProject(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, apps)
}

// GET /api/applications/reviewer/:reviewerId
func (h *ApplicationHandler) ListByReviewer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	reviewerID, ok := parseID(c, "reviewerId")
	if !ok {
		return
	}

	apps, err := h.applicationService.ListByReviewer(c.Request.Context(), actor, reviewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, apps)
}
