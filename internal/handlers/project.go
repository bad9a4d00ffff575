package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/middleware"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// List returns paginated projects. owner_id=me resolves to the signed-in caller.
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.OwnerID == "me" {
		req.OwnerID = middleware.GetUserID(c)
		if req.OwnerID == "" {
			response.Unauthorized(c, "sign in to list your own projects")
			return
		}
	}

	resp, err := h.projectService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, response.NewPage(resp.Items, resp.Total, resp.Page, resp.PageSize))
}

// GetByID returns a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, project)
}

// Create creates a new project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, project)
}

// UpdateStatus moves a project through its lifecycle
// PUT /api/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, project)
}

// Delete deletes a project
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}
