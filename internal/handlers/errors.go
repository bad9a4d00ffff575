package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/middleware"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/pkg/logger"
	"github.com/helpmarq/backend/pkg/response"
)

// respondError maps a service error onto the HTTP error envelope.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(c, response.NewBadRequest(verr.Error()).WithDetails(verr.Fields))
	case errors.Is(err, services.ErrValidation):
		response.Error(c, response.NewBadRequest(err.Error()))
	case errors.Is(err, services.ErrForbidden):
		response.Error(c, response.NewForbidden(err.Error()))
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, response.NewNotFound(err.Error()))
	case errors.Is(err, services.ErrConflict):
		response.Error(c, response.NewConflict(err.Error()))
	case errors.Is(err, services.ErrInvalidState):
		response.Error(c, response.NewInvalidState(err.Error()))
	default:
		logger.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.FullPath()).
			Msg("unhandled service error")
		response.Error(c, err)
	}
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// requireActor returns the authenticated caller or writes 401.
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
	}
	return actor, ok
}

// bindJSON decodes the body; malformed JSON is a 400. Field rules are enforced by the services.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// bindOptionalJSON binds a body the caller may omit. Content-Length is not
// consulted since chunked requests report -1.
func bindOptionalJSON(c *gin.Context, dst interface{}) (present, ok bool) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return false, true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, true
		}
		response.BadRequest(c, "invalid request body: "+err.Error())
		return false, false
	}
	return true, true
}
