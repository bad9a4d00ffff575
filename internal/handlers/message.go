package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/helpmarq/backend/internal/services"
	"github.com/helpmarq/backend/pkg/response"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List returns the thread for an approved application and marks incoming messages read
// GET /api/messages/:applicationId
func (h *MessageHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	applicationID, ok := parseID(c, "applicationId")
	if !ok {
		return
	}

	messages, err := h.messageService.List(c.Request.Context(), actor, applicationID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, messages)
}

// POST /api/messages
func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, msg)
}
