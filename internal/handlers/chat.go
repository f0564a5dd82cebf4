package handlers

import (
	"github.com/easelhq/easel-api/internal/middleware"
	"github.com/easelhq/easel-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ChatHandler struct {
	manager SessionManagerInterface
}

func NewChatHandler(manager SessionManagerInterface) *ChatHandler {
	return &ChatHandler{manager: manager}
}

func (h *ChatHandler) Send(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.SendChatRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Message == "" {
		c.BadRequest("message is required")
		return
	}

	entry, err := h.manager.SendChatMessage(c.Request.Context(), c.Param("sessionId"), userID, req.Message)
	if err != nil {
		respondCollabError(c, err)
		return
	}

	_ = c.JSON(201, dto.ChatMessageResponse{
		Kind:      entry.Kind,
		UserID:    entry.UserID,
		UserName:  entry.UserName,
		Message:   entry.Message,
		Timestamp: entry.Timestamp,
	})
}

func (h *ChatHandler) History(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	snap, err := h.manager.Snapshot(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondCollabError(c, err)
		return
	}

	response := make([]dto.ChatMessageResponse, len(snap.Session.ChatHistory))
	for i, entry := range snap.Session.ChatHistory {
		response[i] = dto.ChatMessageResponse{
			Kind:      entry.Kind,
			UserID:    entry.UserID,
			UserName:  entry.UserName,
			Message:   entry.Message,
			Timestamp: entry.Timestamp,
		}
	}

	_ = c.JSON(200, response)
}
