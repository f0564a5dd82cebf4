package handlers

import (
	"fmt"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/hub"
	"github.com/easelhq/easel-api/internal/middleware"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub     HubInterface
	manager SessionManagerInterface
}

func NewSSEHandler(h HubInterface, manager SessionManagerInterface) *SSEHandler {
	return &SSEHandler{
		hub:     h,
		manager: manager,
	}
}

func (h *SSEHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sessionID := c.Param("sessionId")
	snap, err := h.manager.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		respondCollabError(c, err)
		return
	}
	if _, ok := snap.Session.Participants[userID]; !ok {
		c.Forbidden("not a participant of this session")
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &hub.Client{
		ID:       clientID,
		UserID:   userID,
		UserName: middleware.GetUserName(c),
		Sessions: map[string]bool{sessionID: true},
		Send:     make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]any{
		"type":      "connected",
		"client_id": clientID,
		"sequence":  snap.Sequence,
	}, "system", ""); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		<-c.Request.Context().Done()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *SSEHandler) Subscribe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

	sessionID := c.Param("sessionId")
	snap, err := h.manager.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		respondCollabError(c, err)
		return
	}
	if _, ok := snap.Session.Participants[userID]; !ok {
		respondCollabError(c, collab.ErrNotAParticipant)
		return
	}

	h.hub.Subscribe(clientID, sessionID)

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("subscribed to session %s", sessionID),
	})
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

	h.hub.Unsubscribe(clientID, c.Param("sessionId"))

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("unsubscribed from session %s", c.Param("sessionId")),
	})
}
