package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/hub"
	"github.com/easelhq/easel-api/internal/middleware"
	"github.com/easelhq/easel-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
)

// WebSocketHandler serves the duplex transport: client frames carry
// operations into the manager, hub events flow back over the same
// connection.
type WebSocketHandler struct {
	hub     HubInterface
	manager SessionManagerInterface
}

func NewWebSocketHandler(h HubInterface, manager SessionManagerInterface) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     h,
		manager: manager,
	}
}

func (h *WebSocketHandler) Connect(c *drift.Context) {
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

	conn, err := websocket.Upgrade(c)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
			log.Printf("WebSocket close error: %v", err)
		}
	}()

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

	if err := conn.WriteJSON(map[string]any{
		"type":      "connected",
		"client_id": clientID,
		"sequence":  snap.Sequence,
	}); err != nil {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range client.Send {
			if err := conn.WriteText(string(msg)); err != nil {
				return
			}
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var req dto.SubmitUpdateRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Type == "" {
			_ = conn.WriteJSON(map[string]string{"type": "error", "message": "invalid frame"})
			continue
		}

		outcome, err := h.manager.SubmitUpdate(context.Background(), sessionID, userID, operationFromRequest(&req))
		if err != nil {
			_ = conn.WriteJSON(map[string]string{"type": "error", "message": wsErrorMessage(err)})
			if errors.Is(err, collab.ErrSessionClosed) {
				return
			}
			continue
		}

		if err := conn.WriteJSON(map[string]any{
			"type": "update_result",
			"data": updateResponse(outcome),
		}); err != nil {
			return
		}
	}
}

func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, collab.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, collab.ErrSessionClosed):
		return "session is closed"
	case errors.Is(err, collab.ErrNotAParticipant):
		return "not a participant of this session"
	default:
		return "internal error"
	}
}
