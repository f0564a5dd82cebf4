package handlers

import (
	"context"

	"github.com/easelhq/easel-api/internal/middleware"
	"github.com/easelhq/easel-api/internal/models"
	"github.com/easelhq/easel-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SessionHandler struct {
	manager   SessionManagerInterface
	snapshots SnapshotServiceInterface
}

func NewSessionHandler(manager SessionManagerInterface, snapshots SnapshotServiceInterface) *SessionHandler {
	return &SessionHandler{
		manager:   manager,
		snapshots: snapshots,
	}
}

func (h *SessionHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	var settings *models.SessionSettings
	if req.Settings != nil {
		settings = &models.SessionSettings{
			MaxParticipants:  req.Settings.MaxParticipants,
			CanvasWidth:      req.Settings.CanvasWidth,
			CanvasHeight:     req.Settings.CanvasHeight,
			Tools:            req.Settings.Tools,
			Access:           req.Settings.Access,
			ConflictStrategy: req.Settings.ConflictStrategy,
		}
	}

	session, err := h.manager.CreateSession(c.Request.Context(), userID, middleware.GetUserName(c), req.Title, req.Description, settings)
	if err != nil {
		respondCollabError(c, err)
		return
	}

	_ = c.JSON(201, dto.NewSessionResponse(session))
}

func (h *SessionHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sessions, err := h.snapshots.ListActive(context.Background())
	if err != nil {
		c.InternalServerError("failed to list sessions")
		return
	}

	response := make([]dto.SessionSummaryResponse, len(sessions))
	for i, s := range sessions {
		response[i] = dto.SessionSummaryResponse{
			SessionID: s.SessionID,
			CreatorID: s.CreatorID,
			Title:     s.Title,
			Active:    s.Active,
		}
	}

	_ = c.JSON(200, response)
}

func (h *SessionHandler) Get(c *drift.Context) {
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

	_ = c.JSON(200, dto.NewSessionSnapshotResponse(&snap.Session, snap.Sequence))
}

func (h *SessionHandler) Join(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	snap, err := h.manager.JoinSession(c.Request.Context(), c.Param("sessionId"), userID, middleware.GetUserName(c))
	if err != nil {
		respondCollabError(c, err)
		return
	}

	_ = c.JSON(200, dto.NewSessionSnapshotResponse(&snap.Session, snap.Sequence))
}

func (h *SessionHandler) Leave(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.manager.LeaveSession(c.Request.Context(), c.Param("sessionId"), userID); err != nil {
		respondCollabError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "left session"})
}

func (h *SessionHandler) Close(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.manager.CloseSession(c.Request.Context(), c.Param("sessionId"), userID); err != nil {
		respondCollabError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "session closed"})
}
