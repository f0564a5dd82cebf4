package handlers

import (
	"context"
	"time"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/middleware"
	"github.com/easelhq/easel-api/internal/models"
	"github.com/easelhq/easel-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type UpdateHandler struct {
	manager   SessionManagerInterface
	conflicts ConflictServiceInterface
}

func NewUpdateHandler(manager SessionManagerInterface, conflicts ConflictServiceInterface) *UpdateHandler {
	return &UpdateHandler{
		manager:   manager,
		conflicts: conflicts,
	}
}

func operationFromRequest(req *dto.SubmitUpdateRequest) models.Operation {
	op := models.Operation{
		Type:           req.Type,
		ClientSequence: req.ClientSequence,
		Body:           req.Body,
	}
	if req.Timestamp != nil {
		op.Timestamp = *req.Timestamp
	} else {
		op.Timestamp = time.Now()
	}
	return op
}

func updateResponse(outcome *collab.Outcome) dto.UpdateResponse {
	resp := dto.UpdateResponse{
		Status:            outcome.Status,
		ServerSequence:    outcome.ServerSequence,
		Version:           outcome.Version,
		Strategy:          string(outcome.Strategy),
		Reason:            outcome.Reason,
		ResolutionOptions: outcome.ResolutionOptions,
		Canvas:            outcome.Canvas,
	}
	if outcome.Conflict != nil {
		id := outcome.Conflict.ID
		resp.ConflictID = &id
		resp.MissedOperations = outcome.Conflict.Missed
	}
	return resp
}

func (h *UpdateHandler) Submit(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.SubmitUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Type == "" {
		c.BadRequest("type is required")
		return
	}

	outcome, err := h.manager.SubmitUpdate(c.Request.Context(), c.Param("sessionId"), userID, operationFromRequest(&req))
	if err != nil {
		respondCollabError(c, err)
		return
	}

	status := 200
	if outcome.Status == collab.OutcomeRejected {
		status = 422
	}
	_ = c.JSON(status, updateResponse(outcome))
}

func (h *UpdateHandler) Resolve(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	conflictID, err := uuid.Parse(c.Param("conflictId"))
	if err != nil {
		c.BadRequest("invalid conflict id")
		return
	}

	var req dto.ResolveConflictRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Resolution == "" {
		c.BadRequest("resolution is required")
		return
	}

	outcome, err := h.manager.ResolveConflict(c.Request.Context(), c.Param("sessionId"), userID, conflictID, req.Resolution, operationFromRequest(&req.Operation))
	if err != nil {
		respondCollabError(c, err)
		return
	}

	status := 200
	if outcome.Status == collab.OutcomeRejected {
		status = 422
	}
	_ = c.JSON(status, updateResponse(outcome))
}

func (h *UpdateHandler) ListConflicts(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	records, err := h.conflicts.ListBySession(context.Background(), c.Param("sessionId"))
	if err != nil {
		c.InternalServerError("failed to list conflicts")
		return
	}

	response := make([]dto.ConflictResponse, len(records))
	for i, rec := range records {
		response[i] = dto.ConflictResponse{
			ID:             rec.ID,
			SessionID:      rec.SessionID,
			UserID:         rec.AuthorID,
			ClientSequence: rec.ClientSequence,
			ServerSequence: rec.ServerSequence,
			Strategy:       rec.Strategy,
			Resolved:       rec.Resolved,
			CreatedAt:      rec.CreatedAt,
		}
	}

	_ = c.JSON(200, response)
}
