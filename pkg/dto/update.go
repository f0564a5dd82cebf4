package dto

import (
	"encoding/json"
	"time"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

type SubmitUpdateRequest struct {
	Type           string          `json:"type"`
	ClientSequence int64           `json:"client_sequence"`
	Timestamp      *time.Time      `json:"timestamp,omitempty"`
	Body           json.RawMessage `json:"body,omitempty"`
}

type UpdateResponse struct {
	Status            string                     `json:"status"`
	ServerSequence    int64                      `json:"server_sequence"`
	Version           int                        `json:"version,omitempty"`
	Strategy          string                     `json:"strategy,omitempty"`
	Reason            string                     `json:"reason,omitempty"`
	ConflictID        *uuid.UUID                 `json:"conflict_id,omitempty"`
	MissedOperations  []models.OperationLogEntry `json:"missed_operations,omitempty"`
	ResolutionOptions []string                   `json:"resolution_options,omitempty"`
	Canvas            *models.CanvasState        `json:"canvas,omitempty"`
}

type ResolveConflictRequest struct {
	Resolution string              `json:"resolution"`
	Operation  SubmitUpdateRequest `json:"operation"`
}

type ConflictResponse struct {
	ID             uuid.UUID `json:"id"`
	SessionID      string    `json:"session_id"`
	UserID         uuid.UUID `json:"user_id"`
	ClientSequence int64     `json:"client_sequence"`
	ServerSequence int64     `json:"server_sequence"`
	Strategy       string    `json:"resolution_strategy,omitempty"`
	Resolved       bool      `json:"resolved"`
	CreatedAt      time.Time `json:"created_at"`
}
