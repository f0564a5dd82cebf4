package collab

import (
	"errors"

	"github.com/easelhq/easel-api/internal/models"
)

var (
	ErrUnauthenticated   = errors.New("caller is not authenticated")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session is no longer active")
	ErrSessionFull       = errors.New("session is full")
	ErrNotAParticipant   = errors.New("user is not a participant in this session")
	ErrNotAllowed        = errors.New("user role does not permit this action")
	ErrSnapshotNotFound  = errors.New("session snapshot not found")
	ErrUnknownResolution = errors.New("unknown resolution choice")
)

const (
	OutcomeAccepted     = "accepted"
	OutcomeConflict     = "conflict"
	OutcomeRejected     = "rejected"
	OutcomeAcknowledged = "acknowledged"
	OutcomeManual       = "manual"
)

const (
	ReasonInvalidSequence      = "invalid_sequence"
	ReasonInvalidOperation     = "invalid_operation"
	ReasonUnsupportedOperation = "unsupported_operation"
)

// Outcome is the result of submitting an operation or a resolution choice.
// A conflict is a normal branch of the protocol, not an error.
type Outcome struct {
	Status            string                 `json:"status"`
	ServerSequence    int64                  `json:"server_sequence"`
	Version           int                    `json:"version,omitempty"`
	Strategy          Strategy               `json:"strategy,omitempty"`
	Reason            string                 `json:"reason,omitempty"`
	ResolutionOptions []string               `json:"resolution_options,omitempty"`
	Conflict          *models.ConflictRecord `json:"conflict,omitempty"`
	Canvas            *models.CanvasState    `json:"canvas_state,omitempty"`
}

// SessionSnapshot is the full current state handed to a joining or
// reconnecting client so it can render without requesting history.
type SessionSnapshot struct {
	Session  models.Session `json:"session"`
	Sequence int64          `json:"sequence"`
}
