package models

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionOptions is the fixed set of choices offered to a submitter whose
// operation could not be auto-resolved.
var ResolutionOptions = []string{"keep_yours", "keep_theirs", "merge", "manual"}

// ConflictRecord captures a detected conflict for resolution and audit. It is
// persisted even when a strategy resolves it automatically.
type ConflictRecord struct {
	ID             uuid.UUID           `json:"id"`
	SessionID      string              `json:"session_id"`
	AuthorID       uuid.UUID           `json:"author_id"`
	ClientSequence int64               `json:"client_sequence"`
	ServerSequence int64               `json:"server_sequence"`
	Operation      Operation           `json:"operation"`
	Missed         []OperationLogEntry `json:"missed_operations"`
	Strategy       string              `json:"resolution_strategy,omitempty"`
	Resolved       bool                `json:"resolved"`
	CreatedAt      time.Time           `json:"created_at"`
	ResolvedAt     *time.Time          `json:"resolved_at,omitempty"`
}
