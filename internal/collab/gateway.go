package collab

import (
	"context"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

const (
	EventParticipantJoined    = "participant_joined"
	EventParticipantLeft      = "participant_left"
	EventCanvasUpdated        = "canvas_updated"
	EventConflictNotification = "conflict_notification"
	EventChatMessage          = "chat_message"
	EventCursorUpdate         = "cursor_update"
	EventSessionClosed        = "session_closed"
)

// Gateway fans accepted operations, conflict notices and chat out to session
// participants. Implementations own addressing and transport; the core never
// touches individual connections. Calls must not block the caller.
type Gateway interface {
	// Notify delivers an event to every participant of a session.
	Notify(sessionID, event string, payload any)
	// Deliver targets a single participant, e.g. a conflict notice for the
	// submitter only.
	Deliver(sessionID string, userID uuid.UUID, event string, payload any)
}

// SnapshotStore durably persists serialized sessions, keyed by session id.
// Load returns ErrSnapshotNotFound when no snapshot exists.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, creatorID uuid.UUID, title string, active bool, data []byte) error
	Load(ctx context.Context, sessionID string) ([]byte, error)
}

// ConflictStore persists conflict records for audit, including auto-resolved
// ones.
type ConflictStore interface {
	Record(ctx context.Context, rec *models.ConflictRecord) error
	MarkResolved(ctx context.Context, id uuid.UUID, strategy string) error
}
