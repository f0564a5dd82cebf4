package handlers

import (
	"context"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/hub"
	"github.com/easelhq/easel-api/internal/models"
	"github.com/easelhq/easel-api/internal/services"
	"github.com/google/uuid"
)

// SessionManagerInterface defines the methods used by handlers from the collab Manager
type SessionManagerInterface interface {
	CreateSession(ctx context.Context, creatorID uuid.UUID, creatorName, title, description string, settings *models.SessionSettings) (*models.Session, error)
	JoinSession(ctx context.Context, sessionID string, userID uuid.UUID, name string) (*collab.SessionSnapshot, error)
	LeaveSession(ctx context.Context, sessionID string, userID uuid.UUID) error
	CloseSession(ctx context.Context, sessionID string, userID uuid.UUID) error
	Snapshot(ctx context.Context, sessionID string) (*collab.SessionSnapshot, error)
	SubmitUpdate(ctx context.Context, sessionID string, userID uuid.UUID, op models.Operation) (*collab.Outcome, error)
	ResolveConflict(ctx context.Context, sessionID string, userID uuid.UUID, conflictID uuid.UUID, choice string, op models.Operation) (*collab.Outcome, error)
	SendChatMessage(ctx context.Context, sessionID string, userID uuid.UUID, text string) (*models.ChatEntry, error)
}

// SnapshotServiceInterface defines the methods used by handlers from SnapshotService
type SnapshotServiceInterface interface {
	ListActive(ctx context.Context) ([]services.SessionSummary, error)
}

// ConflictServiceInterface defines the methods used by handlers from ConflictService
type ConflictServiceInterface interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.ConflictRecord, error)
}

// HubInterface defines the methods used by handlers from the Hub
type HubInterface interface {
	Register(client *hub.Client)
	Unregister(client *hub.Client)
	Subscribe(clientID, sessionID string)
	Unsubscribe(clientID, sessionID string)
}
