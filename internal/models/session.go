package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	AccessInviteOnly = "invite_only"
	AccessPublic     = "public"
)

const (
	RoleCreator     = "creator"
	RoleAdmin       = "admin"
	RoleModerator   = "moderator"
	RoleEditor      = "editor"
	RoleParticipant = "participant"
	RoleViewer      = "viewer"
)

// RolePriority orders session roles for priority-based conflict resolution.
// Unknown roles rank below viewer.
func RolePriority(role string) int {
	switch role {
	case RoleCreator:
		return 100
	case RoleAdmin:
		return 90
	case RoleModerator:
		return 80
	case RoleEditor:
		return 70
	case RoleParticipant:
		return 50
	case RoleViewer:
		return 10
	default:
		return 0
	}
}

type SessionSettings struct {
	MaxParticipants int      `json:"max_participants"`
	CanvasWidth     int      `json:"canvas_width"`
	CanvasHeight    int      `json:"canvas_height"`
	Tools           []string `json:"tools"`
	Access          string   `json:"access"`
	// ConflictStrategy overrides the server default for this session when set.
	ConflictStrategy string `json:"conflict_strategy,omitempty"`
}

// DefaultSessionSettings returns the settings applied when a creator omits them.
func DefaultSessionSettings() SessionSettings {
	return SessionSettings{
		MaxParticipants: 5,
		CanvasWidth:     1200,
		CanvasHeight:    800,
		Tools:           []string{"brush", "eraser", "text", "shape"},
		Access:          AccessInviteOnly,
	}
}

type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Participant struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
	Cursor   Cursor    `json:"cursor"`
	Active   bool      `json:"active"`
}

// Session is the full serialized state of one collaborative canvas: roster,
// canvas, chat and lifecycle. It is also the snapshot format persisted for
// recovery.
type Session struct {
	ID           string                     `json:"id"`
	Title        string                     `json:"title"`
	Description  string                     `json:"description"`
	CreatorID    uuid.UUID                  `json:"creator_id"`
	CreatedAt    time.Time                  `json:"created_at"`
	Settings     SessionSettings            `json:"settings"`
	Participants map[uuid.UUID]*Participant `json:"participants"`
	Canvas       CanvasState                `json:"canvas_state"`
	ChatHistory  []ChatEntry                `json:"chat_history"`
	Active       bool                       `json:"is_active"`
}

// NewSessionID generates an opaque session identifier.
func NewSessionID() string {
	return fmt.Sprintf("collab_%s", uuid.New())
}
