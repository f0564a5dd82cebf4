package dto

import (
	"time"

	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

type SessionSettingsRequest struct {
	MaxParticipants  int      `json:"max_participants,omitempty"`
	CanvasWidth      int      `json:"canvas_width,omitempty"`
	CanvasHeight     int      `json:"canvas_height,omitempty"`
	Tools            []string `json:"tools,omitempty"`
	Access           string   `json:"access,omitempty"`
	ConflictStrategy string   `json:"conflict_strategy,omitempty"`
}

type CreateSessionRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Settings    *SessionSettingsRequest `json:"settings,omitempty"`
}

type SessionResponse struct {
	ID           string                 `json:"session_id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description,omitempty"`
	CreatorID    uuid.UUID              `json:"creator_id"`
	CreatedAt    time.Time              `json:"created_at"`
	Settings     models.SessionSettings `json:"settings"`
	Participants []models.Participant   `json:"participants"`
	Active       bool                   `json:"is_active"`
}

type SessionSnapshotResponse struct {
	SessionResponse
	Canvas      models.CanvasState `json:"canvas"`
	ChatHistory []models.ChatEntry `json:"chat_history"`
	Sequence    int64              `json:"sequence"`
}

type SessionSummaryResponse struct {
	SessionID string    `json:"session_id"`
	CreatorID uuid.UUID `json:"creator_id"`
	Title     string    `json:"title"`
	Active    bool      `json:"is_active"`
}

func NewSessionResponse(s *models.Session) SessionResponse {
	participants := make([]models.Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		participants = append(participants, *p)
	}
	return SessionResponse{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		CreatorID:    s.CreatorID,
		CreatedAt:    s.CreatedAt,
		Settings:     s.Settings,
		Participants: participants,
		Active:       s.Active,
	}
}

func NewSessionSnapshotResponse(s *models.Session, sequence int64) SessionSnapshotResponse {
	chat := s.ChatHistory
	if chat == nil {
		chat = []models.ChatEntry{}
	}
	return SessionSnapshotResponse{
		SessionResponse: NewSessionResponse(s),
		Canvas:          s.Canvas,
		ChatHistory:     chat,
		Sequence:        sequence,
	}
}
