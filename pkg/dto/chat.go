package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	Message string `json:"message"`
}

type ChatMessageResponse struct {
	Kind      string    `json:"kind"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
