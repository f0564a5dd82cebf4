package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatKindSystem = "system"
	ChatKindUser   = "user"
)

type ChatEntry struct {
	Kind      string    `json:"kind"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
