package services

import (
	"context"
	"errors"

	"github.com/easelhq/easel-api/internal/collab"
	"github.com/easelhq/easel-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionSummary is the persisted view of a session used by listings.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	CreatorID uuid.UUID `json:"creator_id"`
	Title     string    `json:"title"`
	Active    bool      `json:"is_active"`
}

// SnapshotService persists session snapshots to Postgres. Snapshots are
// upserted whole: the live session in memory is authoritative and the row
// only needs to hold the latest encoded state.
type SnapshotService struct {
	db *database.DB
}

func NewSnapshotService(db *database.DB) *SnapshotService {
	return &SnapshotService{db: db}
}

func (s *SnapshotService) Save(ctx context.Context, sessionID string, creatorID uuid.UUID, title string, active bool, data []byte) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO collab_sessions (session_id, creator_id, title, data, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id)
		DO UPDATE SET data = EXCLUDED.data, title = EXCLUDED.title,
			is_active = EXCLUDED.is_active, updated_at = NOW()
	`, sessionID, creatorID, title, data, active)
	return err
}

func (s *SnapshotService) Load(ctx context.Context, sessionID string) ([]byte, error) {
	var data []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT data FROM collab_sessions WHERE session_id = $1
	`, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, collab.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SnapshotService) ListActive(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT session_id, creator_id, title, is_active
		FROM collab_sessions WHERE is_active = TRUE
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.SessionID, &s.CreatorID, &s.Title, &s.Active); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
