package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/easelhq/easel-api/internal/database"
	"github.com/easelhq/easel-api/internal/models"
	"github.com/google/uuid"
)

var ErrConflictNotFound = errors.New("conflict not found")

// ConflictService stores the conflict audit trail. Records are written on
// every detected conflict and updated when a resolution lands.
type ConflictService struct {
	db *database.DB
}

func NewConflictService(db *database.DB) *ConflictService {
	return &ConflictService{db: db}
}

func (s *ConflictService) Record(ctx context.Context, rec *models.ConflictRecord) error {
	payload, err := json.Marshal(struct {
		Operation models.Operation           `json:"operation"`
		Missed    []models.OperationLogEntry `json:"missed"`
	}{rec.Operation, rec.Missed})
	if err != nil {
		return err
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO collab_conflicts
			(id, session_id, user_id, client_sequence, server_sequence,
			 conflict_data, resolution_strategy, resolved, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.SessionID, rec.AuthorID, rec.ClientSequence, rec.ServerSequence,
		payload, nullableString(rec.Strategy), rec.Resolved, rec.CreatedAt, rec.ResolvedAt)
	return err
}

func (s *ConflictService) MarkResolved(ctx context.Context, id uuid.UUID, strategy string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE collab_conflicts
		SET resolved = TRUE, resolution_strategy = $1, resolved_at = NOW()
		WHERE id = $2
	`, strategy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflictNotFound
	}
	return nil
}

func (s *ConflictService) ListBySession(ctx context.Context, sessionID string) ([]models.ConflictRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, session_id, user_id, client_sequence, server_sequence,
			conflict_data, COALESCE(resolution_strategy, ''), resolved, created_at, resolved_at
		FROM collab_conflicts WHERE session_id = $1
		ORDER BY created_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ConflictRecord
	for rows.Next() {
		var rec models.ConflictRecord
		var payload []byte
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.AuthorID, &rec.ClientSequence, &rec.ServerSequence,
			&payload, &rec.Strategy, &rec.Resolved, &rec.CreatedAt, &rec.ResolvedAt,
		); err != nil {
			return nil, err
		}
		var data struct {
			Operation models.Operation           `json:"operation"`
			Missed    []models.OperationLogEntry `json:"missed"`
		}
		if err := json.Unmarshal(payload, &data); err == nil {
			rec.Operation = data.Operation
			rec.Missed = data.Missed
		}
		records = append(records, rec)
	}
	return records, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
