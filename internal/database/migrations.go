package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS collab_sessions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		session_id VARCHAR(64) UNIQUE NOT NULL,
		creator_id UUID NOT NULL,
		title VARCHAR(255) NOT NULL,
		data JSONB NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS collab_conflicts (
		id UUID PRIMARY KEY,
		session_id VARCHAR(64) NOT NULL,
		user_id UUID NOT NULL,
		client_sequence BIGINT NOT NULL,
		server_sequence BIGINT NOT NULL,
		conflict_data JSONB NOT NULL DEFAULT '{}',
		resolution_strategy VARCHAR(50),
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		resolved_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_collab_sessions_creator_id ON collab_sessions(creator_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collab_sessions_is_active ON collab_sessions(is_active)`,
	`CREATE INDEX IF NOT EXISTS idx_collab_conflicts_session_id ON collab_conflicts(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collab_conflicts_user_id ON collab_conflicts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collab_conflicts_resolved ON collab_conflicts(resolved)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
