package infra

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv_store (
		bucket     TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      JSONB       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (bucket, key)
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id         BIGSERIAL   PRIMARY KEY,
		chat_id    BIGINT      NOT NULL,
		backend    TEXT        NOT NULL,
		role       TEXT        NOT NULL,
		text       TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS records_chat_id_idx ON records (chat_id, created_at)`,
}

// EnsureSchema создаёт таблицы, если их ещё нет
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
