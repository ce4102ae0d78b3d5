package sqlite

import (
	"database/sql"
	"fmt"
)

// schema is the full DDL. Statements are idempotent (IF NOT EXISTS) so
// Migrate may run at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS usage_log (
		id            TEXT PRIMARY KEY,
		request_id    TEXT NOT NULL,
		client_id     TEXT NOT NULL,
		provider      TEXT NOT NULL,
		operation     TEXT NOT NULL,
		streamed      INTEGER NOT NULL DEFAULT 0,
		outcome       TEXT NOT NULL,
		duration_ms   INTEGER NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_usage_log_created_at ON usage_log(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_usage_log_client_id ON usage_log(client_id)`,
	`CREATE TABLE IF NOT EXISTS api_clients (
		client_id     TEXT PRIMARY KEY,
		secret_hash   TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
}

// Migrate applies the schema to db.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite.Migrate: %w", err)
		}
	}
	return nil
}
