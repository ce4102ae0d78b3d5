// Package audit provides the append-only usage log. All operations are
// inserts and reads; no updates or deletes are supported.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/uuid"
)

// UsageService persists usage entries into sqlite.
type UsageService struct {
	db *sql.DB
}

// NewUsageService creates a usage service over db.
func NewUsageService(db *sql.DB) *UsageService {
	return &UsageService{db: db}
}

// Record inserts a usage entry. Missing ID/CreatedAt are filled in.
func (s *UsageService) Record(ctx context.Context, e UsageEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO usage_log
		(id, request_id, client_id, provider, operation, streamed, outcome, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		e.ID, e.RequestID, e.ClientID, e.Provider, e.Operation,
		boolToInt(e.Streamed), string(e.Outcome), e.DurationMS, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: record usage: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (s *UsageService) ListRecent(ctx context.Context, limit int) ([]UsageEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	const q = `SELECT id, request_id, client_id, provider, operation, streamed, outcome, duration_ms, created_at
		FROM usage_log ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list usage: %w", err)
	}
	defer rows.Close()

	var entries []UsageEntry
	for rows.Next() {
		var e UsageEntry
		var streamed int
		var outcome string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.ClientID, &e.Provider, &e.Operation, &streamed, &outcome, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan usage row: %w", err)
		}
		e.Streamed = streamed != 0
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate usage rows: %w", err)
	}
	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
