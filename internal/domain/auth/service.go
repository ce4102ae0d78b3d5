// Package auth implements the optional client-credential flow: a client
// registers an identifier + secret once, then exchanges them for a JWT
// whose subject becomes its rate-limit identity. Chat endpoints never
// require a token; unauthenticated callers are identified by header or
// share the anonymous window.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pkgauth "github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/auth"
)

var (
	// ErrClientExists is returned when registering an already-known client ID.
	ErrClientExists = errors.New("client already registered")

	// ErrInvalidCredentials is returned for unknown client IDs and wrong secrets.
	ErrInvalidCredentials = errors.New("invalid client credentials")
)

// Service manages registered API clients.
type Service struct {
	db *sql.DB
}

// NewService creates an auth service over db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Register stores a new client with a bcrypt-hashed secret.
func (s *Service) Register(ctx context.Context, clientID, secret string) error {
	hash, err := pkgauth.HashSecret(secret)
	if err != nil {
		return err
	}

	const q = `INSERT INTO api_clients (client_id, secret_hash, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, clientID, hash, time.Now().UTC()); err != nil {
		var exists int
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM api_clients WHERE client_id = ?`, clientID)
		if scanErr := row.Scan(&exists); scanErr == nil && exists > 0 {
			return ErrClientExists
		}
		return fmt.Errorf("auth: register client: %w", err)
	}
	return nil
}

// IssueToken verifies the secret and returns a signed JWT for clientID.
func (s *Service) IssueToken(ctx context.Context, clientID, secret string) (string, error) {
	var hash string
	row := s.db.QueryRowContext(ctx, `SELECT secret_hash FROM api_clients WHERE client_id = ?`, clientID)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: lookup client: %w", err)
	}

	if !pkgauth.CheckSecret(hash, secret) {
		return "", ErrInvalidCredentials
	}

	return pkgauth.GenerateJWT(clientID)
}
