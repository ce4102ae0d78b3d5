// Package ctxkeys holds the shared context keys for the API layer.
// Extracted to a leaf package to avoid import cycles between api and
// api/handlers.
package ctxkeys

import "context"

// Key is the unexported named type for all API context keys. Using a
// named type avoids collisions with string keys from other packages at
// runtime (context.Value compares both type and value).
type Key string

const (
	// ClientID is the context key for the caller's rate-limit identity.
	// Injected by ClientIdentity middleware from the JWT subject or the
	// X-Client-ID header; anonymous callers share one sentinel value.
	ClientID Key = "client_id"

	// RequestID is the context key for the per-request correlation ID.
	// Log correlation only; never part of the wire contract.
	RequestID Key = "request_id"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String reads a string value for key, with ok reporting presence.
func String(ctx context.Context, key Key) (string, bool) {
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
