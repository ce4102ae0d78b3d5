// Package middleware holds the API HTTP middleware.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/api/ctxkeys"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/ratelimit"
	pkgauth "github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/auth"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/uuid"
)

// HeaderClientID is the caller-supplied client identifier header.
const HeaderClientID = "X-Client-ID"

// ClientIdentity resolves the caller's rate-limit identity and injects it
// into the request context, together with a fresh correlation ID.
//
// Resolution order:
//  1. A Bearer JWT, when present, must be valid; its subject wins → 401 on
//     an invalid token (presenting credentials implies they must check out).
//  2. The X-Client-ID header.
//  3. The shared anonymous sentinel. Documented degraded behavior: all
//     anonymous callers share one rate-limit window.
func ClientIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ratelimit.AnonymousClientID

		if token := extractBearerToken(r); token != "" {
			claims, err := pkgauth.ParseJWT(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			clientID = claims.Subject
		} else if header := strings.TrimSpace(r.Header.Get(HeaderClientID)); header != "" {
			clientID = header
		}

		ctx := r.Context()
		ctx = ctxkeys.WithValue(ctx, ctxkeys.ClientID, clientID)
		ctx = ctxkeys.WithValue(ctx, ctxkeys.RequestID, uuid.NewString())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Returns empty string if the header is missing, wrong scheme, or empty.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 7235)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 JSON response in the handlers' error shape.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"error":      http.StatusText(http.StatusUnauthorized),
		"message":    message,
		"statusCode": http.StatusUnauthorized,
	})
}
