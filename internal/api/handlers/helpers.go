// Package handlers implements the HTTP request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/api/ctxkeys"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/ratelimit"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
)

// errorResponse is the uniform error body: {error, message, statusCode}.
type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// writeError writes a JSON error response with the given status.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse{ //nolint:errcheck
		Error:      http.StatusText(statusCode),
		Message:    message,
		StatusCode: statusCode,
	})
}

// writeJSON writes a JSON success response.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload) //nolint:errcheck
}

// clientIDFromContext returns the resolved rate-limit identity, defaulting
// to the anonymous sentinel when the middleware did not run (tests).
func clientIDFromContext(ctx context.Context) string {
	if id, ok := ctxkeys.String(ctx, ctxkeys.ClientID); ok {
		return id
	}
	return ratelimit.AnonymousClientID
}

// requestIDFromContext returns the correlation ID, empty when absent.
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctxkeys.String(ctx, ctxkeys.RequestID)
	return id
}
