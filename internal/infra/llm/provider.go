package llm

import "context"

// Provider is the uniform contract every answer backend implements.
// Adapters (DeepSeek, Gemini) translate these calls into their vendor's
// request/response shapes so the rest of the application never depends on
// a specific vendor.
//
// No end-to-end deadline is imposed here: callers bound calls through ctx
// if they need one. The only time-bounded behavior in the system is the
// client-side retry backoff ceiling.
type Provider interface {
	// Generate performs a single-shot completion. On failure it returns a
	// classifiable error (see Classify); it never returns partial text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// GenerateStream starts a streaming completion. The returned channel
	// yields content chunks as text arrives and closes after exactly one
	// terminal chunk, even when the transport fails mid-stream (transport
	// errors become an error chunk). Only the initial connection failure
	// is reported through the error return.
	GenerateStream(ctx context.Context, req GenerateRequest) (<-chan StreamChunk, error)

	// Rank performs a single-shot structured-ranking call. Same error
	// contract as Generate.
	Rank(ctx context.Context, prompt string) (string, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the backend is reachable.
	HealthCheck(ctx context.Context) error
}

// streamBuffer is the channel buffer used by adapter producer goroutines.
// Small on purpose: producers block once the consumer stops draining, so
// cancellation propagates instead of piling up chunks for a gone caller.
const streamBuffer = 8
