// Package llm defines the model-agnostic answer-generation abstraction.
// The conversation/stream vocabulary lives in pkg/wire so external
// consumers of the client library can name it; this package aliases it
// and adds the provider-facing request types.
package llm

import "github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/wire"

// Role vocabulary, shared with the wire protocol. Adapters translate
// these into whatever the backend expects (Gemini renames "assistant"
// to "model").
const (
	RoleUser      = wire.RoleUser
	RoleAssistant = wire.RoleAssistant
)

// Message is a single conversation turn.
type Message = wire.Message

// ChunkType discriminates the kinds of stream chunks.
type ChunkType = wire.ChunkType

const (
	ChunkContent       = wire.ChunkContent
	ChunkPageReference = wire.ChunkPageReference
	ChunkError         = wire.ChunkError
	ChunkDone          = wire.ChunkDone
)

// StreamChunk is the atomic unit of a streamed answer.
type StreamChunk = wire.StreamChunk

// GenerateRequest is the uniform input for one answer generation call.
// Prompt is a finished prompt string; this package never builds prompts.
type GenerateRequest struct {
	Prompt  string
	History []Message
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID       string // e.g. "deepseek-chat", "gemini-2.0-flash"
	Provider string // e.g. "deepseek", "gemini", "fallback"
}
