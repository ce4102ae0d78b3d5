// Package wire defines the shared request/stream vocabulary of the
// assistant API: conversation messages, stream chunks, and the
// text-frame codec carrying chunks over HTTP. It is a leaf package so
// external consumers of pkg/client can name these types.
package wire

// Role vocabulary used across the application. Provider adapters
// translate these into whatever a backend expects (Gemini renames
// "assistant" to "model").
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChunkType discriminates the kinds of stream chunks.
type ChunkType string

const (
	ChunkContent       ChunkType = "content"
	ChunkPageReference ChunkType = "page_reference"
	ChunkError         ChunkType = "error"
	ChunkDone          ChunkType = "done"
)

// StreamChunk is the atomic unit of a streamed answer.
// A stream is zero or more content chunks followed by exactly one terminal
// chunk (done or error). Pages, when set on the terminal done chunk, holds
// each referenced page number once, in first-seen order.
type StreamChunk struct {
	Type  ChunkType `json:"type"`
	Delta string    `json:"delta,omitempty"`
	Pages []int     `json:"pages,omitempty"`
	Error string    `json:"error,omitempty"`
}

// IsTerminal reports whether the chunk ends its stream.
func (c StreamChunk) IsTerminal() bool {
	return c.Type == ChunkDone || c.Type == ChunkError
}
