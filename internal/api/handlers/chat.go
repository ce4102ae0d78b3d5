package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/assistant"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/llm"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/wire"
)

// ChatService is the minimal contract the chat handler needs.
type ChatService interface {
	Chat(ctx context.Context, in assistant.ChatInput) (<-chan llm.StreamChunk, error)
	Answer(ctx context.Context, in assistant.ChatInput) (*assistant.Answer, error)
}

// Admitter is the server-side rate-limit gate.
type Admitter interface {
	Admit(clientID string) bool
}

// ChatHandler serves POST /api/v1/chat in streaming and buffered modes.
type ChatHandler struct {
	chat    ChatService
	limiter Admitter
}

// NewChatHandler wires the chat service and the admission gate.
func NewChatHandler(chat ChatService, limiter Admitter) *ChatHandler {
	return &ChatHandler{chat: chat, limiter: limiter}
}

type chatRequest struct {
	Message             string        `json:"message"`
	PageContext         string        `json:"pageContext"`
	ConversationHistory []llm.Message `json:"conversationHistory,omitempty"`
	Stream              bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	PageReferences []int  `json:"pageReferences,omitempty"`
}

// Chat admission-checks, validates, and then either pumps SSE frames or
// returns one buffered JSON response. The rate limiter and validation run
// before the provider chain is ever touched.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := clientIDFromContext(ctx)
	requestID := requestIDFromContext(ctx)

	if !h.limiter.Admit(clientID) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		return
	}

	var req chatRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" || req.PageContext == "" {
		writeError(w, http.StatusBadRequest, "message and pageContext are required")
		return
	}

	input := assistant.ChatInput{
		Message:     req.Message,
		PageContext: req.PageContext,
		History:     req.ConversationHistory,
		ClientID:    clientID,
		RequestID:   requestID,
	}

	if req.Stream {
		h.streamChat(w, r, input)
		return
	}

	answer, err := h.chat.Answer(ctx, input)
	if err != nil {
		log.Printf("chat request_id=%s: answer failed: %v", requestID, err)
		writeError(w, http.StatusInternalServerError, "failed to generate response")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:       answer.Response,
		PageReferences: answer.PageReferences,
	})
}

func (h *ChatHandler) streamChat(w http.ResponseWriter, r *http.Request, input assistant.ChatInput) {
	ctx := r.Context()
	requestID := requestIDFromContext(ctx)

	stream, err := h.chat.Chat(ctx, input)
	if err != nil {
		log.Printf("chat request_id=%s: stream open failed: %v", requestID, err)
		writeError(w, http.StatusInternalServerError, "failed to generate response")
		return
	}

	bw, flusher, err := prepareStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	pumpChunks(ctx, bw, flusher, stream, requestID)
}

// prepareStream sets the event-stream headers, with caching and
// intermediary buffering disabled.
func prepareStream(w http.ResponseWriter) (*bufio.Writer, http.Flusher, error) {
	w.Header().Set(headerContentType, wire.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Flusher")
	}
	return bufio.NewWriter(w), flusher, nil
}

// pumpChunks encodes chunks into frames until a terminal chunk is written
// or the destination is gone. A failed write means the caller aborted;
// treat it as stream completion for cleanup purposes and stop pumping.
func pumpChunks(ctx context.Context, bw *bufio.Writer, flusher http.Flusher, stream <-chan llm.StreamChunk, requestID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-stream:
			if !ok {
				return
			}
			if err := wire.WriteFrame(bw, chunk); err != nil {
				log.Printf("chat request_id=%s: client gone: %v", requestID, err)
				return
			}
			if err := bw.Flush(); err != nil {
				return
			}
			flusher.Flush()

			if chunk.IsTerminal() {
				return
			}
		}
	}
}
