package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/assistant"
)

// RankService is the minimal contract the rank handler needs.
type RankService interface {
	Rank(ctx context.Context, in assistant.ChatInput) (string, error)
}

// RankHandler serves POST /api/v1/rank: a single-shot structured-ranking
// call over the same provider chain as chat, sharing the admission gate.
type RankHandler struct {
	rank    RankService
	limiter Admitter
}

// NewRankHandler wires the rank service and the admission gate.
func NewRankHandler(rank RankService, limiter Admitter) *RankHandler {
	return &RankHandler{rank: rank, limiter: limiter}
}

type rankRequest struct {
	Message     string `json:"message"`
	PageContext string `json:"pageContext"`
}

type rankResponse struct {
	Ranking string `json:"ranking"`
}

// Rank handles the ranking request.
func (h *RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := clientIDFromContext(ctx)
	requestID := requestIDFromContext(ctx)

	if !h.limiter.Admit(clientID) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		return
	}

	var req rankRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" || req.PageContext == "" {
		writeError(w, http.StatusBadRequest, "message and pageContext are required")
		return
	}

	ranking, err := h.rank.Rank(ctx, assistant.ChatInput{
		Message:     req.Message,
		PageContext: req.PageContext,
		ClientID:    clientID,
		RequestID:   requestID,
	})
	if err != nil {
		log.Printf("rank request_id=%s: %v", requestID, err)
		writeError(w, http.StatusInternalServerError, "failed to rank")
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{Ranking: ranking})
}
