package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/audit"
)

// UsageLister reads recent usage-log entries.
type UsageLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.UsageEntry, error)
}

// UsageHandler serves GET /api/v1/usage.
type UsageHandler struct {
	usage UsageLister
}

// NewUsageHandler wires the usage store.
func NewUsageHandler(usage UsageLister) *UsageHandler {
	return &UsageHandler{usage: usage}
}

type usageResponse struct {
	Entries []audit.UsageEntry `json:"entries"`
}

// List returns recent usage entries, newest first. ?limit= caps the count.
func (h *UsageHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.usage.ListRecent(r.Context(), limit)
	if err != nil {
		log.Printf("usage list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list usage")
		return
	}
	if entries == nil {
		entries = []audit.UsageEntry{}
	}
	writeJSON(w, http.StatusOK, usageResponse{Entries: entries})
}
