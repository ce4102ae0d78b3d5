package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/llm"
)

// ProviderReporter exposes the active provider's identity and health.
type ProviderReporter interface {
	ProviderInfo() llm.ModelMeta
	ProviderHealth(ctx context.Context) error
}

// ProvidersHandler serves GET /api/v1/providers for ops probes.
type ProvidersHandler struct {
	reporter ProviderReporter
}

// NewProvidersHandler wires the reporter.
func NewProvidersHandler(reporter ProviderReporter) *ProvidersHandler {
	return &ProvidersHandler{reporter: reporter}
}

type providerStatus struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
}

// Providers reports the configured provider chain and a live health probe.
func (h *ProvidersHandler) Providers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	meta := h.reporter.ProviderInfo()
	status := providerStatus{Model: meta.ID, Provider: meta.Provider, Healthy: true}
	if err := h.reporter.ProviderHealth(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, status)
}
