// Package api wires the chi router. Dependencies are constructed once at
// process start (cmd) and injected here, so initialization failures
// surface eagerly instead of on first request.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/api/handlers"
	apmiddleware "github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/api/middleware"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/assistant"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/audit"
	domainauth "github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/auth"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/ratelimit"
)

// Deps are the explicitly injected collaborators for the router.
// Auth may be nil to disable the /auth endpoints.
type Deps struct {
	Assistant *assistant.Service
	Limiter   *ratelimit.Store
	Usage     *audit.UsageService
	Auth      *domainauth.Service
}

// NewRouter creates and configures the chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// ===== PUBLIC ROUTES =====

	// Health check — unauthenticated, used by load balancers and probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	if deps.Auth != nil {
		authHandler := handlers.NewAuthHandler(deps.Auth)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register) // POST /auth/register
			r.Post("/token", authHandler.Token)       // POST /auth/token
		})
	}

	// ===== API ROUTES =====

	// No auth requirement: ClientIdentity resolves the caller's identity
	// (JWT subject, X-Client-ID header, or the shared anonymous sentinel)
	// for rate limiting, and stamps a correlation ID.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.ClientIdentity)

		chatHandler := handlers.NewChatHandler(deps.Assistant, deps.Limiter)
		rankHandler := handlers.NewRankHandler(deps.Assistant, deps.Limiter)
		providersHandler := handlers.NewProvidersHandler(deps.Assistant)
		usageHandler := handlers.NewUsageHandler(deps.Usage)

		r.Post("/chat", chatHandler.Chat)               // POST /api/v1/chat
		r.Post("/rank", rankHandler.Rank)               // POST /api/v1/rank
		r.Get("/providers", providersHandler.Providers) // GET /api/v1/providers
		r.Get("/usage", usageHandler.List)              // GET /api/v1/usage
	})

	return r
}
