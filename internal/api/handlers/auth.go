package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	domainauth "github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/auth"
)

// AuthService is the client-credential contract for the public endpoints.
type AuthService interface {
	Register(ctx context.Context, clientID, secret string) error
	IssueToken(ctx context.Context, clientID, secret string) (string, error)
}

// AuthHandler serves POST /auth/register and POST /auth/token.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler wires the auth service.
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type credentialsRequest struct {
	ClientID string `json:"clientId"`
	Secret   string `json:"secret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates a new API client.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if err := h.auth.Register(r.Context(), req.ClientID, req.Secret); err != nil {
		if errors.Is(err, domainauth.ErrClientExists) {
			writeError(w, http.StatusConflict, "client already registered")
			return
		}
		log.Printf("auth register: %v", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"clientId": req.ClientID})
}

// Token exchanges client credentials for a JWT.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.auth.IssueToken(r.Context(), req.ClientID, req.Secret)
	if err != nil {
		if errors.Is(err, domainauth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid client credentials")
			return
		}
		log.Printf("auth token: %v", err)
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return credentialsRequest{}, false
	}
	if req.ClientID == "" || req.Secret == "" {
		writeError(w, http.StatusBadRequest, "clientId and secret are required")
		return credentialsRequest{}, false
	}
	return req, true
}
