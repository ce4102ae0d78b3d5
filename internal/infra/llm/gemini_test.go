package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiGenerateRenamesAssistantRole(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("key = %q", key)
		}

		var req geminiGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 3 {
			t.Fatalf("expected 3 contents, got %d", len(req.Contents))
		}
		if req.Contents[0].Role != "user" {
			t.Errorf("contents[0].Role = %q", req.Contents[0].Role)
		}
		if req.Contents[1].Role != "model" {
			t.Errorf("contents[1].Role = %q, want model", req.Contents[1].Role)
		}
		if req.Contents[2].Role != "user" {
			t.Errorf("contents[2].Role = %q", req.Contents[2].Role)
		}

		w.Header().Set(headerContentType, mimeJSON)
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Sure."}]},"finishReason":"STOP"}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, "test-key", "")
	text, err := p.Generate(context.Background(), GenerateRequest{
		Prompt: "and now?",
		History: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Sure." {
		t.Errorf("text = %q", text)
	}
}

func TestGeminiResourceExhaustedIsQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded for generate requests","status":"RESOURCE_EXHAUSTED"}}`)) //nolint:errcheck
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, "key", "")
	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Classify(err); got != KindQuotaExceeded {
		t.Errorf("Classify = %s, want %s", got, KindQuotaExceeded)
	}
}

func TestGeminiPlain429IsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"slow down","status":"UNAVAILABLE"}}`)) //nolint:errcheck
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, "key", "")
	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if pe.Kind != KindRateLimited {
		t.Errorf("Kind = %s, want %s", pe.Kind, KindRateLimited)
	}
}

func TestGeminiGenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if alt := r.URL.Query().Get("alt"); alt != "sse" {
			t.Errorf("alt = %q", alt)
		}

		w.Header().Set(headerContentType, "text/event-stream")
		w.Write([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}` + "\n\n"))                        //nolint:errcheck
		w.Write([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"lo"}]},"finishReason":"STOP"}]}` + "\n\n")) //nolint:errcheck
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, "key", "")
	stream, err := p.GenerateStream(context.Background(), GenerateRequest{Prompt: "q"})
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}

	var text string
	var last StreamChunk
	for chunk := range stream {
		if chunk.Type == ChunkContent {
			text += chunk.Delta
		}
		last = chunk
	}

	if text != "Hello" {
		t.Errorf("text = %q", text)
	}
	if last.Type != ChunkDone {
		t.Errorf("last chunk = %+v, want done", last)
	}
}

func TestGeminiModelInfo(t *testing.T) {
	p := NewGeminiProvider("http://localhost", "key", "custom-model")
	meta := p.ModelInfo()
	if meta.Provider != "gemini" || meta.ID != "custom-model" {
		t.Errorf("ModelInfo = %+v", meta)
	}
}
