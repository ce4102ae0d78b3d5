package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeepSeekGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req deepseekChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if len(req.Messages) != 3 {
			t.Fatalf("expected 3 messages (2 history + prompt), got %d", len(req.Messages))
		}
		if last := req.Messages[2]; last.Role != RoleUser || last.Content != "What is on page 2?" {
			t.Errorf("final message = %+v", last)
		}

		w.Header().Set(headerContentType, mimeJSON)
		json.NewEncoder(w).Encode(deepseekChatResponse{ //nolint:errcheck
			Choices: []struct {
				Message      Message `json:"message"`
				FinishReason string  `json:"finish_reason"`
			}{
				{Message: Message{Role: RoleAssistant, Content: "Page 2 covers methods."}, FinishReason: "stop"},
			},
		})
	}))
	defer server.Close()

	p := NewDeepSeekProvider(server.URL, "test-key", "")
	text, err := p.Generate(context.Background(), GenerateRequest{
		Prompt: "What is on page 2?",
		History: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Page 2 covers methods." {
		t.Errorf("text = %q", text)
	}
}

func TestDeepSeekGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
	}{
		{
			name:     "insufficient balance is quota",
			status:   http.StatusPaymentRequired,
			body:     `{"error":{"message":"Insufficient Balance","type":"invalid_request_error"}}`,
			wantKind: KindQuotaExceeded,
		},
		{
			name:     "429 is rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"message":"Rate limit reached"}}`,
			wantKind: KindRateLimited,
		},
		{
			name:     "500 is transient",
			status:   http.StatusInternalServerError,
			body:     `{"error":{"message":"internal error"}}`,
			wantKind: KindTransient,
		},
		{
			name:     "401 is fatal",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"message":"invalid api key"}}`,
			wantKind: KindFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(headerContentType, mimeJSON)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer server.Close()

			p := NewDeepSeekProvider(server.URL, "key", "")
			_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "q"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Classify(err); got != tt.wantKind {
				t.Errorf("Classify = %s, want %s (err: %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestDeepSeekGenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req deepseekChatRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if !req.Stream {
			t.Error("expected stream=true")
		}

		w.Header().Set(headerContentType, "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"The "}}]}` + "\n\n"))   //nolint:errcheck
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"answer"}}]}` + "\n\n")) //nolint:errcheck
		w.Write([]byte("data: not-json\n\n"))                                          //nolint:errcheck
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"."}}]}` + "\n\n"))      //nolint:errcheck
		w.Write([]byte("data: [DONE]\n\n"))                                            //nolint:errcheck
	}))
	defer server.Close()

	p := NewDeepSeekProvider(server.URL, "key", "")
	stream, err := p.GenerateStream(context.Background(), GenerateRequest{Prompt: "q"})
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}

	var text string
	var terminals int
	for chunk := range stream {
		switch chunk.Type {
		case ChunkContent:
			text += chunk.Delta
		case ChunkDone, ChunkError:
			terminals++
		}
	}

	if text != "The answer." {
		t.Errorf("text = %q", text)
	}
	if terminals != 1 {
		t.Errorf("terminal chunks = %d, want 1", terminals)
	}
}

func TestDeepSeekGenerateStreamQuotaRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Insufficient Balance"}}`)) //nolint:errcheck
	}))
	defer server.Close()

	p := NewDeepSeekProvider(server.URL, "key", "")
	_, err := p.GenerateStream(context.Background(), GenerateRequest{Prompt: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Classify(err); got != KindQuotaExceeded {
		t.Errorf("Classify = %s, want %s", got, KindQuotaExceeded)
	}
}

func TestDeepSeekHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[]}`)) //nolint:errcheck
	}))
	defer server.Close()

	p := NewDeepSeekProvider(server.URL, "key", "")
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestDeepSeekModelInfo(t *testing.T) {
	p := NewDeepSeekProvider("http://localhost", "key", "")
	meta := p.ModelInfo()
	if meta.Provider != "deepseek" || meta.ID != "deepseek-chat" {
		t.Errorf("ModelInfo = %+v", meta)
	}
}
