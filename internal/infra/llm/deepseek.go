// DeepSeekProvider calls the DeepSeek REST API (OpenAI-compatible) using
// stdlib net/http. Endpoints used:
//   - POST /chat/completions — non-streaming and SSE streaming completions
//   - GET  /models           — health check (lists available models)
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	deepseekName         = "deepseek"
	deepseekDefaultModel = "deepseek-chat"

	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
)

// DeepSeekProvider implements Provider against the DeepSeek chat API.
type DeepSeekProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	// streamClient carries no timeout; streaming calls are bounded by ctx.
	streamClient *http.Client
}

// NewDeepSeekProvider creates a DeepSeekProvider. model may be empty to use
// the default. Single-shot calls carry a 60s client timeout; streaming
// calls are context-bounded only.
func NewDeepSeekProvider(baseURL, apiKey, model string) *DeepSeekProvider {
	if model == "" {
		model = deepseekDefaultModel
	}
	return &DeepSeekProvider{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		streamClient: &http.Client{},
	}
}

// ─── internal DeepSeek JSON types ────────────────────────────────────────────

type deepseekChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type deepseekChatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

type deepseekStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type deepseekErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Generate performs a non-streaming chat completion.
func (p *DeepSeekProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body := deepseekChatRequest{
		Model:    p.model,
		Messages: deepseekMessages(req),
		Stream:   false,
	}

	resp, err := p.post(ctx, p.httpClient, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", p.errorFromResponse(resp)
	}

	var out deepseekChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: deepseekName, Kind: KindFatal, Message: "malformed completion response", Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &ProviderError{Provider: deepseekName, Kind: KindFatal, Message: "completion response has no choices"}
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateStream performs an SSE streaming chat completion. Errors after
// the connection is established are delivered as an error chunk.
func (p *DeepSeekProvider) GenerateStream(ctx context.Context, req GenerateRequest) (<-chan StreamChunk, error) {
	body := deepseekChatRequest{
		Model:    p.model,
		Messages: deepseekMessages(req),
		Stream:   true,
	}

	resp, err := p.post(ctx, p.streamClient, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, p.errorFromResponse(resp)
	}

	out := make(chan StreamChunk, streamBuffer)
	go p.pumpStream(ctx, resp.Body, out)
	return out, nil
}

// pumpStream reads SSE lines from body and produces chunks until the
// backend signals completion or the context is cancelled.
func (p *DeepSeekProvider) pumpStream(ctx context.Context, body io.ReadCloser, out chan<- StreamChunk) {
	defer close(out)
	defer body.Close()

	send := func(c StreamChunk) bool {
		select {
		case out <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			send(StreamChunk{Type: ChunkDone})
			return
		}

		var chunk deepseekStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Lenient: skip frames we cannot parse.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if !send(StreamChunk{Type: ChunkContent, Delta: delta}) {
				return
			}
		}
		if chunk.Choices[0].FinishReason != "" {
			send(StreamChunk{Type: ChunkDone})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		send(StreamChunk{Type: ChunkError, Error: fmt.Sprintf("deepseek stream: %v", err)})
		return
	}
	// Body ended without a finish marker; still emit exactly one terminal.
	send(StreamChunk{Type: ChunkDone})
}

// Rank performs a single-shot structured-ranking call.
func (p *DeepSeekProvider) Rank(ctx context.Context, prompt string) (string, error) {
	return p.Generate(ctx, GenerateRequest{Prompt: prompt})
}

// ModelInfo returns static metadata about the provider/model.
func (p *DeepSeekProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: p.model, Provider: deepseekName}
}

// HealthCheck lists models via GET /models to verify reachability.
func (p *DeepSeekProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("deepseek health: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deepseek health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deepseek health: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ────────────────────────────────────────────────────────────────

// deepseekMessages converts the uniform request into the DeepSeek message
// list. The role vocabulary already matches (user/assistant); the prompt
// is appended as the final user turn.
func deepseekMessages(req GenerateRequest) []Message {
	msgs := make([]Message, 0, len(req.History)+1)
	msgs = append(msgs, req.History...)
	msgs = append(msgs, Message{Role: RoleUser, Content: req.Prompt})
	return msgs
}

func (p *DeepSeekProvider) post(ctx context.Context, client *http.Client, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, &ProviderError{Provider: deepseekName, Kind: KindFatal, Message: "marshal request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, &ProviderError{Provider: deepseekName, Kind: KindFatal, Message: "build request", Err: err}
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: deepseekName, Kind: KindTransient, Message: "request failed", Err: err}
	}
	return resp, nil
}

// errorFromResponse converts a non-200 response into a ProviderError with
// the kind attached at this boundary. DeepSeek signals quota exhaustion
// with HTTP 402 "Insufficient Balance".
func (p *DeepSeekProvider) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	message := strings.TrimSpace(string(raw))
	var apiErr deepseekErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	kind := kindFromStatus(resp.StatusCode)
	if resp.StatusCode == http.StatusPaymentRequired ||
		strings.Contains(strings.ToLower(message), "insufficient balance") {
		kind = KindQuotaExceeded
	}

	return &ProviderError{
		Provider: deepseekName,
		Kind:     kind,
		Status:   resp.StatusCode,
		Message:  message,
	}
}
