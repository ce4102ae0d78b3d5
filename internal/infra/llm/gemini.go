// GeminiProvider calls the Google Generative Language REST API using
// stdlib net/http. Endpoints used:
//   - POST /v1beta/models/{model}:generateContent       — single-shot
//   - POST /v1beta/models/{model}:streamGenerateContent — SSE streaming
//   - GET  /v1beta/models/{model}                       — health check
//
// Gemini's role vocabulary is "user"/"model"; the adapter renames the
// uniform "assistant" role on the way in.
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
	geminiName         = "gemini"
	geminiDefaultModel = "gemini-2.0-flash"
	geminiRoleModel    = "model"
)

// GeminiProvider implements Provider against the Gemini API.
type GeminiProvider struct {
	baseURL      string
	apiKey       string
	model        string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewGeminiProvider creates a GeminiProvider. model may be empty to use
// the default.
func NewGeminiProvider(baseURL, apiKey, model string) *GeminiProvider {
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiProvider{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		streamClient: &http.Client{},
	}
}

// ─── internal Gemini JSON types ─────────────────────────────────────────────

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Generate performs a non-streaming generateContent call.
func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	resp, err := p.post(ctx, p.httpClient, ":generateContent", geminiGenerateRequest{
		Contents: geminiContents(req),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", p.errorFromResponse(resp)
	}

	var out geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: geminiName, Kind: KindFatal, Message: "malformed generate response", Err: err}
	}
	text := geminiText(out)
	if text == "" {
		return "", &ProviderError{Provider: geminiName, Kind: KindFatal, Message: "generate response has no candidates"}
	}
	return text, nil
}

// GenerateStream performs an SSE streamGenerateContent call.
func (p *GeminiProvider) GenerateStream(ctx context.Context, req GenerateRequest) (<-chan StreamChunk, error) {
	resp, err := p.post(ctx, p.streamClient, ":streamGenerateContent?alt=sse", geminiGenerateRequest{
		Contents: geminiContents(req),
	})
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

func (p *GeminiProvider) pumpStream(ctx context.Context, body io.ReadCloser, out chan<- StreamChunk) {
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

		var chunk geminiGenerateResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if delta := geminiText(chunk); delta != "" {
			if !send(StreamChunk{Type: ChunkContent, Delta: delta}) {
				return
			}
		}
		if len(chunk.Candidates) > 0 && chunk.Candidates[0].FinishReason != "" {
			send(StreamChunk{Type: ChunkDone})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		send(StreamChunk{Type: ChunkError, Error: fmt.Sprintf("gemini stream: %v", err)})
		return
	}
	send(StreamChunk{Type: ChunkDone})
}

// Rank performs a single-shot structured-ranking call.
func (p *GeminiProvider) Rank(ctx context.Context, prompt string) (string, error) {
	return p.Generate(ctx, GenerateRequest{Prompt: prompt})
}

// ModelInfo returns static metadata about the provider/model.
func (p *GeminiProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: p.model, Provider: geminiName}
}

// HealthCheck fetches the model resource to verify reachability.
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1beta/models/%s?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini health: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ────────────────────────────────────────────────────────────────

// geminiContents converts the uniform request into Gemini contents,
// renaming the assistant role to "model".
func geminiContents(req GenerateRequest) []geminiContent {
	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, m := range req.History {
		role := m.Role
		if role == RoleAssistant {
			role = geminiRoleModel
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	contents = append(contents, geminiContent{Role: RoleUser, Parts: []geminiPart{{Text: req.Prompt}}})
	return contents
}

func geminiText(resp geminiGenerateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

func (p *GeminiProvider) post(ctx context.Context, client *http.Client, suffix string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, &ProviderError{Provider: geminiName, Kind: KindFatal, Message: "marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s%s", p.baseURL, p.model, suffix)
	if strings.Contains(suffix, "?") {
		url += "&key=" + p.apiKey
	} else {
		url += "?key=" + p.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, &ProviderError{Provider: geminiName, Kind: KindFatal, Message: "build request", Err: err}
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: geminiName, Kind: KindTransient, Message: "request failed", Err: err}
	}
	return resp, nil
}

// errorFromResponse converts a non-200 response into a ProviderError.
// Gemini reports quota exhaustion as 429 RESOURCE_EXHAUSTED; a plain 429
// without that status is throttling.
func (p *GeminiProvider) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	message := strings.TrimSpace(string(raw))
	status := ""
	var apiErr geminiErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
		status = apiErr.Error.Status
	}

	kind := kindFromStatus(resp.StatusCode)
	if status == "RESOURCE_EXHAUSTED" {
		kind = KindQuotaExceeded
	}

	return &ProviderError{
		Provider: geminiName,
		Kind:     kind,
		Status:   resp.StatusCode,
		Message:  message,
	}
}
