// Package client is the Go client for the assistant backend: it issues
// chat requests, decodes the streamed frame protocol, retries transient
// failures with exponential backoff, and locally rate-limits bursts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/llm"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/wire"
)

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = 500 * time.Millisecond

	headerClientID = "X-Client-ID"
)

// RetryFunc is invoked before each backoff wait. Observability only (UI
// "retrying..." indicators); it must not affect control flow.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Config configures a Client.
type Config struct {
	BaseURL  string
	ClientID string // sent as X-Client-ID when set
	Token    string // bearer JWT, overrides ClientID server-side when set

	// MaxRetries is the retry count after the initial attempt. Zero means
	// the default (3); a negative value disables retries entirely.
	MaxRetries   int
	InitialDelay time.Duration // backoff base; delay before retry k is InitialDelay*2^k
	OnRetry      RetryFunc     // optional

	HTTPClient *http.Client // optional; streaming calls use a timeout-free copy
	Limiter    *Limiter     // optional local admission gate
}

// Client talks to the assistant backend.
type Client struct {
	baseURL      string
	clientID     string
	token        string
	maxRetries   int
	initialDelay time.Duration
	onRetry      RetryFunc
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *Limiter
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	} else if maxRetries < 0 {
		maxRetries = 0
	}
	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		token:        cfg.Token,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		onRetry:      cfg.OnRetry,
		httpClient:   httpClient,
		streamClient: &http.Client{Transport: httpClient.Transport},
		limiter:      cfg.Limiter,
	}
}

// ChatRequest is one question about the current document view.
type ChatRequest struct {
	Message             string         `json:"message"`
	PageContext         string         `json:"pageContext"`
	ConversationHistory []wire.Message `json:"conversationHistory,omitempty"`
	Stream              bool           `json:"stream,omitempty"`
}

// ChatResponse is the buffered answer.
type ChatResponse struct {
	Response       string `json:"response"`
	PageReferences []int  `json:"pageReferences,omitempty"`
}

// Send performs a buffered chat call with retry.
func (c *Client) Send(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	req.Stream = false
	var out *ChatResponse
	err := c.withRetry(ctx, func() error {
		resp, err := c.post(ctx, c.httpClient, "/api/v1/chat", req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return c.errorFromResponse(resp)
		}

		var decoded ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
		out = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withRetry runs attempt up to 1+maxRetries times, retrying only failures
// whose classification is transient; the last error surfaces once the
// budget is exhausted.
func (c *Client) withRetry(ctx context.Context, attempt func() error) error {
	var lastErr error
	for k := 0; k <= c.maxRetries; k++ {
		if k > 0 {
			delay := c.initialDelay * (1 << uint(k-1))
			if c.onRetry != nil {
				c.onRetry(k, lastErr, delay)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		if llm.Classify(err) != llm.KindTransient {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("client: retries exhausted: %w", lastErr)
}

func (c *Client) acquire(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Acquire(ctx)
}

func (c *Client) release() {
	if c.limiter != nil {
		c.limiter.Release()
	}
}

func (c *Client) post(ctx context.Context, hc *http.Client, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("client: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.clientID != "" {
		req.Header.Set(headerClientID, c.clientID)
	}

	resp, err := hc.Do(req)
	if err != nil {
		// Network-level failure: retryable.
		return nil, &llm.ProviderError{Provider: "client", Kind: llm.KindTransient, Message: "request failed", Err: err}
	}
	return resp, nil
}

// errorFromResponse maps a non-200 response to a classified ProviderError
// so the retry policy can match on kind.
func (c *Client) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	message := strings.TrimSpace(string(raw))
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		message = body.Message
	}

	var kind llm.ErrorKind
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		// Admission rejection: surfaced immediately, never retried here,
		// and distinguishable from a provider-side quota failure.
		kind = llm.KindRateLimited
	case resp.StatusCode >= 500:
		kind = llm.KindTransient
	default:
		kind = llm.KindFatal
	}

	return &llm.ProviderError{
		Provider: "client",
		Kind:     kind,
		Status:   resp.StatusCode,
		Message:  message,
	}
}
