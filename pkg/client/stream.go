package client

import (
	"context"
	"net/http"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/pkg/wire"
)

// SendStream performs a streamed chat call. Chunks arrive on the returned
// channel in server order; the channel closes after the first terminal
// chunk (done or error) or once the connection drops. The initial request
// goes through the same retry policy as Send; once the stream is open no
// retries happen, a mid-stream failure surfaces as an error chunk.
func (c *Client) SendStream(ctx context.Context, req ChatRequest) (<-chan wire.StreamChunk, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	req.Stream = true
	var resp *http.Response
	err := c.withRetry(ctx, func() error {
		r, err := c.post(ctx, c.streamClient, "/api/v1/chat", req)
		if err != nil {
			return err
		}
		if r.StatusCode != http.StatusOK {
			defer r.Body.Close()
			return c.errorFromResponse(r)
		}
		resp = r
		return nil
	})
	if err != nil {
		c.release()
		return nil, err
	}

	out := make(chan wire.StreamChunk, 8)
	go c.pumpFrames(ctx, resp, out)
	return out, nil
}

// pumpFrames decodes frames off the response body until a terminal chunk
// or stream end, then releases the limiter permit.
func (c *Client) pumpFrames(ctx context.Context, resp *http.Response, out chan<- wire.StreamChunk) {
	defer close(out)
	defer c.release()
	defer resp.Body.Close() //nolint:errcheck

	scanner := wire.NewScanner(resp.Body)
	for {
		chunk, err := scanner.Next()
		if err != nil {
			// Connection dropped before a terminal frame: report it so
			// the consumer does not wait forever.
			if ctx.Err() == nil {
				select {
				case out <- wire.StreamChunk{Type: wire.ChunkError, Error: "stream interrupted"}:
				case <-ctx.Done():
				}
			}
			return
		}

		select {
		case out <- chunk:
		case <-ctx.Done():
			return
		}
		if chunk.IsTerminal() {
			return
		}
	}
}
