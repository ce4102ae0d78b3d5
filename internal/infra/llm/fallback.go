package llm

import (
	"context"
	"sync"
)

// SelectedProvider records which adapter serviced a call. Observability
// only: it never feeds back into routing, every call re-attempts the
// primary first.
type SelectedProvider string

const (
	SelectedPrimary   SelectedProvider = "primary"
	SelectedSecondary SelectedProvider = "secondary"
)

// FallbackProvider composes a primary and a secondary Provider. When the
// primary fails with a quota-classified error — raised before the stream
// starts, or arriving mid-stream as an error chunk — the secondary's
// output is spliced in so the caller sees one uninterrupted stream with a
// single terminal chunk. Any other failure propagates as the call's own
// error; switching providers does not help a malformed request.
type FallbackProvider struct {
	primary   Provider
	secondary Provider

	mu         sync.Mutex
	lastServed SelectedProvider
}

// NewFallbackProvider wires a primary/secondary pair. No chain beyond the
// secondary: its failure is terminal.
func NewFallbackProvider(primary, secondary Provider) *FallbackProvider {
	return &FallbackProvider{primary: primary, secondary: secondary}
}

// LastServed reports which adapter serviced the most recently completed
// call. For streams the value is set before the terminal chunk is
// delivered, so a consumer reading it on terminal receipt sees the
// selection for that stream. Read-only monitoring value.
func (f *FallbackProvider) LastServed() SelectedProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastServed
}

func (f *FallbackProvider) record(sel SelectedProvider) {
	f.mu.Lock()
	f.lastServed = sel
	f.mu.Unlock()
}

// Generate tries the primary and falls back to the secondary only on a
// quota-classified failure.
func (f *FallbackProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	text, err := f.primary.Generate(ctx, req)
	if err == nil {
		f.record(SelectedPrimary)
		return text, nil
	}
	if Classify(err) != KindQuotaExceeded {
		return "", err
	}

	text, err = f.secondary.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	f.record(SelectedSecondary)
	return text, nil
}

// Rank mirrors Generate's fallback behavior for the ranking call.
func (f *FallbackProvider) Rank(ctx context.Context, prompt string) (string, error) {
	text, err := f.primary.Rank(ctx, prompt)
	if err == nil {
		f.record(SelectedPrimary)
		return text, nil
	}
	if Classify(err) != KindQuotaExceeded {
		return "", err
	}

	text, err = f.secondary.Rank(ctx, prompt)
	if err != nil {
		return "", err
	}
	f.record(SelectedSecondary)
	return text, nil
}

// GenerateStream streams from the primary, splicing in the secondary when
// quota exhaustion surfaces. The splice is sequential: the primary's
// stream is abandoned before the secondary's is opened, so chunk order is
// preserved and exactly one terminal chunk reaches the caller.
func (f *FallbackProvider) GenerateStream(ctx context.Context, req GenerateRequest) (<-chan StreamChunk, error) {
	primaryStream, err := f.primary.GenerateStream(ctx, req)
	if err != nil {
		if Classify(err) != KindQuotaExceeded {
			return nil, err
		}
		// Primary refused before yielding anything: identical behavior,
		// just without a spliced content prefix.
		secondaryStream, serr := f.secondary.GenerateStream(ctx, req)
		if serr != nil {
			return nil, serr
		}
		out := make(chan StreamChunk, streamBuffer)
		go f.relay(ctx, secondaryStream, out, SelectedSecondary)
		return out, nil
	}

	out := make(chan StreamChunk, streamBuffer)
	go f.pump(ctx, req, primaryStream, out)
	return out, nil
}

// pump forwards the primary stream and performs the mid-stream splice when
// an in-stream error chunk classifies as quota exhaustion.
func (f *FallbackProvider) pump(ctx context.Context, req GenerateRequest, primary <-chan StreamChunk, out chan<- StreamChunk) {
	defer close(out)

	for chunk := range primary {
		if chunk.Type == ChunkError && ClassifyMessage(chunk.Error) == KindQuotaExceeded {
			// Abandon the primary sequence and continue from the secondary
			// as if it were one logical stream.
			f.splice(ctx, req, out)
			return
		}
		// Record before the terminal chunk is delivered: consumers read
		// LastServed the moment they see the terminal.
		if chunk.IsTerminal() {
			f.record(SelectedPrimary)
		}
		if !sendChunk(ctx, out, chunk) {
			return
		}
		if chunk.IsTerminal() {
			return
		}
	}

	// Producer closed without a terminal chunk; keep the caller's
	// terminal-uniqueness invariant intact.
	f.record(SelectedPrimary)
	sendChunk(ctx, out, StreamChunk{Type: ChunkDone})
}

func (f *FallbackProvider) splice(ctx context.Context, req GenerateRequest, out chan<- StreamChunk) {
	secondary, err := f.secondary.GenerateStream(ctx, req)
	if err != nil {
		f.record(SelectedSecondary)
		sendChunk(ctx, out, StreamChunk{Type: ChunkError, Error: err.Error()})
		return
	}
	f.forward(ctx, secondary, out, SelectedSecondary)
}

func (f *FallbackProvider) relay(ctx context.Context, in <-chan StreamChunk, out chan<- StreamChunk, sel SelectedProvider) {
	defer close(out)
	f.forward(ctx, in, out, sel)
}

func (f *FallbackProvider) forward(ctx context.Context, in <-chan StreamChunk, out chan<- StreamChunk, sel SelectedProvider) {
	for chunk := range in {
		if chunk.IsTerminal() {
			f.record(sel)
		}
		if !sendChunk(ctx, out, chunk) {
			return
		}
		if chunk.IsTerminal() {
			return
		}
	}
	f.record(sel)
	sendChunk(ctx, out, StreamChunk{Type: ChunkDone})
}

// ModelInfo reports the composed identity; the active model is the
// primary's since every call re-attempts it first.
func (f *FallbackProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: f.primary.ModelInfo().ID, Provider: "fallback"}
}

// HealthCheck passes when either adapter is reachable.
func (f *FallbackProvider) HealthCheck(ctx context.Context) error {
	if err := f.primary.HealthCheck(ctx); err == nil {
		return nil
	}
	return f.secondary.HealthCheck(ctx)
}

func sendChunk(ctx context.Context, out chan<- StreamChunk, c StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
