// Package assistant binds the provider pipeline into the document-QA
// service: it forwards a finished prompt to the (possibly fallback-
// composed) provider, decorates the terminal chunk with page references
// extracted from the answer, and publishes a usage event per call.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/audit"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/eventbus"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/llm"
)

// servedReporter is implemented by llm.FallbackProvider; plain adapters
// do not report a selection.
type servedReporter interface {
	LastServed() llm.SelectedProvider
}

// Service answers questions about the document the caller is reading.
type Service struct {
	provider llm.Provider
	bus      eventbus.EventBus // nil disables usage events
}

// ChatInput is one generation request. Message and PageContext are
// required; History is the caller-supplied conversation so far.
type ChatInput struct {
	Message     string
	PageContext string
	History     []llm.Message
	ClientID    string
	RequestID   string
}

// Answer is the buffered (non-streaming) result, semantically equivalent
// to concatenating a stream's content chunks and carrying forward the
// terminal chunk's references.
type Answer struct {
	Response       string
	PageReferences []int
}

// NewService creates the assistant service over provider. bus may be nil.
func NewService(provider llm.Provider, bus eventbus.EventBus) *Service {
	return &Service{provider: provider, bus: bus}
}

// Chat streams an answer. Content chunks pass through unchanged; the
// terminal done chunk carries the page references extracted from the
// accumulated answer text.
func (s *Service) Chat(ctx context.Context, in ChatInput) (<-chan llm.StreamChunk, error) {
	start := time.Now()
	stream, err := s.provider.GenerateStream(ctx, llm.GenerateRequest{
		Prompt:  promptFromInput(in),
		History: in.History,
	})
	if err != nil {
		s.publishUsage(in, "chat", true, audit.OutcomeError, start)
		return nil, err
	}

	out := make(chan llm.StreamChunk, 1)
	go func() {
		defer close(out)

		var answer strings.Builder
		for chunk := range stream {
			switch chunk.Type {
			case llm.ChunkContent:
				answer.WriteString(chunk.Delta)
			case llm.ChunkDone:
				chunk.Pages = ExtractPageReferences(answer.String())
			}

			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}

			if chunk.IsTerminal() {
				outcome := audit.OutcomeSuccess
				if chunk.Type == llm.ChunkError {
					outcome = audit.OutcomeError
				}
				s.publishUsage(in, "chat", true, outcome, start)
				return
			}
		}
	}()
	return out, nil
}

// Answer performs a buffered generation.
func (s *Service) Answer(ctx context.Context, in ChatInput) (*Answer, error) {
	start := time.Now()
	text, err := s.provider.Generate(ctx, llm.GenerateRequest{
		Prompt:  promptFromInput(in),
		History: in.History,
	})
	if err != nil {
		s.publishUsage(in, "chat", false, audit.OutcomeError, start)
		return nil, err
	}

	s.publishUsage(in, "chat", false, audit.OutcomeSuccess, start)
	return &Answer{
		Response:       text,
		PageReferences: ExtractPageReferences(text),
	}, nil
}

// Rank performs a structured-ranking call over the same provider chain.
func (s *Service) Rank(ctx context.Context, in ChatInput) (string, error) {
	start := time.Now()
	text, err := s.provider.Rank(ctx, promptFromInput(in))
	if err != nil {
		s.publishUsage(in, "rank", false, audit.OutcomeError, start)
		return "", err
	}
	s.publishUsage(in, "rank", false, audit.OutcomeSuccess, start)
	return text, nil
}

// ProviderInfo exposes the active provider metadata for ops endpoints.
func (s *Service) ProviderInfo() llm.ModelMeta {
	return s.provider.ModelInfo()
}

// ProviderHealth reports backend reachability.
func (s *Service) ProviderHealth(ctx context.Context) error {
	return s.provider.HealthCheck(ctx)
}

// promptFromInput joins the page context and the user's question.
// Prompt templating proper lives with the client; this is only the seam
// between the request shape and the provider contract.
func promptFromInput(in ChatInput) string {
	if in.PageContext == "" {
		return in.Message
	}
	return in.PageContext + "\n\n" + in.Message
}

func (s *Service) publishUsage(in ChatInput, operation string, streamed bool, outcome audit.Outcome, start time.Time) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(audit.TopicUsageRecorded, audit.UsageEntry{
		RequestID:  in.RequestID,
		ClientID:   in.ClientID,
		Provider:   s.servedName(),
		Operation:  operation,
		Streamed:   streamed,
		Outcome:    outcome,
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// servedName prefers the fallback layer's primary/secondary selection and
// falls back to the static provider name.
func (s *Service) servedName() string {
	if r, ok := s.provider.(servedReporter); ok {
		if sel := r.LastServed(); sel != "" {
			return string(sel)
		}
	}
	return s.provider.ModelInfo().Provider
}
