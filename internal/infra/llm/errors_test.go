package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "provider error kind wins",
			err:  &ProviderError{Provider: "deepseek", Kind: KindQuotaExceeded, Status: 402, Message: "Insufficient Balance"},
			want: KindQuotaExceeded,
		},
		{
			name: "wrapped provider error",
			err:  fmt.Errorf("chat: %w", &ProviderError{Provider: "gemini", Kind: KindRateLimited, Status: 429}),
			want: KindRateLimited,
		},
		{
			name: "insufficient balance message",
			err:  errors.New("API error: Insufficient Balance"),
			want: KindQuotaExceeded,
		},
		{
			name: "quota message",
			err:  errors.New("monthly quota exceeded"),
			want: KindQuotaExceeded,
		},
		{
			name: "rate limit message",
			err:  errors.New("rate limit hit, slow down"),
			want: KindQuotaExceeded,
		},
		{
			name: "429 in message",
			err:  errors.New("unexpected status 429"),
			want: KindQuotaExceeded,
		},
		{
			name: "resource exhausted message",
			err:  errors.New("RESOURCE_EXHAUSTED: generate quota"),
			want: KindQuotaExceeded,
		},
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("call: %w", context.DeadlineExceeded),
			want: KindTransient,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:9999: connection refused"),
			want: KindTransient,
		},
		{
			name: "unexpected eof message",
			err:  errors.New("read: unexpected EOF"),
			want: KindTransient,
		},
		{
			name: "typed unexpected eof",
			err:  fmt.Errorf("read body: %w", io.ErrUnexpectedEOF),
			want: KindTransient,
		},
		{
			name: "typed eof",
			err:  fmt.Errorf("stream: %w", io.EOF),
			want: KindTransient,
		},
		{
			name: "eof as a field name is not transient",
			err:  errors.New(`invalid value for field "eof"`),
			want: KindFatal,
		},
		{
			name: "malformed request is fatal",
			err:  errors.New("invalid model name"),
			want: KindFatal,
		},
		{
			name: "nil error",
			err:  nil,
			want: KindFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		message string
		want    ErrorKind
	}{
		{"Insufficient Balance", KindQuotaExceeded},
		{"too many requests", KindQuotaExceeded},
		{"something broke", KindFatal},
		{"", KindFatal},
	}

	for _, tt := range tests {
		if got := ClassifyMessage(tt.message); got != tt.want {
			t.Errorf("ClassifyMessage(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
		{http.StatusBadRequest, KindFatal},
		{http.StatusUnauthorized, KindFatal},
	}

	for _, tt := range tests {
		if got := kindFromStatus(tt.status); got != tt.want {
			t.Errorf("kindFromStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ProviderError{Provider: "deepseek", Kind: KindTransient, Message: "request failed", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
}
