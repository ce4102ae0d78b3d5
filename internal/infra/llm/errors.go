package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrorKind classifies a provider failure. The fallback layer reacts only
// to KindQuotaExceeded; the client transport retries only KindTransient.
type ErrorKind string

const (
	// KindQuotaExceeded means the provider's usage allowance is exhausted
	// (e.g. DeepSeek "Insufficient Balance", Gemini RESOURCE_EXHAUSTED).
	KindQuotaExceeded ErrorKind = "quota_exceeded"

	// KindRateLimited means the request was throttled (HTTP 429).
	KindRateLimited ErrorKind = "rate_limited"

	// KindTransient means a network failure or 5xx that may succeed on retry.
	KindTransient ErrorKind = "transient"

	// KindFatal is everything else; retrying or switching providers does
	// not help a malformed request.
	KindFatal ErrorKind = "fatal"
)

// ProviderError is the structured error adapters attach at the boundary
// where the raw backend error is first caught. Carrying the kind as a
// typed field keeps classification a typed match; substring inspection in
// Classify is only the fallback for unstructured upstream errors.
type ProviderError struct {
	Provider string    // adapter name, e.g. "deepseek"
	Kind     ErrorKind // boundary classification
	Status   int       // HTTP status, 0 for network-level failures
	Message  string
	Err      error // underlying cause, may be nil
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: [%s] HTTP %d: %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// quotaMarkers are message substrings that identify capacity exhaustion in
// unstructured errors. "Insufficient Balance" is DeepSeek's 402 wording.
var quotaMarkers = []string{
	"quota",
	"rate limit",
	"429",
	"too many requests",
	"insufficient balance",
	"resource_exhausted",
}

// Classify derives an ErrorKind from any error. Pure function, no state.
// Priority order:
//  1. a ProviderError carries its kind explicitly
//  2. quota/rate-limit message markers
//  3. context/network failures are transient
//  4. everything else is fatal
func Classify(err error) ErrorKind {
	if err == nil {
		return KindFatal
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if classifyMessage(err.Error()) == KindQuotaExceeded {
		return KindQuotaExceeded
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindTransient
	}

	// Text matching is the fallback for errors that lost their type on the
	// way here. No bare "eof" marker: it matches unrelated messages (a
	// field literally named eof); typed EOFs are caught above.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "no such host", "timeout", "timed out", "broken pipe", "unexpected eof"} {
		if strings.Contains(msg, marker) {
			return KindTransient
		}
	}

	return KindFatal
}

// ClassifyMessage classifies a bare message string, for errors that arrive
// inside a stream as an error chunk rather than a Go error.
func ClassifyMessage(message string) ErrorKind {
	return classifyMessage(message)
}

func classifyMessage(message string) ErrorKind {
	msg := strings.ToLower(message)
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return KindQuotaExceeded
		}
	}
	return KindFatal
}

// kindFromStatus maps an HTTP status to an ErrorKind. Adapters refine this
// with provider-specific codes (e.g. 402 => quota for DeepSeek) before
// falling back to the generic mapping.
func kindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}
