package audit

import "time"

// TopicUsageRecorded is the eventbus topic carrying UsageEntry payloads.
const TopicUsageRecorded = "usage.recorded"

// Outcome of a recorded call.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// UsageEntry is one append-only usage-log row: which provider serviced a
// call, for whom, and how it went. Operational logging only — no message
// content is stored.
type UsageEntry struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	ClientID   string    `json:"clientId"`
	Provider   string    `json:"provider"` // "primary" | "secondary" | adapter name
	Operation  string    `json:"operation"`
	Streamed   bool      `json:"streamed"`
	Outcome    Outcome   `json:"outcome"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}
