package audit

import (
	"context"
	"log"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/eventbus"
)

// Recorder consumes usage events from the bus and persists them, so the
// request path never blocks on the usage store.
type Recorder struct {
	usage *UsageService
}

// NewRecorder creates a Recorder writing through usage.
func NewRecorder(usage *UsageService) *Recorder {
	return &Recorder{usage: usage}
}

// Start subscribes to TopicUsageRecorded and consumes until ctx is done.
// Run in its own goroutine.
func (r *Recorder) Start(ctx context.Context, bus eventbus.EventBus) {
	events := bus.Subscribe(TopicUsageRecorded)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			entry, ok := evt.Payload.(UsageEntry)
			if !ok {
				continue
			}
			if err := r.usage.Record(ctx, entry); err != nil {
				log.Printf("usage recorder: %v", err)
			}
		}
	}
}
