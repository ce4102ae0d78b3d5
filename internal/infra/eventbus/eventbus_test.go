package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe("usage.recorded")

	bus.Publish("usage.recorded", "payload-1")

	select {
	case evt := <-ch:
		if evt.Topic != "usage.recorded" || evt.Payload != "payload-1" {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := New()
	// Must not panic or block.
	bus.Publish("nobody.listens", 42)
}

func TestMultipleSubscribers(t *testing.T) {
	bus := New()
	a := bus.Subscribe("t")
	b := bus.Subscribe("t")

	bus.Publish("t", "x")

	for i, ch := range []<-chan Event{a, b} {
		select {
		case evt := <-ch:
			if evt.Payload != "x" {
				t.Errorf("subscriber %d got %+v", i, evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d got nothing", i)
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	bus := New()
	ch := bus.Subscribe("t")

	// Fill the buffer without consuming, then overflow: Publish must not block.
	for i := 0; i < defaultBufferSize+10; i++ {
		bus.Publish("t", i)
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received != defaultBufferSize {
				t.Errorf("received = %d, want %d", received, defaultBufferSize)
			}
			return
		}
	}
}

func TestTopicIsolation(t *testing.T) {
	bus := New()
	other := bus.Subscribe("other")

	bus.Publish("t", "x")

	select {
	case evt := <-other:
		t.Errorf("unexpected cross-topic delivery: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}
