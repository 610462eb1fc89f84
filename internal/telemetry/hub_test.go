package telemetry

import (
	"testing"
	"time"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	t.Parallel()
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(Event{Kind: KindDetectionHit, Message: "hit"})

	select {
	case ev := <-ch:
		if ev.Kind != KindDetectionHit || ev.Message != "hit" {
			t.Fatalf("event = %+v", ev)
		}
		if ev.At.IsZero() {
			t.Fatal("publish must stamp the event time")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	t.Parallel()
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	// Nobody drains the channel. Overfilling the buffer must drop events
	// instead of stalling.
	for i := 0; i < 200; i++ {
		h.Publish(Event{Kind: KindListingSeen, Message: "listing"})
	}
	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered = %d, want full buffer %d", got, cap(ch))
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	// A second cancel is a no-op rather than a double close.
	cancel()

	if _, open := <-ch; open {
		t.Fatal("channel must be closed after unsubscribe")
	}
	// Publishing after unsubscribe must not panic on the closed channel.
	h.Publish(Event{Kind: KindPatrolDone, Message: "done"})
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	t.Parallel()
	h := NewHub()
	h.Publish(Event{Kind: KindReportFiled, Message: "no listeners"})
}
