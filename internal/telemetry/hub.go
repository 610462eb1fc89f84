package telemetry

import (
	"sync"
	"time"
)

// Event is a single patrol occurrence pushed to live subscribers.
type Event struct {
	Kind     string    `json:"kind"`
	Platform string    `json:"platform,omitempty"`
	Message  string    `json:"message"`
	ReportID string    `json:"report_id,omitempty"`
	At       time.Time `json:"at"`
}

// Event kinds published by the patrol session.
const (
	KindListingSeen  = "listing_seen"
	KindDetectionHit = "detection_hit"
	KindReportFiled  = "report_filed"
	KindReportFailed = "report_failed"
	KindPatrolDone   = "patrol_done"
)

// Hub fans events out to subscribers. Publishing never blocks: a
// subscriber that falls behind loses events rather than stalling the
// patrol loop.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber with room in its buffer.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
