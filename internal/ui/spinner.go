// Package ui renders patrol progress on stderr. Messages arrive from the
// progress callback and the telemetry event stream, often carrying full
// listing titles, so rendering caps them to keep the line from wrapping.
package ui

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// maxLineRunes caps the rendered message so long listing titles never wrap
// and smear stale frames across multiple lines.
const maxLineRunes = 100

// Spinner shows the current patrol activity on stderr.
type Spinner struct {
	mu   sync.Mutex
	msg  string
	done chan struct{}
}

// NewSpinner creates a stopped spinner.
func NewSpinner() *Spinner {
	return &Spinner{}
}

// Start begins animating with the given message. Starting an already running
// spinner only replaces the message.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	s.msg = msg
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run()
}

// Update replaces the message while the spinner is running.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. Safe to call when stopped.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	fmt.Fprintf(os.Stderr, "\r\033[K")
}

func (s *Spinner) run() {
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	i := 0
	for {
		select {
		case <-s.done:
			return
		case <-tick.C:
			s.mu.Lock()
			msg := s.msg
			s.mu.Unlock()
			fmt.Fprintf(os.Stderr, "\r\033[K%c %s", frames[i%len(frames)], clipLine(msg))
			i++
		}
	}
}

// clipLine bounds a message to maxLineRunes, marking the cut with an ellipsis.
func clipLine(msg string) string {
	r := []rune(msg)
	if len(r) <= maxLineRunes {
		return msg
	}
	return string(r[:maxLineRunes-1]) + "…"
}
