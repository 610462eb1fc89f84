package device

import (
	"context"
	"strings"
	"time"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a bounding rectangle in screen pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Area returns the rectangle area, never negative.
func (r Rect) Area() int {
	w, h := r.Width(), r.Height()
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Element is one addressable region of the live screen. Elements are
// ephemeral: they are recomputed from every fresh snapshot and must never be
// cached across workflow steps.
type Element struct {
	Class     string `json:"class"`
	Text      string `json:"text"`
	Bounds    Rect   `json:"bounds"`
	Clickable bool   `json:"clickable"`
	Focusable bool   `json:"focusable"`
	Editable  bool   `json:"editable"`
}

// Center returns the tap point for the element.
func (e Element) Center() Point { return e.Bounds.Center() }

// Area returns the element's bounding-box area.
func (e Element) Area() int { return e.Bounds.Area() }

// Snapshot is a flattened capture of the UI tree at one instant.
type Snapshot struct {
	CapturedAt time.Time
	Elements   []Element
}

// ContainsText reports whether any element's visible text contains s.
func (s *Snapshot) ContainsText(text string) bool {
	if s == nil {
		return false
	}
	for _, el := range s.Elements {
		if strings.Contains(el.Text, text) {
			return true
		}
	}
	return false
}

// InjectMechanism selects how InjectText delivers characters to the focused
// field. Mechanisms are ordered by increasing cost and reliability.
type InjectMechanism int

const (
	// MechanismIME broadcasts the text to a cooperating keyboard service.
	MechanismIME InjectMechanism = iota
	// MechanismClipboardHelper sets the clipboard through a helper app and
	// pastes.
	MechanismClipboardHelper
	// MechanismSystemClipboard sets the clipboard through the system content
	// service and pastes.
	MechanismSystemClipboard
	// MechanismKeystrokes injects literal key events; ASCII only.
	MechanismKeystrokes
)

func (m InjectMechanism) String() string {
	switch m {
	case MechanismIME:
		return "ime"
	case MechanismClipboardHelper:
		return "clipboard-helper"
	case MechanismSystemClipboard:
		return "system-clipboard"
	case MechanismKeystrokes:
		return "keystrokes"
	default:
		return "unknown"
	}
}

// Channel is the device-control boundary: one screen, one focus, exclusively
// owned by the running patrol session. Every primitive may be slow or
// silently ineffective, so callers must verify effects through fresh
// snapshots rather than trust return values.
type Channel interface {
	Tap(ctx context.Context, p Point) error
	Swipe(ctx context.Context, from, to Point, dur time.Duration) error
	Snapshot(ctx context.Context) (*Snapshot, error)
	Screenshot(ctx context.Context) ([]byte, error)
	InjectText(ctx context.Context, mech InjectMechanism, text string) error
	Back(ctx context.Context) error
	Launch(ctx context.Context, target string) error
}
