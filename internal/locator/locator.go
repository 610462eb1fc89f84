// Package locator turns raw UI snapshots into ranked, addressable elements.
//
// The live UI is unreliable: exact labels vary by app version and locale, so
// text matching is backed by role and position heuristics. All pattern
// matching against the screen lives here and nowhere else.
package locator

import (
	"sort"
	"strings"

	"brandpatrol/internal/device"
)

// Role names an element capability a descriptor can ask for.
type Role string

const (
	// RoleEditable matches text-entry fields.
	RoleEditable Role = "editable"
	// RoleClickable matches anything tappable.
	RoleClickable Role = "clickable"
)

// Descriptor identifies a target on screen, either by a literal text
// fragment or by a role. Descriptors are tried in the order given.
type Descriptor struct {
	Text string
	Role Role
}

// Label returns a short human-readable form for failure messages.
func (d Descriptor) Label() string {
	if d.Text != "" {
		return "text:" + d.Text
	}
	return "role:" + string(d.Role)
}

// Locate ranks candidate elements for the given descriptors against a
// snapshot.
//
// Tier 1: exact-substring text match, honoring descriptor priority; the
// first descriptor with at least one hit wins. Tier 2: if any descriptor
// asks for an editable role, all editable elements ranked by area descending
// (the largest is most likely the primary input). Tier 3: elements both
// clickable and focusable inside roi, ranked by area. A nil roi means the
// whole screen.
func Locate(snap *device.Snapshot, descriptors []Descriptor, roi *device.Rect) []device.Element {
	if snap == nil || len(snap.Elements) == 0 {
		return nil
	}

	for _, d := range descriptors {
		if d.Text == "" {
			continue
		}
		var hits []device.Element
		for _, el := range snap.Elements {
			if el.Text != "" && strings.Contains(el.Text, d.Text) {
				hits = append(hits, el)
			}
		}
		if len(hits) > 0 {
			return hits
		}
	}

	if wantsRole(descriptors, RoleEditable) {
		var editable []device.Element
		for _, el := range snap.Elements {
			if el.Editable {
				editable = append(editable, el)
			}
		}
		if len(editable) > 0 {
			sortByAreaDesc(editable)
			return editable
		}
	}

	var interactive []device.Element
	for _, el := range snap.Elements {
		if !el.Clickable || !el.Focusable {
			continue
		}
		if roi != nil && !roi.Contains(el.Center()) {
			continue
		}
		interactive = append(interactive, el)
	}
	sortByAreaDesc(interactive)
	return interactive
}

// First returns the best-ranked match, if any.
func First(snap *device.Snapshot, descriptors []Descriptor, roi *device.Rect) (device.Element, bool) {
	matches := Locate(snap, descriptors, roi)
	if len(matches) == 0 {
		return device.Element{}, false
	}
	return matches[0], true
}

func wantsRole(descriptors []Descriptor, role Role) bool {
	for _, d := range descriptors {
		if d.Role == role {
			return true
		}
	}
	return false
}

func sortByAreaDesc(elements []device.Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Area() > elements[j].Area()
	})
}
