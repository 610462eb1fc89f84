// Package inject gets literal text into a focused input field through a
// waterfall of increasingly reliable mechanisms, verifying each attempt
// against a fresh UI snapshot.
package inject

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"brandpatrol/internal/device"
)

// verifyPrefixLen is how many leading characters of the injected text
// (whitespace stripped) must show up somewhere in the UI tree before an
// attempt counts as verified.
const verifyPrefixLen = 10

// tiers is the fixed mechanism order, cheapest first.
var tiers = []device.InjectMechanism{
	device.MechanismIME,
	device.MechanismClipboardHelper,
	device.MechanismSystemClipboard,
	device.MechanismKeystrokes,
}

// Result describes one waterfall run.
type Result struct {
	OK             bool
	Mechanism      device.InjectMechanism
	TiersAttempted int
}

// Waterfall injects text through the device channel, one mechanism at a
// time, until a verification snapshot shows the text landed.
type Waterfall struct {
	ch  device.Channel
	log *zap.Logger
}

// New creates a waterfall over the given channel.
func New(ch device.Channel, log *zap.Logger) *Waterfall {
	if log == nil {
		log = zap.NewNop()
	}
	return &Waterfall{ch: ch, log: log.Named("inject")}
}

// InjectVerified tries each mechanism in order and stops at the first whose
// effect is visible in a fresh snapshot. Exhausting every tier is a reported
// failure, not an error: the text may not have been entered and the caller
// decides whether to continue. The returned error is non-nil only when ctx
// is cancelled.
func (w *Waterfall) InjectVerified(ctx context.Context, text string) (Result, error) {
	res := Result{}
	ascii := isASCII(text)

	for _, mech := range tiers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if mech == device.MechanismKeystrokes && !ascii {
			// Keystroke injection mangles anything outside ASCII.
			continue
		}

		res.TiersAttempted++
		if err := w.ch.InjectText(ctx, mech, text); err != nil {
			w.log.Debug("mechanism failed", zap.Stringer("mechanism", mech), zap.Error(err))
			continue
		}
		if w.verify(ctx, text) {
			res.OK = true
			res.Mechanism = mech
			w.log.Debug("text verified", zap.Stringer("mechanism", mech))
			return res, nil
		}
		w.log.Debug("verification missed", zap.Stringer("mechanism", mech))
	}

	return res, nil
}

// verify re-snapshots the UI and looks for a prefix of the injected text
// anywhere in the tree. A snapshot failure counts as unverified.
func (w *Waterfall) verify(ctx context.Context, text string) bool {
	prefix := verifyPrefix(text)
	if prefix == "" {
		return false
	}
	snap, err := w.ch.Snapshot(ctx)
	if err != nil {
		return false
	}
	return snap.ContainsText(prefix)
}

func verifyPrefix(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	runes := []rune(stripped)
	if len(runes) > verifyPrefixLen {
		runes = runes[:verifyPrefixLen]
	}
	return string(runes)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
