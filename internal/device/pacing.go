package device

import (
	"context"
	"math/rand/v2"
	"time"
)

// PaceProfile defines a named pacing configuration.
type PaceProfile string

const (
	PaceCautious   PaceProfile = "cautious"
	PaceNormal     PaceProfile = "normal"
	PaceAggressive PaceProfile = "aggressive"
)

// Pacer spaces device actions with randomized jitter so the automation does
// not hammer an app faster than its animations settle.
type Pacer struct {
	MinSettle time.Duration
	MaxSettle time.Duration
}

// NewPacer creates a pacer for the given profile.
func NewPacer(profile PaceProfile) *Pacer {
	switch profile {
	case PaceCautious:
		return &Pacer{MinSettle: 2 * time.Second, MaxSettle: 4 * time.Second}
	case PaceAggressive:
		return &Pacer{MinSettle: 200 * time.Millisecond, MaxSettle: 600 * time.Millisecond}
	default: // normal
		return &Pacer{MinSettle: 800 * time.Millisecond, MaxSettle: 2 * time.Second}
	}
}

// Settle waits for the UI to catch up after an action, or until ctx is done.
func (p *Pacer) Settle(ctx context.Context) error {
	d := p.randomBetween(p.MinSettle, p.MaxSettle)
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BrowsePause returns a longer pause used between listings.
func (p *Pacer) BrowsePause() time.Duration {
	return p.randomBetween(p.MaxSettle, p.MaxSettle*2)
}

func (p *Pacer) randomBetween(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}
