package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"brandpatrol/internal/device"
	"brandpatrol/internal/inject"
	"brandpatrol/internal/locator"
)

// Action is what a step does once its target is located.
type Action int

const (
	// ActionTap taps the located element's center.
	ActionTap Action = iota
	// ActionInject types the step's text through the injection waterfall.
	ActionInject
	// ActionSwipe performs the step's swipe gesture; no target is needed.
	ActionSwipe
	// ActionBack presses the platform back control; no target is needed.
	ActionBack
)

// Step is one named, ordered unit of a reporting flow: candidate target
// descriptors in priority order, the action to perform, an optional
// post-action verification, and an alternate descriptor set used for bounded
// local recovery.
type Step struct {
	Name    string
	Targets []locator.Descriptor
	Action  Action

	Text               string // for ActionInject
	SwipeFrom, SwipeTo device.Point
	SwipeDur           time.Duration

	ROI    *device.Rect
	Verify func(*device.Snapshot) bool

	// Fallback is tried once, after Targets exhaust. It encodes the step's
	// own local recovery; the state machine never retries a whole workflow.
	Fallback []locator.Descriptor

	// AttemptTimeout bounds a single locate-act-verify attempt. Zero uses
	// the runner default.
	AttemptTimeout time.Duration
}

// StepFailure reports that every descriptor of a step was exhausted. The
// runner deliberately does not distinguish "element not found" from "channel
// error or timeout": both mean the step did not verifiably happen.
type StepFailure struct {
	Step  string
	Tried []string
}

func (f *StepFailure) Error() string {
	return fmt.Sprintf("step %q failed after trying %s", f.Step, strings.Join(f.Tried, ", "))
}

var errNoTarget = errors.New("no matching element")

// Runner executes one step at a time against the device channel.
type Runner struct {
	ch             device.Channel
	waterfall      *inject.Waterfall
	pacer          *device.Pacer
	attemptTimeout time.Duration
	log            *zap.Logger
}

// NewRunner creates a step runner. attemptTimeout bounds each
// locate-act-verify attempt; zero defaults to 20s.
func NewRunner(ch device.Channel, pacer *device.Pacer, attemptTimeout time.Duration, log *zap.Logger) *Runner {
	if attemptTimeout <= 0 {
		attemptTimeout = 20 * time.Second
	}
	if pacer == nil {
		pacer = device.NewPacer(device.PaceNormal)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		ch:             ch,
		waterfall:      inject.New(ch, log),
		pacer:          pacer,
		attemptTimeout: attemptTimeout,
		log:            log.Named("step"),
	}
}

// Run executes a step. Descriptors are tried in priority order; the first
// attempt that acts and verifies wins. When every descriptor exhausts, the
// returned error is a *StepFailure carrying what was tried, never a raw
// channel error.
func (r *Runner) Run(ctx context.Context, step Step) error {
	fail := &StepFailure{Step: step.Name}

	if len(step.Targets) == 0 {
		// Target-less actions (swipe, back) get a single attempt.
		if err := r.attempt(ctx, step, nil); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fail.Tried = append(fail.Tried, "(no target)")
			return fail
		}
		return nil
	}

	for _, desc := range step.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := desc
		if err := r.attempt(ctx, step, &d); err != nil {
			r.log.Debug("attempt failed",
				zap.String("step", step.Name),
				zap.String("descriptor", d.Label()),
				zap.Error(err))
			fail.Tried = append(fail.Tried, d.Label())
			continue
		}
		return nil
	}
	return fail
}

// attempt performs one locate-act-verify cycle under a bounded timeout. A
// timeout is treated as a verification failure, not a hang.
func (r *Runner) attempt(ctx context.Context, step Step, desc *locator.Descriptor) error {
	timeout := step.AttemptTimeout
	if timeout <= 0 {
		timeout = r.attemptTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var target device.Element
	if desc != nil {
		snap, err := r.ch.Snapshot(actx)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		el, ok := locator.First(snap, []locator.Descriptor{*desc}, step.ROI)
		if !ok {
			return errNoTarget
		}
		target = el
	}

	if err := r.act(actx, step, target); err != nil {
		return err
	}
	if err := r.pacer.Settle(actx); err != nil {
		return err
	}

	if step.Verify != nil {
		snap, err := r.ch.Snapshot(actx)
		if err != nil {
			return fmt.Errorf("verify snapshot: %w", err)
		}
		if !step.Verify(snap) {
			return fmt.Errorf("verification failed for %q", step.Name)
		}
	}
	return nil
}

func (r *Runner) act(ctx context.Context, step Step, target device.Element) error {
	switch step.Action {
	case ActionTap:
		return r.ch.Tap(ctx, target.Center())
	case ActionInject:
		if err := r.ch.Tap(ctx, target.Center()); err != nil {
			return fmt.Errorf("focus field: %w", err)
		}
		if err := r.pacer.Settle(ctx); err != nil {
			return err
		}
		res, err := r.waterfall.InjectVerified(ctx, step.Text)
		if err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("text not verified after %d tiers", res.TiersAttempted)
		}
		return nil
	case ActionSwipe:
		return r.ch.Swipe(ctx, step.SwipeFrom, step.SwipeTo, step.SwipeDur)
	case ActionBack:
		return r.ch.Back(ctx)
	default:
		return fmt.Errorf("unknown action %d", step.Action)
	}
}
