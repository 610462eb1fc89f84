package inject

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandpatrol/internal/device"
)

// fakeChannel scripts InjectText outcomes per mechanism and serves a canned
// snapshot for verification.
type fakeChannel struct {
	injectErr map[device.InjectMechanism]error
	// landed is the set of mechanisms whose injection becomes visible in
	// the next snapshot.
	landed   map[device.InjectMechanism]bool
	lastText string
	visible  string
	calls    []device.InjectMechanism
}

func (f *fakeChannel) Tap(context.Context, device.Point) error { return nil }
func (f *fakeChannel) Swipe(context.Context, device.Point, device.Point, time.Duration) error {
	return nil
}
func (f *fakeChannel) Screenshot(context.Context) ([]byte, error) { return nil, nil }
func (f *fakeChannel) Back(context.Context) error                 { return nil }
func (f *fakeChannel) Launch(context.Context, string) error       { return nil }

func (f *fakeChannel) InjectText(ctx context.Context, mech device.InjectMechanism, text string) error {
	f.calls = append(f.calls, mech)
	if err := f.injectErr[mech]; err != nil {
		return err
	}
	f.lastText = text
	if f.landed[mech] {
		f.visible = text
	}
	return nil
}

func (f *fakeChannel) Snapshot(context.Context) (*device.Snapshot, error) {
	return &device.Snapshot{Elements: []device.Element{{Text: f.visible}}}, nil
}

func TestInjectVerifiedFirstTierWins(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{landed: map[device.InjectMechanism]bool{device.MechanismIME: true}}
	w := New(ch, nil)

	res, err := w.InjectVerified(context.Background(), "盗版举报描述文本内容测试")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !res.OK || res.Mechanism != device.MechanismIME || res.TiersAttempted != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestInjectVerifiedFallsThroughToThirdTier(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{
		injectErr: map[device.InjectMechanism]error{
			device.MechanismIME: errors.New("broadcast rejected"),
		},
		// Tier 2 reports success but its effect never shows on screen;
		// only tier 3 lands.
		landed: map[device.InjectMechanism]bool{device.MechanismSystemClipboard: true},
	}
	w := New(ch, nil)

	res, err := w.InjectVerified(context.Background(), "盗版举报描述文本内容测试")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !res.OK || res.Mechanism != device.MechanismSystemClipboard {
		t.Fatalf("res = %+v", res)
	}
	if res.TiersAttempted != 3 {
		t.Fatalf("tiers attempted = %d, want 3", res.TiersAttempted)
	}
}

func TestInjectVerifiedSkipsKeystrokesForNonASCII(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{} // nothing ever lands
	w := New(ch, nil)

	res, err := w.InjectVerified(context.Background(), "盗版举报")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res.OK {
		t.Fatal("nothing landed, result must not be OK")
	}
	if res.TiersAttempted != 3 {
		t.Fatalf("tiers attempted = %d, want 3 (keystrokes skipped)", res.TiersAttempted)
	}
	for _, mech := range ch.calls {
		if mech == device.MechanismKeystrokes {
			t.Fatal("keystroke injection must be skipped for non-ASCII text")
		}
	}
}

func TestInjectVerifiedExhaustionIsNotAnError(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{}
	w := New(ch, nil)

	res, err := w.InjectVerified(context.Background(), "ascii report text")
	if err != nil {
		t.Fatalf("exhaustion must not be an error, got %v", err)
	}
	if res.OK {
		t.Fatalf("res = %+v", res)
	}
	if res.TiersAttempted != 4 {
		t.Fatalf("tiers attempted = %d, want all 4 for ascii", res.TiersAttempted)
	}
}

func TestInjectVerifiedCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(&fakeChannel{}, nil)
	if _, err := w.InjectVerified(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestVerifyPrefix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "abc", "abc"},
		{"whitespace stripped", "a b\tc\nd", "abcd"},
		{"capped at ten runes", "一二三四五六七八九十十一十二", "一二三四五六七八九十"},
		{"only whitespace", " \n\t", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := verifyPrefix(tt.in); got != tt.want {
				t.Fatalf("verifyPrefix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
