package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// WebChannel drives the mobile-web surface of a marketplace through a
// headless browser, standing in for a handset when no physical device is
// attached. It implements the same Channel contract as the adb channel, so
// the workflow above it cannot tell the two apart.
type WebChannel struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	log      *zap.Logger
}

// mobileViewport approximates a mid-range handset.
var mobileViewport = &proto.EmulationSetDeviceMetricsOverride{
	Width:  393,
	Height: 851,
	Mobile: true,
}

// NewWebChannel launches a headless browser and opens startURL.
func NewWebChannel(startURL string, log *zap.Logger) (*WebChannel, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := launcher.New().Headless(true).Logger(io.Discard)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: startURL})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(mobileViewport); err != nil {
		browser.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	return &WebChannel{
		browser:  browser,
		page:     page,
		launcher: l,
		log:      log.Named("webview"),
	}, nil
}

// Close shuts down the page, browser and launcher.
func (c *WebChannel) Close() {
	c.page.Close()
	c.browser.Close()
	c.launcher.Cleanup()
}

func (c *WebChannel) Tap(ctx context.Context, p Point) error {
	pt := c.page.Context(ctx)
	if err := pt.Mouse.MoveTo(proto.Point{X: float64(p.X), Y: float64(p.Y)}); err != nil {
		return fmt.Errorf("move: %w", err)
	}
	if err := pt.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (c *WebChannel) Swipe(ctx context.Context, from, to Point, dur time.Duration) error {
	pt := c.page.Context(ctx)
	if err := pt.Mouse.MoveTo(proto.Point{X: float64(from.X), Y: float64(from.Y)}); err != nil {
		return err
	}
	if err := pt.Mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	if err := pt.Mouse.MoveTo(proto.Point{X: float64(to.X), Y: float64(to.Y)}); err != nil {
		return err
	}
	return pt.Mouse.Up(proto.InputMouseButtonLeft, 1)
}

// elementDumpJS collects visible elements with their geometry and
// interactivity flags, serialized as JSON. Keeping the page-side logic in one
// script means all locating happens on typed values here, never on raw HTML.
const elementDumpJS = `() => {
	const out = [];
	const clickableTags = new Set(['A', 'BUTTON', 'INPUT', 'SELECT', 'LABEL', 'SUMMARY']);
	const editableTags = new Set(['INPUT', 'TEXTAREA']);
	for (const el of document.querySelectorAll('*')) {
		const r = el.getBoundingClientRect();
		if (r.width <= 0 || r.height <= 0) continue;
		let text = '';
		for (const child of el.childNodes) {
			if (child.nodeType === Node.TEXT_NODE) text += child.textContent;
		}
		text = text.trim().slice(0, 200);
		const clickable = clickableTags.has(el.tagName) ||
			typeof el.onclick === 'function' ||
			el.getAttribute('role') === 'button';
		const editable = editableTags.has(el.tagName) || el.isContentEditable;
		const focusable = editable || clickable || el.tabIndex >= 0;
		if (!text && !clickable && !editable) continue;
		out.push({
			class: el.tagName.toLowerCase(),
			text: text,
			bounds: {
				left: Math.round(r.left),
				top: Math.round(r.top),
				right: Math.round(r.right),
				bottom: Math.round(r.bottom),
			},
			clickable: clickable,
			focusable: focusable,
			editable: editable,
		});
		if (out.length >= 800) break;
	}
	return JSON.stringify(out);
}`

func (c *WebChannel) Snapshot(ctx context.Context) (*Snapshot, error) {
	result, err := c.page.Context(ctx).Eval(elementDumpJS)
	if err != nil {
		return nil, fmt.Errorf("dump elements: %w", err)
	}

	var elements []Element
	if err := json.Unmarshal([]byte(result.Value.Str()), &elements); err != nil {
		return nil, fmt.Errorf("decode element dump: %w", err)
	}
	c.log.Debug("snapshot", zap.Int("elements", len(elements)))
	return &Snapshot{CapturedAt: time.Now(), Elements: elements}, nil
}

func (c *WebChannel) Screenshot(ctx context.Context) ([]byte, error) {
	return c.page.Context(ctx).Screenshot(false, nil)
}

func (c *WebChannel) InjectText(ctx context.Context, mech InjectMechanism, text string) error {
	pt := c.page.Context(ctx)
	switch mech {
	case MechanismIME:
		return proto.InputInsertText{Text: text}.Call(pt)
	case MechanismClipboardHelper:
		_, err := pt.Eval(`(t) => navigator.clipboard.writeText(t)`, text)
		if err != nil {
			return err
		}
		_, err = pt.Eval(`() => document.execCommand('paste')`)
		return err
	case MechanismSystemClipboard:
		_, err := pt.Eval(`(t) => document.execCommand('insertText', false, t)`, text)
		return err
	case MechanismKeystrokes:
		for _, r := range text {
			err := proto.InputDispatchKeyEvent{
				Type: proto.InputDispatchKeyEventTypeChar,
				Text: string(r),
			}.Call(pt)
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown inject mechanism %d", mech)
	}
}

func (c *WebChannel) Back(ctx context.Context) error {
	return c.page.Context(ctx).NavigateBack()
}

func (c *WebChannel) Launch(ctx context.Context, target string) error {
	pt := c.page.Context(ctx)
	if err := pt.Navigate(target); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	timed := pt.Timeout(15 * time.Second)
	if err := timed.WaitStable(time.Second); err == nil {
		_ = timed.WaitDOMStable(2*time.Second, 0.1)
	}
	return nil
}
