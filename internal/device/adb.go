package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ADBChannel drives a physical or emulated handset over adb. Snapshots come
// from uiautomator dumps parsed into typed elements; no output is ever
// scraped with regular expressions.
type ADBChannel struct {
	serial    string
	opTimeout time.Duration
	log       *zap.Logger
}

// NewADBChannel creates a channel for the device with the given serial. An
// empty serial targets the only connected device.
func NewADBChannel(serial string, opTimeout time.Duration, log *zap.Logger) *ADBChannel {
	if opTimeout <= 0 {
		opTimeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ADBChannel{serial: serial, opTimeout: opTimeout, log: log.Named("adb")}
}

func (c *ADBChannel) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	full := args
	if c.serial != "" {
		full = append([]string{"-s", c.serial}, args...)
	}
	cmd := exec.CommandContext(ctx, "adb", full...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("adb %v: %w (%s)", args, err, bytes.TrimSpace(errBuf.Bytes()))
	}
	return out.Bytes(), nil
}

func (c *ADBChannel) Tap(ctx context.Context, p Point) error {
	_, err := c.run(ctx, "shell", "input", "tap", fmt.Sprint(p.X), fmt.Sprint(p.Y))
	return err
}

func (c *ADBChannel) Swipe(ctx context.Context, from, to Point, dur time.Duration) error {
	if dur <= 0 {
		dur = 300 * time.Millisecond
	}
	_, err := c.run(ctx, "shell", "input", "swipe",
		fmt.Sprint(from.X), fmt.Sprint(from.Y),
		fmt.Sprint(to.X), fmt.Sprint(to.Y),
		fmt.Sprint(dur.Milliseconds()))
	return err
}

func (c *ADBChannel) Snapshot(ctx context.Context) (*Snapshot, error) {
	if _, err := c.run(ctx, "shell", "uiautomator", "dump", "/sdcard/brandpatrol_ui.xml"); err != nil {
		return nil, fmt.Errorf("ui dump: %w", err)
	}
	raw, err := c.run(ctx, "exec-out", "cat", "/sdcard/brandpatrol_ui.xml")
	if err != nil {
		return nil, fmt.Errorf("read ui dump: %w", err)
	}
	snap, err := ParseUIAutomatorXML(raw)
	if err != nil {
		return nil, err
	}
	c.log.Debug("snapshot", zap.Int("elements", len(snap.Elements)))
	return snap, nil
}

func (c *ADBChannel) Screenshot(ctx context.Context) ([]byte, error) {
	return c.run(ctx, "exec-out", "screencap", "-p")
}

func (c *ADBChannel) InjectText(ctx context.Context, mech InjectMechanism, text string) error {
	switch mech {
	case MechanismIME:
		// Cooperating keyboard services accept base64 so the payload
		// survives shell quoting.
		b64 := base64.StdEncoding.EncodeToString([]byte(text))
		_, err := c.run(ctx, "shell", "am", "broadcast", "-a", "ADB_INPUT_B64", "--es", "msg", b64)
		return err
	case MechanismClipboardHelper:
		if _, err := c.run(ctx, "shell", "am", "broadcast", "-a", "clipper.set", "-e", "text", text); err != nil {
			return err
		}
		return c.pressPaste(ctx)
	case MechanismSystemClipboard:
		if _, err := c.run(ctx, "shell", "cmd", "clipboard", "set-text", text); err != nil {
			return err
		}
		return c.pressPaste(ctx)
	case MechanismKeystrokes:
		_, err := c.run(ctx, "shell", "input", "text", escapeInputText(text))
		return err
	default:
		return fmt.Errorf("unknown inject mechanism %d", mech)
	}
}

func (c *ADBChannel) pressPaste(ctx context.Context) error {
	// KEYCODE_PASTE
	_, err := c.run(ctx, "shell", "input", "keyevent", "279")
	return err
}

func (c *ADBChannel) Back(ctx context.Context) error {
	// KEYCODE_BACK
	_, err := c.run(ctx, "shell", "input", "keyevent", "4")
	return err
}

func (c *ADBChannel) Launch(ctx context.Context, target string) error {
	_, err := c.run(ctx, "shell", "monkey", "-p", target,
		"-c", "android.intent.category.LAUNCHER", "1")
	return err
}

// escapeInputText encodes text for `input text`, which splits on spaces and
// treats several characters specially.
func escapeInputText(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case ' ':
			b.WriteString("%s")
		case '\'', '"', '\\', '(', ')', '&', ';', '|', '<', '>':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type uiNode struct {
	Text      string   `xml:"text,attr"`
	Class     string   `xml:"class,attr"`
	Bounds    string   `xml:"bounds,attr"`
	Clickable string   `xml:"clickable,attr"`
	Focusable string   `xml:"focusable,attr"`
	Nodes     []uiNode `xml:"node"`
}

// ParseUIAutomatorXML turns a uiautomator hierarchy dump into a flattened
// snapshot of typed elements.
func ParseUIAutomatorXML(raw []byte) (*Snapshot, error) {
	var root struct {
		Nodes []uiNode `xml:"node"`
	}
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse ui hierarchy: %w", err)
	}

	snap := &Snapshot{CapturedAt: time.Now()}
	var walk func(n uiNode)
	walk = func(n uiNode) {
		bounds, ok := parseBounds(n.Bounds)
		if ok {
			snap.Elements = append(snap.Elements, Element{
				Class:     n.Class,
				Text:      n.Text,
				Bounds:    bounds,
				Clickable: n.Clickable == "true",
				Focusable: n.Focusable == "true",
				Editable:  isEditableClass(n.Class),
			})
		}
		for _, child := range n.Nodes {
			walk(child)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return snap, nil
}

// parseBounds decodes the "[l,t][r,b]" attribute format.
func parseBounds(s string) (Rect, bool) {
	var r Rect
	n, err := fmt.Sscanf(s, "[%d,%d][%d,%d]", &r.Left, &r.Top, &r.Right, &r.Bottom)
	if err != nil || n != 4 {
		return Rect{}, false
	}
	return r, true
}

func isEditableClass(class string) bool {
	return strings.HasSuffix(class, "EditText") ||
		strings.HasSuffix(class, "AutoCompleteTextView")
}
