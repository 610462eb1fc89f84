package device

import (
	"testing"
)

const sampleDump = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node text="" class="android.widget.FrameLayout" bounds="[0,0][720,1520]" clickable="false" focusable="false">
    <node text="举报" class="android.widget.TextView" bounds="[40,200][200,260]" clickable="true" focusable="true"/>
    <node text="" class="android.widget.EditText" bounds="[40,300][680,420]" clickable="true" focusable="true"/>
    <node text="提交" class="android.widget.Button" bounds="[40,1380][680,1480]" clickable="true" focusable="true"/>
    <node text="broken" class="android.widget.TextView" bounds="garbage" clickable="true" focusable="true"/>
  </node>
</hierarchy>`

func TestParseUIAutomatorXML(t *testing.T) {
	t.Parallel()
	snap, err := ParseUIAutomatorXML([]byte(sampleDump))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// The root container plus three valid children; the node with
	// unparseable bounds is dropped.
	if len(snap.Elements) != 4 {
		t.Fatalf("elements = %d, want 4", len(snap.Elements))
	}

	report := snap.Elements[1]
	if report.Text != "举报" || !report.Clickable || !report.Focusable {
		t.Fatalf("report element = %+v", report)
	}
	if report.Bounds != (Rect{Left: 40, Top: 200, Right: 200, Bottom: 260}) {
		t.Fatalf("bounds = %+v", report.Bounds)
	}
	if report.Editable {
		t.Fatal("a TextView is not editable")
	}

	edit := snap.Elements[2]
	if !edit.Editable {
		t.Fatalf("EditText must be editable: %+v", edit)
	}

	if !snap.ContainsText("提交") {
		t.Fatal("ContainsText missed a visible label")
	}
	if snap.ContainsText("不存在") {
		t.Fatal("ContainsText matched absent text")
	}
}

func TestParseUIAutomatorXMLRejectsGarbage(t *testing.T) {
	t.Parallel()
	if _, err := ParseUIAutomatorXML([]byte("not xml at all <<<")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestRectGeometry(t *testing.T) {
	t.Parallel()
	r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 220}
	if r.Width() != 100 || r.Height() != 200 || r.Area() != 20000 {
		t.Fatalf("geometry = w%d h%d a%d", r.Width(), r.Height(), r.Area())
	}
	if c := r.Center(); c != (Point{X: 60, Y: 120}) {
		t.Fatalf("center = %+v", c)
	}
	if !r.Contains(Point{X: 10, Y: 20}) {
		t.Fatal("top-left corner is inside")
	}
	if r.Contains(Point{X: 110, Y: 220}) {
		t.Fatal("bottom-right corner is outside")
	}
	if (Rect{Left: 5, Right: 1}).Area() != 0 {
		t.Fatal("inverted rect area must clamp to zero")
	}
}

func TestEscapeInputText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", `hello%sworld`},
		{`it's "x"`, `it\'s%s\"x\"`},
		{"a&b|c", `a\&b\|c`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := escapeInputText(tt.in); got != tt.want {
			t.Fatalf("escapeInputText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
