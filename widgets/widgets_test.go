package widgets

import (
	"image"
	"strings"
	"testing"

	"cam-sequence/sequencer"
	"cam-sequence/theme"
	"cam-sequence/vision"
)

func solidFrame(t *testing.T, w, h int, r, g, b byte) *vision.Frame {
	t.Helper()
	buf := make([]byte, w*h*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = r, g, b, 255
	}
	f, err := vision.NewFrame(w, h, vision.FormatRGBA, buf)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return f
}

func TestPreviewNoFrameIsBackground(t *testing.T) {
	bg := theme.RGB{1, 2, 3}
	p := NewPreview(nil, 4, 3, 2, bg)
	for i, c := range p.Cells {
		if c != bg {
			t.Fatalf("cell %d = %v, want bg", i, c)
		}
	}
}

func TestPreviewDownscale(t *testing.T) {
	f := solidFrame(t, 8, 4, 200, 10, 10)
	bg := theme.RGB{0, 0, 0}
	// 6 cols at scale 2 covers 12 logical px; cells past x=3 are off-frame
	p := NewPreview(f, 6, 2, 2, bg)

	if got := p.Cells[0]; got != (theme.RGB{200, 10, 10}) {
		t.Errorf("cell 0 = %v", got)
	}
	if got := p.Cells[3]; got != (theme.RGB{200, 10, 10}) {
		t.Errorf("cell 3 = %v", got)
	}
	if got := p.Cells[4]; got != bg {
		t.Errorf("off-frame cell = %v, want bg", got)
	}
}

func TestPreviewOverlay(t *testing.T) {
	p := NewPreview(nil, 4, 4, 10, theme.RGB{0, 0, 0})
	white := theme.RGB{255, 255, 255}
	p.Apply(Overlay{Rect: image.Rect(10, 10, 20, 20), Color: white, Alpha: 1})

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := theme.RGB{0, 0, 0}
			if x == 1 && y == 1 {
				want = white
			}
			if got := p.Cells[y*4+x]; got != want {
				t.Errorf("cell (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestPreviewDegenerateOverlayVisible(t *testing.T) {
	p := NewPreview(nil, 4, 4, 10, theme.RGB{0, 0, 0})
	p.Apply(Overlay{Rect: image.Rect(15, 15, 15, 35), Color: theme.RGB{255, 0, 0}, Alpha: 1})
	if p.Cells[1*4+1] == (theme.RGB{0, 0, 0}) {
		t.Error("zero-width overlay left no trace")
	}
}

func TestPreviewRenderPairsRows(t *testing.T) {
	tests := []struct {
		rows, lines int
	}{
		{1, 1},
		{3, 2},
		{4, 2},
		{5, 3},
	}
	for _, tt := range tests {
		p := NewPreview(nil, 5, tt.rows, 1, theme.RGB{9, 9, 9})
		if p.Lines() != tt.lines {
			t.Errorf("rows %d: Lines() = %d, want %d", tt.rows, p.Lines(), tt.lines)
		}
		if got := strings.Count(p.Render(), "\n") + 1; got != tt.lines {
			t.Errorf("rows %d: rendered %d lines, want %d", tt.rows, got, tt.lines)
		}
	}
}

func TestPreviewMarkCorners(t *testing.T) {
	p := NewPreview(nil, 6, 6, 1, theme.RGB{0, 0, 0})
	p.MarkCorners(image.Rect(1, 0, 4, 4), '+', theme.RGB{255, 255, 255})

	out := p.Render()
	if got := strings.Count(out, "+"); got != 4 {
		t.Errorf("rendered %d corner marks, want 4:\n%s", got, out)
	}
}

func TestPreviewMarkOutsideIgnored(t *testing.T) {
	p := NewPreview(nil, 4, 4, 1, theme.RGB{0, 0, 0})
	p.Mark(-1, 0, '+', theme.RGB{})
	p.Mark(4, 0, '+', theme.RGB{})
	p.Mark(0, 4, '+', theme.RGB{})
	if strings.Contains(p.Render(), "+") {
		t.Error("marks outside the grid should be dropped")
	}
}

func TestRenderStrip(t *testing.T) {
	th := theme.New(theme.DefaultPalette())
	v := sequencer.ZoneView{ID: 3, Steps: 4, Position: 2, Velocity: 64}
	out := RenderStrip(v, th)

	if !strings.HasPrefix(out, "#03 ") {
		t.Errorf("strip %q missing id prefix", out)
	}
	if strings.Count(out, string(th.Symbols.StepEmpty)) != 3 {
		t.Errorf("strip %q should have 3 empty steps", out)
	}
	if !strings.Contains(out, string(th.Symbols.StepPlayhead)) {
		t.Errorf("strip %q missing playhead", out)
	}
	if !strings.HasSuffix(out, " 64") {
		t.Errorf("strip %q missing velocity", out)
	}

	v.Fired = true
	if out := RenderStrip(v, th); !strings.Contains(out, string(th.Symbols.StepFired)) {
		t.Errorf("fired strip %q missing fired marker", out)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{
		Title: "Regions",
		Keys:  []KeyBinding{{"c", "start / commit"}, {"x", "cancel"}},
	}})
	want := "Regions\n  c        start / commit\n  x        cancel"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
	if got := RenderKeyLine([]KeyBinding{{"c", "region"}, {"q", "quit"}}); got != "c:region  q:quit" {
		t.Errorf("key line = %q", got)
	}
}
