package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	if p.Name != "ember" {
		t.Errorf("Name = %q", p.Name)
	}
	if len(p.Colors) != 9 {
		t.Fatalf("got %d colors, want 9", len(p.Colors))
	}
	if p.Colors[0] != (RGB{18, 10, 32}) {
		t.Errorf("first color = %v", p.Colors[0])
	}
}

func TestParseGPLErrors(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\nName: empty\n#\n")); err == nil {
		t.Error("expected error for palette without colors")
	}
	if _, err := LoadGPL(filepath.Join(t.TempDir(), "missing.gpl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.gpl")
	os.WriteFile(path, []byte("GIMP Palette\nName: two\n0 0 0 black\n300 255 -4 clipped\n"), 0644)

	p, err := LoadGPL(path)
	if err != nil {
		t.Fatalf("LoadGPL failed: %v", err)
	}
	if p.Colors[1] != (RGB{255, 255, 0}) {
		t.Errorf("clamped color = %v", p.Colors[1])
	}
}

func TestLookupEnds(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {255, 255, 255}}}
	if p.Lookup(-1) != (RGB{0, 0, 0}) || p.Lookup(2) != (RGB{255, 255, 255}) {
		t.Error("Lookup did not clamp to ends")
	}
	mid := p.Lookup(0.5)
	if mid[0] == 0 || mid[0] == 255 {
		t.Errorf("midpoint %v not blended", mid)
	}
}

func TestBlendEnds(t *testing.T) {
	a, b := RGB{10, 20, 30}, RGB{200, 100, 50}
	if Blend(a, b, 0) != a || Blend(a, b, 1) != b {
		t.Error("Blend ends should return inputs")
	}
}

func TestHex(t *testing.T) {
	if got := (RGB{255, 0, 16}).Hex(); got != "#ff0010" {
		t.Errorf("Hex = %q", got)
	}
}
