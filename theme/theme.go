package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Step strip
	StepEmpty    rune // · step not playing
	StepPlayhead rune // ▶ current step
	StepFired    rune // ● current step fired with velocity > 0

	// Preview overlay
	PendingCorner rune // + corner of the region being drawn
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:     '·',
			StepPlayhead:  '▶',
			StepFired:     '●',
			PendingCorner: '+',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0   // deep night
	RoleMuted   = 0.25  // muted violet
	RoleFG      = 0.375 // lilac (readable)
	RoleAccent  = 0.5   // rose
	RoleBounds  = 0.625 // coral: zone bounds
	RoleActive  = 0.75  // signal red: active step region
	RolePending = 0.3   // region being drawn
	RoleWarning = 0.875 // amber
	RoleSuccess = 1.0   // gold
)

// Overlay strengths for tinting frame cells
const (
	BoundsAlpha  = 0.2
	ActiveAlpha  = 0.5
	PendingAlpha = 0.35
)

func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// RGB returns raw RGB for any normalized value
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

// Velocity maps a 0-127 trigger velocity onto the palette's warm end
func (t *Theme) Velocity(v uint8) RGB {
	return t.Palette.Lookup(RoleBounds + (RoleSuccess-RoleBounds)*float64(v)/127)
}
