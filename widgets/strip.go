package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cam-sequence/sequencer"
	"cam-sequence/theme"
)

// RenderPad renders a single colored pad
func RenderPad(color theme.RGB, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color.Hex()))
	return style.Render(string(symbol))
}

// RenderStrip renders one zone as a row of steps with the playhead marked:
// "#03 ····▶··········· 127"
func RenderStrip(v sequencer.ZoneView, th *theme.Theme) string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("#%02d ", v.ID))

	for i := 0; i < v.Steps; i++ {
		switch {
		case i == v.Position && v.Fired && v.Velocity > 0:
			out.WriteString(RenderPad(th.Velocity(v.Velocity), th.Symbols.StepFired))
		case i == v.Position:
			out.WriteString(RenderPad(th.RGB(theme.RoleActive), th.Symbols.StepPlayhead))
		default:
			out.WriteString(RenderPad(th.RGB(theme.RoleMuted), th.Symbols.StepEmpty))
		}
	}

	out.WriteString(fmt.Sprintf(" %3d", v.Velocity))
	return out.String()
}

// RenderStrips renders every zone, one per line
func RenderStrips(views []sequencer.ZoneView, th *theme.Theme) string {
	lines := make([]string, 0, len(views))
	for _, v := range views {
		lines = append(lines, RenderStrip(v, th))
	}
	return strings.Join(lines, "\n")
}
