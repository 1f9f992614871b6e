package tui

import (
	"fmt"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cam-sequence/midi"
	"cam-sequence/sequencer"
	"cam-sequence/theme"
	"cam-sequence/widgets"
)

// previewTop is the screen row of the first preview line: a blank line, the
// header and another blank line sit above it.
const previewTop = 3

var keyLine = []widgets.KeyBinding{
	{Key: "c", Desc: "region"},
	{Key: "x", Desc: "cancel"},
	{Key: ",", Desc: "reset"},
	{Key: "?", Desc: "help"},
	{Key: "q", Desc: "quit"},
}

var keyHelp = []widgets.KeySection{
	{Title: "Regions", Keys: []widgets.KeyBinding{
		{Key: "c", Desc: "start a region at the pointer, press again to commit"},
		{Key: "drag", Desc: "left button press and release draws a region"},
		{Key: "x", Desc: "cancel the region being drawn"},
	}},
	{Title: "Sequencer", Keys: []widgets.KeyBinding{
		{Key: ",", Desc: "reset every zone to step 0"},
	}},
	{Title: "App", Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle this help"},
		{Key: "q/esc", Desc: "quit"},
	}},
}

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager // may be nil
	Theme     *theme.Theme
	Output    *midi.SwitchSink // receives the hot-plugged port

	cols, rows int         // preview size in pixels; two pixel rows per line
	pointer    image.Point // screen space in preview pixels
	dragging   bool        // a left press started the current region
	port       string
	status     string
	showHelp   bool
	quitting   bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

// NewModel creates a model whose preview is cols x rows pixels
func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, output *midi.SwitchSink, th *theme.Theme, cols, rows int) Model {
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
		Output:    output,
		cols:      cols,
		rows:      rows,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

// GestureForKey maps a key press to an editor gesture. "c" starts a region
// when idle and commits it while one is being drawn.
func GestureForKey(key string, creating bool, pointer image.Point) (sequencer.Gesture, bool) {
	switch key {
	case "c":
		if creating {
			return sequencer.CommitGesture{Point: pointer}, true
		}
		return sequencer.StartGesture{Point: pointer}, true
	case "x":
		return sequencer.CancelGesture{}, true
	case ",":
		return sequencer.ResetGesture{}, true
	}
	return nil, false
}

// GestureForMouse maps a left button drag to a region. Only the release
// ending a drag that a left press started commits; some terminals report
// releases without a button.
func GestureForMouse(msg tea.MouseMsg, creating, dragging bool, pointer image.Point) (sequencer.Gesture, bool) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && !creating {
			return sequencer.StartGesture{Point: pointer}, true
		}
	case tea.MouseActionRelease:
		left := msg.Button == tea.MouseButtonLeft || msg.Button == tea.MouseButtonNone
		if left && dragging && creating {
			return sequencer.CommitGesture{Point: pointer}, true
		}
	}
	return nil, false
}

// PointerAt converts a terminal cell to preview pixels. Each line holds two
// pixel rows; the pointer sits on the top one.
func PointerAt(x, y int) image.Point {
	return image.Pt(x, (y-previewTop)*2)
}

func (m Model) apply(g sequencer.Gesture) Model {
	view := m.Manager.Apply(g)
	switch g.(type) {
	case sequencer.CommitGesture:
		if view != nil {
			m.status = fmt.Sprintf("zone #%d %v", view.ID, view.Bounds)
		} else {
			m.status = "nothing to commit"
		}
	case sequencer.StartGesture:
		m.status = "drawing region"
	case sequencer.CancelGesture:
		m.status = ""
	case sequencer.ResetGesture:
		m.status = "reset"
	}
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		}
		if g, ok := GestureForKey(msg.String(), m.Manager.Creating(), m.pointer); ok {
			switch g.(type) {
			case sequencer.CommitGesture, sequencer.CancelGesture:
				m.dragging = false
			}
			m = m.apply(g)
		}

	case tea.MouseMsg:
		m.pointer = PointerAt(msg.X, msg.Y)
		g, ok := GestureForMouse(msg, m.Manager.Creating(), m.dragging, m.pointer)
		if msg.Action == tea.MouseActionRelease {
			m.dragging = false
		}
		if ok {
			if _, start := g.(sequencer.StartGesture); start {
				m.dragging = true
			}
			m = m.apply(g)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			if event.Sink == nil {
				break
			}
			m.port = event.ID
			if m.Output != nil {
				m.Output.Set(event.Sink)
			}
		case midi.DeviceDisconnected:
			if m.port == event.ID {
				m.port = ""
				if m.Output != nil {
					m.Output.Set(nil)
				}
			}
		}
		if m.DeviceMgr == nil {
			return m, nil
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// overlays builds the zone tints: bounds first, active step on top, then
// the region being drawn.
func (m Model) overlays(snap sequencer.Snapshot) []widgets.Overlay {
	var out []widgets.Overlay
	for _, z := range snap.Zones {
		out = append(out, widgets.Overlay{Rect: z.Bounds, Color: m.Theme.RGB(theme.RoleBounds), Alpha: theme.BoundsAlpha})
	}
	for _, z := range snap.Zones {
		color := m.Theme.RGB(theme.RoleActive)
		if z.Fired {
			color = m.Theme.Velocity(z.Velocity)
		}
		out = append(out, widgets.Overlay{Rect: z.Active, Color: color, Alpha: theme.ActiveAlpha})
	}
	if snap.Creating {
		out = append(out, widgets.Overlay{Rect: snap.Pending, Color: m.Theme.RGB(theme.RolePending), Alpha: theme.PendingAlpha})
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Manager.Snapshot(m.pointer)

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	portStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	helpStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())

	port := dimStyle.Render("no port")
	if m.port != "" {
		port = portStyle.Render(m.port)
	}
	header := headerStyle.Render(fmt.Sprintf("cam-sequence  zones:%d  sent:%d",
		len(snap.Zones), snap.Totals.Triggers)) + "  " + port
	if snap.Last.NoFrame {
		header += "  " + warnStyle.Render("no frame")
	}
	if snap.Last.OutOfBounds > 0 {
		header += "  " + warnStyle.Render(fmt.Sprintf("oob:%d", snap.Last.OutOfBounds))
	}

	preview := widgets.NewPreview(snap.Frame, m.cols, m.rows, snap.Scale, m.Theme.RGB(theme.RoleBG))
	preview.Apply(m.overlays(snap)...)
	if snap.Creating {
		corners := sequencer.ToScreen(snap.Pending, snap.Scale)
		preview.MarkCorners(corners, m.Theme.Symbols.PendingCorner, m.Theme.RGB(theme.RoleFG))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(preview.Render())
	out.WriteString("\n\n")
	if len(snap.Zones) > 0 {
		out.WriteString(widgets.RenderStrips(snap.Zones, m.Theme))
		out.WriteString("\n\n")
	}
	if m.status != "" {
		out.WriteString(dimStyle.Render(m.status))
		out.WriteString("\n")
	}
	if m.showHelp {
		out.WriteString(helpStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	} else {
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(keyLine)))
	}

	return out.String()
}
