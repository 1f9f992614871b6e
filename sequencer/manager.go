package sequencer

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"cam-sequence/debug"
	"cam-sequence/midi"
	"cam-sequence/vision"
)

// FrameSource hands out the current capture frame. Returned frames must not
// be modified afterwards; a source makes a new Frame for every new image.
// Sources report "nothing yet" with vision.ErrNoFrame.
type FrameSource interface {
	Frame() (*vision.Frame, error)
}

// Totals accumulates TickStats over the manager's lifetime
type Totals struct {
	Ticks       uint64
	Triggers    uint64
	NoFrame     uint64
	OutOfBounds uint64
	SinkErrors  uint64
}

// Snapshot is everything a renderer needs from one moment of the manager
type Snapshot struct {
	Zones    []ZoneView
	Frame    *vision.Frame
	Pending  image.Rectangle // logical space; valid when Creating
	Creating bool
	Scale    int
	Last     TickStats
	Totals   Totals
}

// Manager drives the registry from the wall clock: once per tick it
// measures elapsed time, pulls a frame and runs the registry. Gestures from
// the UI goroutine are serialized with ticks by mu, so every tick sees a
// consistent set of zones.
type Manager struct {
	registry *Registry
	source   FrameSource
	sink     midi.Sink
	fps      int

	mu     sync.Mutex
	last   time.Time
	carry  time.Duration // sub-millisecond remainder not yet fed to clocks
	frame  *vision.Frame
	stats  TickStats
	totals Totals

	// Notify UI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager ticking fps times per second
func NewManager(registry *Registry, source FrameSource, sink midi.Sink, fps int) *Manager {
	if fps <= 0 {
		fps = 60
	}
	return &Manager{
		registry:   registry,
		source:     source,
		sink:       sink,
		fps:        fps,
		UpdateChan: make(chan struct{}, 1),
	}
}

// Run ticks until ctx is cancelled
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(m.fps))
	defer ticker.Stop()

	m.TickAt(time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.TickAt(now)
		}
	}
}

// TickAt runs one tick as if the wall clock read now. The first tick only
// starts the clock.
func (m *Manager) TickAt(now time.Time) TickStats {
	frame, err := m.pullFrame()

	var triggers []midi.Trigger

	m.mu.Lock()
	var elapsedMs int
	if !m.last.IsZero() && now.After(m.last) {
		elapsed := now.Sub(m.last) + m.carry
		elapsedMs = int(elapsed / time.Millisecond)
		m.carry = elapsed - time.Duration(elapsedMs)*time.Millisecond
	}
	if m.last.IsZero() || now.After(m.last) {
		m.last = now
	}

	if err != nil {
		frame = nil
	}
	if frame != nil {
		m.frame = frame
	}

	stats := m.registry.Tick(elapsedMs, frame, func(t midi.Trigger) {
		triggers = append(triggers, t)
	})
	m.stats = stats
	m.totals.Ticks++
	m.totals.Triggers += uint64(stats.Triggers)
	m.totals.OutOfBounds += uint64(stats.OutOfBounds)
	if stats.NoFrame {
		m.totals.NoFrame++
	}
	m.mu.Unlock()

	for _, t := range triggers {
		if m.sink == nil {
			break
		}
		if err := m.sink.Send(t); err != nil {
			m.mu.Lock()
			m.totals.SinkErrors++
			m.mu.Unlock()
			debug.Log("sink", "send id=%d vel=%d: %v", t.ID, t.Velocity, err)
		}
	}

	m.notifyUpdate()
	return stats
}

func (m *Manager) pullFrame() (*vision.Frame, error) {
	if m.source == nil {
		return nil, vision.ErrNoFrame
	}
	frame, err := m.source.Frame()
	if err != nil {
		if !errors.Is(err, vision.ErrNoFrame) {
			debug.Log("source", "frame: %v", err)
		}
		return nil, err
	}
	if !frame.Available() {
		return nil, vision.ErrNoFrame
	}
	return frame, nil
}

// Apply forwards a gesture to the registry between ticks
func (m *Manager) Apply(g Gesture) *ZoneView {
	m.mu.Lock()
	z := m.registry.Apply(g)
	var view *ZoneView
	if z != nil {
		view = &ZoneView{
			ID:     z.ID(),
			Bounds: z.Bounds(),
			Active: z.ActiveRect(),
			Steps:  z.Clock.Steps(),
		}
	}
	m.mu.Unlock()

	m.notifyUpdate()
	return view
}

// Creating reports whether a region is being drawn
func (m *Manager) Creating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.registry.Editor().State().(CreatingRegion)
	return ok
}

// Snapshot returns the current render state. pointer is the screen-space
// pointer position used for the in-progress region.
func (m *Manager) Snapshot(pointer image.Point) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	scale := m.registry.Options().Scale
	pending, creating := m.registry.Editor().Pending(pointer, scale)
	return Snapshot{
		Zones:    m.registry.Views(),
		Frame:    m.frame,
		Pending:  pending,
		Creating: creating,
		Scale:    scale,
		Last:     m.stats,
		Totals:   m.totals,
	}
}

// notifyUpdate wakes the UI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
