package sequencer

import (
	"errors"
	"image"

	"cam-sequence/debug"
	"cam-sequence/midi"
	"cam-sequence/vision"
)

// Options configures zones created by a Registry
type Options struct {
	Steps            int
	MsPerStep        int
	Scale            int // screen to logical scale factor
	ClearEdgeOnReset bool
}

// DefaultOptions returns 16 steps of 250ms at 2x scale
func DefaultOptions() Options {
	return Options{
		Steps:            DefaultSteps,
		MsPerStep:        DefaultMsPerStep,
		Scale:            2,
		ClearEdgeOnReset: true,
	}
}

// TickStats counts what happened during one tick
type TickStats struct {
	Edges       int // zones whose clock stepped
	Triggers    int // triggers emitted
	OutOfBounds int // zones skipped because their slice left the frame
	NoFrame     bool
}

// Registry is the ordered set of zones plus the editor that creates them.
// It is not safe for concurrent use; the Manager serializes access.
type Registry struct {
	opts     Options
	zones    []*Zone
	nextID   uint64
	editor   *Editor
	detector vision.Detector

	// last trigger per zone id, for rendering
	lastVelocity map[uint64]uint8
	fired        map[uint64]bool
}

// NewRegistry creates an empty registry measuring with detector
func NewRegistry(opts Options, detector vision.Detector) *Registry {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	if detector == nil {
		detector = &vision.HSVDetector{Range: vision.RedRange}
	}
	return &Registry{
		opts:         opts,
		editor:       NewEditor(),
		detector:     detector,
		lastVelocity: make(map[uint64]uint8),
		fired:        make(map[uint64]bool),
	}
}

// Options returns the registry options
func (r *Registry) Options() Options {
	return r.opts
}

// Editor returns the zone editor
func (r *Registry) Editor() *Editor {
	return r.editor
}

// Zones returns the zones in creation order
func (r *Registry) Zones() []*Zone {
	return r.zones
}

// Add creates a zone over a logical-space rectangle with a fresh identity.
func (r *Registry) Add(rect image.Rectangle) *Zone {
	clock := NewClock(r.nextID, r.opts.Steps, r.opts.MsPerStep)
	clock.ClearEdgeOnReset = r.opts.ClearEdgeOnReset
	r.nextID++

	z := NewZone(rect, clock)
	r.zones = append(r.zones, z)
	debug.Log("zone", "committed id=%d bounds=%v", z.ID(), z.Bounds())
	return z
}

// Apply handles one input gesture. It returns the zone created by a commit,
// or nil.
func (r *Registry) Apply(g Gesture) *Zone {
	switch g := g.(type) {
	case StartGesture:
		r.editor.Start(g.Point)
	case CommitGesture:
		if rect, ok := r.editor.Commit(g.Point, r.opts.Scale); ok {
			return r.Add(rect)
		}
	case CancelGesture:
		r.editor.Cancel()
	case ResetGesture:
		r.ResetAll()
	}
	return nil
}

// ResetAll rewinds every zone's clock
func (r *Registry) ResetAll() {
	for _, z := range r.zones {
		z.Clock.Reset()
	}
	debug.Log("zone", "reset %d sequencers", len(r.zones))
}

// Tick advances every clock by elapsedMs and, for each zone whose clock
// stepped, measures its active slice in frame and emits one trigger.
//
// A nil or unavailable frame still advances every clock; the edges of that
// tick are consumed without a trigger. A zone whose slice is outside the
// frame is skipped for this tick only.
func (r *Registry) Tick(elapsedMs int, frame *vision.Frame, emit func(midi.Trigger)) TickStats {
	var stats TickStats
	available := frame.Available()
	if !available {
		stats.NoFrame = true
	}

	for _, z := range r.zones {
		z.Clock.Advance(elapsedMs)
		r.fired[z.ID()] = false

		if !z.Clock.ConsumeEdge() {
			continue
		}
		stats.Edges++

		if !available {
			continue
		}

		coverage, err := r.measure(z, frame)
		if err != nil {
			if errors.Is(err, vision.ErrOutOfBounds) {
				stats.OutOfBounds++
			}
			debug.Log("tick", "zone %d skipped: %v", z.ID(), err)
			continue
		}

		t := midi.Trigger{ID: z.ID(), Velocity: midi.VelocityFor(coverage)}
		r.lastVelocity[t.ID] = t.Velocity
		r.fired[t.ID] = true
		stats.Triggers++
		if emit != nil {
			emit(t)
		}
	}

	if stats.NoFrame && stats.Edges > 0 {
		debug.LogEvery(30, "tick", "no frame, dropped %d edges", stats.Edges)
	}
	return stats
}

// measure clamps the zone's active slice to the frame and measures it. A
// zone without area is never sampled and measures 0.
func (r *Registry) measure(z *Zone, frame *vision.Frame) (float64, error) {
	if z.Degenerate() {
		return 0, nil
	}
	rect, ok := vision.Clamp(frame, z.ActiveRect())
	if !ok {
		return 0, vision.ErrOutOfBounds
	}
	region, err := vision.Sample(frame, rect)
	if err != nil {
		return 0, err
	}
	return r.detector.Measure(region), nil
}

// Views returns render snapshots of every zone
func (r *Registry) Views() []ZoneView {
	views := make([]ZoneView, 0, len(r.zones))
	for _, z := range r.zones {
		views = append(views, ZoneView{
			ID:       z.ID(),
			Bounds:   z.Bounds(),
			Active:   z.ActiveRect(),
			Position: z.Clock.Position(),
			Steps:    z.Clock.Steps(),
			Velocity: r.lastVelocity[z.ID()],
			Fired:    r.fired[z.ID()],
		})
	}
	return views
}
