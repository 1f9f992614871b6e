package sequencer

import "image"

// Zone is a rectangle of the capture frame with its own step clock.
// Geometry is in logical (capture) space and never changes after creation.
type Zone struct {
	Origin image.Point
	Size   image.Point // width, height; may be zero for degenerate zones
	Clock  *Clock
}

// NewZone creates a zone over rect (logical space) driven by clock
func NewZone(rect image.Rectangle, clock *Clock) *Zone {
	rect = rect.Canon()
	return &Zone{
		Origin: rect.Min,
		Size:   rect.Size(),
		Clock:  clock,
	}
}

// ID returns the zone's sequencer identity
func (z *Zone) ID() uint64 {
	return z.Clock.ID()
}

// Bounds returns the full zone rectangle
func (z *Zone) Bounds() image.Rectangle {
	return image.Rectangle{Min: z.Origin, Max: z.Origin.Add(z.Size)}
}

// Degenerate reports whether the zone has no area
func (z *Zone) Degenerate() bool {
	return z.Size.X <= 0 || z.Size.Y <= 0
}

// StepWidth is the width of every step slice but the last
func (z *Zone) StepWidth() int {
	return z.Size.X / z.Clock.Steps()
}

// StepRect returns the slice of the zone belonging to step pos. Slices are
// StepWidth wide; the last one also takes the remainder of the division so
// the slices tile the zone exactly.
func (z *Zone) StepRect(pos int) image.Rectangle {
	steps := z.Clock.Steps()
	pos = ((pos % steps) + steps) % steps

	w := z.StepWidth()
	x0 := z.Origin.X + w*pos
	x1 := x0 + w
	if pos == steps-1 {
		x1 = z.Origin.X + z.Size.X
	}
	return image.Rect(x0, z.Origin.Y, x1, z.Origin.Y+z.Size.Y)
}

// ActiveRect returns the slice for the clock's current position
func (z *Zone) ActiveRect() image.Rectangle {
	return z.StepRect(z.Clock.Position())
}

// ZoneView is a read-only snapshot of a zone for rendering
type ZoneView struct {
	ID       uint64
	Bounds   image.Rectangle
	Active   image.Rectangle
	Position int
	Steps    int
	Velocity uint8 // last emitted velocity
	Fired    bool  // emitted a trigger on the latest tick
}
