package midi

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// MaxVelocity is the top of the 7-bit velocity range
const MaxVelocity = 127

// Trigger is one step firing of a zone. It carries no timestamp; triggers
// from the same tick are delivered in zone order.
type Trigger struct {
	ID       uint64 // sequencer identity of the zone
	Velocity uint8  // 0-127
}

// VelocityFor maps a coverage ratio in [0, 1] onto 0-127, rounding to nearest.
// Out-of-range ratios are clamped.
func VelocityFor(coverage float64) uint8 {
	if coverage <= 0 {
		return 0
	}
	if coverage >= 1 {
		return MaxVelocity
	}
	return uint8(coverage*MaxVelocity + 0.5)
}

// NoteFor maps a zone identity onto a MIDI note, wrapping at 128
func NoteFor(baseNote uint8, id uint64) uint8 {
	return uint8((uint64(baseNote) + id) % 128)
}
