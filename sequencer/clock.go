package sequencer

// Defaults for a new zone clock
const (
	DefaultSteps     = 16
	DefaultMsPerStep = 250
)

// MsPerStepForTempo converts BPM into sixteenth-note step length.
// Returns DefaultMsPerStep for non-positive tempos.
func MsPerStepForTempo(bpm int) int {
	if bpm <= 0 {
		return DefaultMsPerStep
	}
	ms := 60000 / bpm / 4
	if ms < 1 {
		ms = 1
	}
	return ms
}

// Clock is a zone's fixed-grid step sequencer. It is driven purely by the
// elapsed milliseconds it is fed; it never reads the wall clock itself.
//
// Invariant after every call: 0 <= accumulated < msPerStep and
// 0 <= position < steps.
type Clock struct {
	id          uint64
	steps       int
	msPerStep   int
	position    int
	accumulated int
	edge        bool
	advances    uint64 // total step transitions since creation

	// ClearEdgeOnReset makes Reset drop a pending, unconsumed edge
	ClearEdgeOnReset bool
}

// NewClock creates a clock. Non-positive steps or msPerStep fall back to
// the defaults.
func NewClock(id uint64, steps, msPerStep int) *Clock {
	if steps <= 0 {
		steps = DefaultSteps
	}
	if msPerStep <= 0 {
		msPerStep = DefaultMsPerStep
	}
	return &Clock{
		id:               id,
		steps:            steps,
		msPerStep:        msPerStep,
		ClearEdgeOnReset: true,
	}
}

// ID returns the clock's identity
func (c *Clock) ID() uint64 { return c.id }

// Steps returns the step count
func (c *Clock) Steps() int { return c.steps }

// MsPerStep returns the step length in milliseconds
func (c *Clock) MsPerStep() int { return c.msPerStep }

// Position returns the current step in [0, Steps)
func (c *Clock) Position() int { return c.position }

// Accumulated returns milliseconds carried toward the next step
func (c *Clock) Accumulated() int { return c.accumulated }

// Advances returns the total number of step transitions so far
func (c *Clock) Advances() uint64 { return c.advances }

// Advance feeds elapsed milliseconds into the clock and returns how many
// steps it moved. Every whole step in the accumulated time is taken, so a
// long gap between ticks still lands on the right position; the edge flag
// is set if at least one step was taken. Negative input is ignored.
func (c *Clock) Advance(elapsedMs int) int {
	if elapsedMs <= 0 {
		return 0
	}
	c.accumulated += elapsedMs

	n := c.accumulated / c.msPerStep
	if n == 0 {
		return 0
	}
	c.accumulated -= n * c.msPerStep
	c.position = (c.position + n%c.steps) % c.steps
	c.advances += uint64(n)
	c.edge = true
	return n
}

// ConsumeEdge returns whether a step was taken since the last call and
// clears the flag.
func (c *Clock) ConsumeEdge() bool {
	edge := c.edge
	c.edge = false
	return edge
}

// Reset rewinds to step 0 with no accumulated time
func (c *Clock) Reset() {
	c.accumulated = 0
	c.position = 0
	if c.ClearEdgeOnReset {
		c.edge = false
	}
}
