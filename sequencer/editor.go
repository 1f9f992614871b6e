package sequencer

import "image"

// EditorState is either Idle or CreatingRegion
type EditorState interface {
	editorState()
}

// Idle means no region is being drawn
type Idle struct{}

// CreatingRegion holds the screen-space point where the gesture started
type CreatingRegion struct {
	Anchor image.Point
}

func (Idle) editorState()           {}
func (CreatingRegion) editorState() {}

// Editor turns a two-point screen gesture into a logical-space rectangle
type Editor struct {
	state EditorState
}

// NewEditor creates an idle editor
func NewEditor() *Editor {
	return &Editor{state: Idle{}}
}

// State returns the current state
func (e *Editor) State() EditorState {
	if e.state == nil {
		return Idle{}
	}
	return e.state
}

// Start begins a region at p. Ignored unless idle.
func (e *Editor) Start(p image.Point) {
	if _, ok := e.State().(Idle); ok {
		e.state = CreatingRegion{Anchor: p}
	}
}

// Commit finishes the region at p and returns its logical-space rectangle.
// ok is false when no region was being drawn.
func (e *Editor) Commit(p image.Point, scale int) (rect image.Rectangle, ok bool) {
	cr, ok := e.State().(CreatingRegion)
	if !ok {
		return image.Rectangle{}, false
	}
	e.state = Idle{}
	return ToLogical(gestureRect(cr.Anchor, p), scale), true
}

// Cancel drops an in-progress region
func (e *Editor) Cancel() {
	e.state = Idle{}
}

// Pending returns the logical-space rectangle that would be committed at p
func (e *Editor) Pending(p image.Point, scale int) (image.Rectangle, bool) {
	cr, ok := e.State().(CreatingRegion)
	if !ok {
		return image.Rectangle{}, false
	}
	return ToLogical(gestureRect(cr.Anchor, p), scale), true
}

// gestureRect is the component-wise min corner and absolute size of a, b
func gestureRect(a, b image.Point) image.Rectangle {
	return image.Rectangle{Min: a, Max: b}.Canon()
}

// ToLogical scales a screen-space rectangle into logical space.
// Scales below 1 are treated as 1.
func ToLogical(r image.Rectangle, scale int) image.Rectangle {
	if scale < 1 {
		scale = 1
	}
	return image.Rectangle{Min: r.Min.Mul(scale), Max: r.Max.Mul(scale)}
}

// ToScreen maps a logical-space rectangle back to screen space, rounding
// outward so nothing visible is lost.
func ToScreen(r image.Rectangle, scale int) image.Rectangle {
	if scale < 1 {
		scale = 1
	}
	return image.Rect(
		floorDiv(r.Min.X, scale), floorDiv(r.Min.Y, scale),
		ceilDiv(r.Max.X, scale), ceilDiv(r.Max.Y, scale),
	)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
