package sequencer

import (
	"fmt"
	"image"
)

// Gesture is an input event in screen space, delivered by the UI
type Gesture interface {
	gesture()
}

// StartGesture begins drawing a region at Point
type StartGesture struct{ Point image.Point }

// CommitGesture finishes the region at Point
type CommitGesture struct{ Point image.Point }

// CancelGesture discards the region being drawn
type CancelGesture struct{}

// ResetGesture rewinds every zone's clock
type ResetGesture struct{}

func (StartGesture) gesture()  {}
func (CommitGesture) gesture() {}
func (CancelGesture) gesture() {}
func (ResetGesture) gesture()  {}

func (g StartGesture) String() string  { return fmt.Sprintf("start%v", g.Point) }
func (g CommitGesture) String() string { return fmt.Sprintf("commit%v", g.Point) }
func (CancelGesture) String() string   { return "cancel" }
func (ResetGesture) String() string    { return "reset" }
