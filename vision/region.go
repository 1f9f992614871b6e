package vision

import (
	"fmt"
	"image"
	"image/color"
)

// Region is a read-only view of a rectangle of a frame. It shares the
// frame's pixel buffer; nothing is copied.
type Region struct {
	frame *Frame
	Rect  image.Rectangle
}

// Sample returns the view of frame covering rect. rect is in the frame's own
// coordinate space and must lie fully inside it.
func Sample(frame *Frame, rect image.Rectangle) (Region, error) {
	if !frame.Available() {
		return Region{}, ErrNoFrame
	}
	rect = rect.Canon()
	if !contains(frame.Bounds(), rect) {
		return Region{}, fmt.Errorf("sample %v in %dx%d frame: %w", rect, frame.Width, frame.Height, ErrOutOfBounds)
	}
	return Region{frame: frame, Rect: rect}, nil
}

// Clamp intersects rect with the frame bounds. ok is false when nothing of
// rect is left, which callers treat as out of bounds.
func Clamp(frame *Frame, rect image.Rectangle) (clamped image.Rectangle, ok bool) {
	if !frame.Available() {
		return image.Rectangle{}, false
	}
	rect = rect.Canon()
	if rect.Empty() {
		return rect, contains(frame.Bounds(), rect)
	}
	clamped = rect.Intersect(frame.Bounds())
	return clamped, !clamped.Empty()
}

// contains is image.Rectangle.In without the empty-rectangle shortcut: an
// empty rectangle still has to sit inside bounds.
func contains(bounds, r image.Rectangle) bool {
	return r.Min.X >= bounds.Min.X && r.Min.Y >= bounds.Min.Y &&
		r.Max.X <= bounds.Max.X && r.Max.Y <= bounds.Max.Y
}

// Len returns the number of pixels in the view
func (r Region) Len() int {
	return r.Rect.Dx() * r.Rect.Dy()
}

// Each calls fn for every pixel of the view, row by row.
func (r Region) Each(fn func(red, green, blue, alpha uint8)) {
	if r.frame == nil {
		return
	}
	for y := r.Rect.Min.Y; y < r.Rect.Max.Y; y++ {
		for x := r.Rect.Min.X; x < r.Rect.Max.X; x++ {
			fn(r.frame.RGBA(x, y))
		}
	}
}

func (r Region) ColorModel() color.Model {
	return color.NRGBAModel
}

func (r Region) Bounds() image.Rectangle {
	return r.Rect
}

func (r Region) At(x, y int) color.Color {
	if r.frame == nil || !(image.Point{x, y}.In(r.Rect)) {
		return color.NRGBA{}
	}
	return r.frame.At(x, y)
}
