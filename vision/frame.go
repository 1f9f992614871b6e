package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrNoFrame is returned by frame sources that have nothing usable yet.
	ErrNoFrame = errors.New("no frame available")

	// ErrOutOfBounds is returned by Sample when the rectangle is not
	// fully inside the frame.
	ErrOutOfBounds = errors.New("rectangle out of frame bounds")
)

// Format is the pixel layout of a frame buffer
type Format int

const (
	FormatBGR  Format = iota // 3 bytes per pixel, camera native order
	FormatRGBA               // 4 bytes per pixel
)

// ElemSize returns bytes per pixel
func (f Format) ElemSize() int {
	switch f {
	case FormatRGBA:
		return 4
	default:
		return 3
	}
}

func (f Format) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	default:
		return "bgr"
	}
}

// Frame is one captured video frame in logical (capture) space.
// A frame is owned by the tick driver and must not be modified once handed
// to the registry; samplers read it through Region views.
type Frame struct {
	Width  int
	Height int
	Format Format
	Pix    []byte
	Seq    uint64 // set by the source, monotonically increasing
}

// NewFrame copies src into an owned buffer. The source length must equal
// width*height*elemSize exactly.
func NewFrame(width, height int, format Format, src []byte) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame %dx%d: %w", width, height, ErrNoFrame)
	}
	want := width * height * format.ElemSize()
	if len(src) != want {
		return nil, fmt.Errorf("frame %dx%d %s: source has %d bytes, want %d", width, height, format, len(src), want)
	}

	pix := make([]byte, want)
	if n := copy(pix, src); n != want {
		return nil, fmt.Errorf("frame copy: copied %d of %d bytes", n, want)
	}

	return &Frame{Width: width, Height: height, Format: format, Pix: pix}, nil
}

// FromImage converts any image into an RGBA frame whose origin is (0,0).
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: FormatRGBA,
		Pix:    make([]byte, b.Dx()*b.Dy()*4),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			f.Pix[i] = c.R
			f.Pix[i+1] = c.G
			f.Pix[i+2] = c.B
			f.Pix[i+3] = c.A
			i += 4
		}
	}
	return f
}

// Available reports whether the frame has usable dimensions.
func (f *Frame) Available() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) >= f.Width*f.Height*f.Format.ElemSize()
}

// ElemSize returns bytes per pixel
func (f *Frame) ElemSize() int {
	return f.Format.ElemSize()
}

// Stride returns bytes per row
func (f *Frame) Stride() int {
	return f.Width * f.Format.ElemSize()
}

// RGBA returns the non-premultiplied components of the pixel at (x, y).
// Coordinates must be inside the frame.
func (f *Frame) RGBA(x, y int) (r, g, b, a uint8) {
	i := y*f.Stride() + x*f.ElemSize()
	switch f.Format {
	case FormatRGBA:
		return f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]
	default:
		return f.Pix[i+2], f.Pix[i+1], f.Pix[i], 0xff
	}
}

// image.Image implementation, so frames can be scaled for display

func (f *Frame) ColorModel() color.Model {
	return color.NRGBAModel
}

func (f *Frame) Bounds() image.Rectangle {
	if f == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *Frame) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(f.Bounds())) {
		return color.NRGBA{}
	}
	r, g, b, a := f.RGBA(x, y)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}
