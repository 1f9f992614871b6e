package widgets

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"cam-sequence/theme"
	"cam-sequence/vision"
)

// halfBlock draws the top pixel of a cell in the foreground colour and the
// bottom pixel in the background colour
const halfBlock = '▀'

// Overlay tints every preview pixel that touches Rect (logical space)
type Overlay struct {
	Rect  image.Rectangle
	Color theme.RGB
	Alpha float64
}

// Preview is a Cols x Rows grid of square pixels. Pixel (x, y) shows the
// logical square [x*Scale, (x+1)*Scale) x [y*Scale, (y+1)*Scale). Two pixel
// rows share one terminal line, so the picture keeps the capture's aspect.
type Preview struct {
	Cols, Rows int
	Scale      int
	Cells      []theme.RGB

	bg    theme.RGB
	marks map[image.Point]mark // keyed by terminal cell
}

type mark struct {
	r  rune
	fg theme.RGB
}

// NewPreview downscales frame into a cols x rows pixel grid. Pixels beyond
// the frame, or every pixel when there is no frame, get bg.
func NewPreview(frame *vision.Frame, cols, rows, scale int, bg theme.RGB) *Preview {
	if scale < 1 {
		scale = 1
	}
	p := &Preview{Cols: cols, Rows: rows, Scale: scale, Cells: make([]theme.RGB, cols*rows), bg: bg}
	for i := range p.Cells {
		p.Cells[i] = bg
	}
	if cols <= 0 || rows <= 0 || !frame.Available() {
		return p
	}

	src := image.Rect(0, 0, cols*scale, rows*scale).Intersect(frame.Bounds())
	if src.Empty() {
		return p
	}
	dstRect := image.Rect(0, 0, (src.Dx()+scale-1)/scale, (src.Dy()+scale-1)/scale)
	dst := image.NewRGBA(dstRect)
	draw.ApproxBiLinear.Scale(dst, dstRect, frame, src, draw.Src, nil)

	for y := 0; y < dstRect.Dy() && y < rows; y++ {
		for x := 0; x < dstRect.Dx() && x < cols; x++ {
			c := dst.RGBAAt(x, y)
			p.Cells[y*cols+x] = theme.RGB{c.R, c.G, c.B}
		}
	}
	return p
}

// Lines returns the number of terminal lines Render produces
func (p *Preview) Lines() int {
	return (p.Rows + 1) / 2
}

// CellRect returns the logical rectangle shown by pixel (x, y)
func (p *Preview) CellRect(x, y int) image.Rectangle {
	return image.Rect(x*p.Scale, y*p.Scale, (x+1)*p.Scale, (y+1)*p.Scale)
}

// Apply tints the pixels under each overlay, in order. An empty rectangle
// is widened to one pixel so zero-area zones stay visible.
func (p *Preview) Apply(overlays ...Overlay) {
	for _, o := range overlays {
		if o.Alpha <= 0 {
			continue
		}
		r := o.Rect.Canon()
		if r.Dx() == 0 {
			r.Max.X++
		}
		if r.Dy() == 0 {
			r.Max.Y++
		}
		for y := 0; y < p.Rows; y++ {
			for x := 0; x < p.Cols; x++ {
				if p.CellRect(x, y).Overlaps(r) {
					i := y*p.Cols + x
					p.Cells[i] = theme.Blend(p.Cells[i], o.Color, o.Alpha)
				}
			}
		}
	}
}

// Mark draws r over the terminal cell holding pixel (x, y). Pixels outside
// the grid are ignored.
func (p *Preview) Mark(x, y int, r rune, fg theme.RGB) {
	if x < 0 || y < 0 || x >= p.Cols || y >= p.Rows {
		return
	}
	if p.marks == nil {
		p.marks = make(map[image.Point]mark)
	}
	p.marks[image.Pt(x, y/2)] = mark{r: r, fg: fg}
}

// MarkCorners marks the four corner pixels of screen, a rectangle in pixel
// coordinates
func (p *Preview) MarkCorners(screen image.Rectangle, r rune, fg theme.RGB) {
	screen = screen.Canon()
	if screen.Empty() {
		p.Mark(screen.Min.X, screen.Min.Y, r, fg)
		return
	}
	x0, y0 := screen.Min.X, screen.Min.Y
	x1, y1 := screen.Max.X-1, screen.Max.Y-1
	p.Mark(x0, y0, r, fg)
	p.Mark(x1, y0, r, fg)
	p.Mark(x0, y1, r, fg)
	p.Mark(x1, y1, r, fg)
}

func (p *Preview) pixel(x, y int) theme.RGB {
	if y >= p.Rows {
		return p.bg
	}
	return p.Cells[y*p.Cols+x]
}

// Render draws two pixel rows per line with half blocks. Runs of equal
// cells share one style.
func (p *Preview) Render() string {
	type cell struct {
		top, bottom theme.RGB
		r           rune
	}

	var out strings.Builder
	for line := 0; line < p.Lines(); line++ {
		if line > 0 {
			out.WriteString("\n")
		}
		run := 0
		var runCell cell
		flush := func() {
			if run == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(runCell.top.Hex())).
				Background(lipgloss.Color(runCell.bottom.Hex()))
			out.WriteString(style.Render(strings.Repeat(string(runCell.r), run)))
			run = 0
		}
		for x := 0; x < p.Cols; x++ {
			c := cell{top: p.pixel(x, 2*line), bottom: p.pixel(x, 2*line+1), r: halfBlock}
			if m, ok := p.marks[image.Pt(x, line)]; ok {
				c = cell{top: m.fg, bottom: theme.Blend(c.top, c.bottom, 0.5), r: m.r}
			}
			if run > 0 && c != runCell {
				flush()
			}
			runCell = c
			run++
		}
		flush()
	}
	return out.String()
}
