package capture

import (
	"fmt"
	"sync"
	"time"

	"cam-sequence/vision"
)

// PatternSource synthesizes a test card: a dark gradient with a red bar that
// sweeps left to right once per Period. The first Warmup frames are reported
// as not available, like a camera that is still starting.
type PatternSource struct {
	Width, Height int
	Period        time.Duration
	Warmup        int
	BarWidth      int

	mu    sync.Mutex
	start time.Time
	seq   uint64
	now   func() time.Time
}

// NewPatternSource creates a w x h test card source
func NewPatternSource(w, h int) *PatternSource {
	return &PatternSource{
		Width:    w,
		Height:   h,
		Period:   4 * time.Second,
		BarWidth: w / 8,
		now:      time.Now,
	}
}

// Frame implements sequencer.FrameSource
func (p *PatternSource) Frame() (*vision.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.start.IsZero() {
		p.start = p.now()
	}
	p.seq++
	if p.seq <= uint64(p.Warmup) {
		return nil, fmt.Errorf("warming up (%d/%d): %w", p.seq, p.Warmup, vision.ErrNoFrame)
	}

	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		return nil, vision.ErrNoFrame
	}
	barX := p.barPosition(p.now().Sub(p.start))

	// BGR, camera native
	buf := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		shade := byte(20 + 60*y/h)
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			if x >= barX && x < barX+p.BarWidth {
				buf[i], buf[i+1], buf[i+2] = 20, 30, 220
				continue
			}
			buf[i], buf[i+1], buf[i+2] = shade+byte(40*x/w), shade, shade
		}
	}

	f, err := vision.NewFrame(w, h, vision.FormatBGR, buf)
	if err != nil {
		return nil, err
	}
	f.Seq = p.seq
	return f, nil
}

// barPosition returns the bar's left edge after elapsed time
func (p *PatternSource) barPosition(elapsed time.Duration) int {
	if p.Period <= 0 {
		return 0
	}
	phase := elapsed % p.Period
	span := p.Width + p.BarWidth
	return int(int64(span)*int64(phase)/int64(p.Period)) - p.BarWidth
}

func (p *PatternSource) Close() error { return nil }
