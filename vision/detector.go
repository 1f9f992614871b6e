package vision

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Detector measures how much of a region shows the colour it looks for
type Detector interface {
	// Measure returns the fraction of matching pixels in [0, 1].
	// An empty region yields 0.
	Measure(r Region) float64
}

// HSVRange is an inclusive colour window in 8-bit camera HSV units:
// hue 0-180 (degrees halved), saturation and value 0-255.
type HSVRange struct {
	HueMin, HueMax float64
	SatMin, SatMax float64
	ValMin, ValMax float64
}

// RedRange is the fixed window the instrument listens for: the low hue band
// with a small saturation floor, any brightness.
var RedRange = HSVRange{
	HueMin: 0, HueMax: 15,
	SatMin: 25, SatMax: 255,
	ValMin: 0, ValMax: 255,
}

// Validate rejects inverted or out-of-scale windows
func (h HSVRange) Validate() error {
	switch {
	case h.HueMin < 0 || h.HueMax > 180 || h.HueMin > h.HueMax:
		return fmt.Errorf("hue range %g-%g outside 0-180 or inverted", h.HueMin, h.HueMax)
	case h.SatMin < 0 || h.SatMax > 255 || h.SatMin > h.SatMax:
		return fmt.Errorf("saturation range %g-%g outside 0-255 or inverted", h.SatMin, h.SatMax)
	case h.ValMin < 0 || h.ValMax > 255 || h.ValMin > h.ValMax:
		return fmt.Errorf("value range %g-%g outside 0-255 or inverted", h.ValMin, h.ValMax)
	}
	return nil
}

// Contains reports whether an 8-bit HSV triple falls in the window
func (h HSVRange) Contains(hue, sat, val float64) bool {
	return hue >= h.HueMin && hue <= h.HueMax &&
		sat >= h.SatMin && sat <= h.SatMax &&
		val >= h.ValMin && val <= h.ValMax
}

// HSVDetector counts opaque pixels whose HSV value falls in Range
type HSVDetector struct {
	Range HSVRange
}

// NewHSVDetector creates a detector for rng
func NewHSVDetector(rng HSVRange) (*HSVDetector, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &HSVDetector{Range: rng}, nil
}

// Measure implements Detector
func (d *HSVDetector) Measure(r Region) float64 {
	total := r.Len()
	if total == 0 {
		return 0
	}

	matching := 0
	r.Each(func(red, green, blue, alpha uint8) {
		if alpha != 0xff {
			return
		}
		hue, sat, val := ToHSV8(red, green, blue)
		if d.Range.Contains(hue, sat, val) {
			matching++
		}
	})

	return float64(matching) / float64(total)
}

// ToHSV8 converts an RGB pixel to rounded 8-bit camera HSV units.
func ToHSV8(red, green, blue uint8) (hue, sat, val float64) {
	c := colorful.Color{
		R: float64(red) / 255,
		G: float64(green) / 255,
		B: float64(blue) / 255,
	}
	h, s, v := c.Hsv()
	hue = math.Round(h / 2)
	if hue >= 180 {
		hue = 0
	}
	return hue, math.Round(s * 255), math.Round(v * 255)
}

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string, rng HSVRange) (Detector, error) {
	switch variant {
	case "hsv", "":
		return NewHSVDetector(rng)
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
