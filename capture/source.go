package capture

import (
	"fmt"

	"cam-sequence/vision"
)

// Source is a closable frame source
type Source interface {
	Frame() (*vision.Frame, error)
	Close() error
}

// Open creates a source by kind: "pattern" (default) or "file"
func Open(kind, path string, width, height int) (Source, error) {
	switch kind {
	case "pattern", "":
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("pattern source needs a size, got %dx%d", width, height)
		}
		return NewPatternSource(width, height), nil
	case "file":
		if path == "" {
			return nil, fmt.Errorf("file source needs a path")
		}
		return OpenFile(path)
	default:
		return nil, fmt.Errorf("unknown source kind: %s", kind)
	}
}
