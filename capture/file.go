package capture

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"cam-sequence/vision"
)

// FileSource serves a still image as an endless video. The file is decoded
// once; every call returns the same frame.
type FileSource struct {
	path  string
	mu    sync.Mutex
	frame *vision.Frame
}

// OpenFile decodes path (png, jpeg, gif, bmp, tiff or webp)
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	frame := vision.FromImage(img)
	if !frame.Available() {
		return nil, fmt.Errorf("%s (%s): %w", path, format, vision.ErrNoFrame)
	}
	frame.Seq = 1
	return &FileSource{path: path, frame: frame}, nil
}

// Frame implements sequencer.FrameSource
func (s *FileSource) Frame() (*vision.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, fmt.Errorf("%s: %w", s.path, vision.ErrNoFrame)
	}
	return s.frame, nil
}

func (s *FileSource) Close() error {
	s.mu.Lock()
	s.frame = nil
	s.mu.Unlock()
	return nil
}
