package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// StaticCamera simulates a granted camera that yields synthetic frames. It
// stands in where no real device integration is linked.
type StaticCamera struct {
	Width  int
	Height int
}

// Open returns a stream of blank frames at the configured dimensions.
func (c StaticCamera) Open(_ context.Context) (Stream, error) {
	w, h := c.Width, c.Height
	if w <= 0 || h <= 0 {
		w, h = 320, 240
	}
	return &staticStream{width: w, height: h}, nil
}

type staticStream struct {
	width  int
	height int

	mu     sync.Mutex
	closed bool
}

func (s *staticStream) Frame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, fmt.Errorf("stream closed")
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{Width: s.width, Height: s.height}, nil
}

func (s *staticStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// DeniedCamera simulates a refused camera permission.
type DeniedCamera struct{}

// Open always fails with ErrPermissionDenied.
func (DeniedCamera) Open(_ context.Context) (Stream, error) {
	return nil, ErrPermissionDenied
}

// FileDetector reads a face descriptor from a JSON file on every tick,
// reporting "no face" until the file exists. It lets an operator drive the
// capture loop without a real extraction model: drop a descriptor file in
// place and the next tick captures it.
type FileDetector struct {
	Path string
}

// Detect loads the descriptor file if present.
func (d FileDetector) Detect(_ context.Context, _ Frame) (Detection, error) {
	raw, err := os.ReadFile(d.Path)
	if os.IsNotExist(err) {
		return Detection{}, nil
	}
	if err != nil {
		return Detection{}, fmt.Errorf("read descriptor file: %w", err)
	}

	var descriptor []float64
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return Detection{}, fmt.Errorf("decode descriptor file: %w", err)
	}
	if len(descriptor) == 0 {
		// A face box without a descriptor keeps the scan running.
		return Detection{FaceFound: true}, nil
	}
	return Detection{FaceFound: true, Signature: Signature(descriptor)}, nil
}
