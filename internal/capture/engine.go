package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// State is the capture engine's observable phase.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateScanning
	StateCaptured
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateScanning:
		return "scanning"
	case StateCaptured:
		return "captured"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const defaultInterval = 500 * time.Millisecond

// Engine drives one capture invocation: open the camera, scan on an
// interval, hand back the first complete signature, release everything.
type Engine struct {
	camera   Camera
	detector Detector
	interval time.Duration
	logger   *slog.Logger
	onStatus func(string)

	mu    sync.Mutex
	state State
}

// Option customizes an Engine.
type Option func(*Engine)

// WithInterval sets the scan interval. Ticks never overlap: the next tick
// is armed only after the previous detection completes.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStatusFunc registers a callback for user-facing status messages.
func WithStatusFunc(fn func(string)) Option {
	return func(e *Engine) {
		e.onStatus = fn
	}
}

// NewEngine creates a capture engine over the given camera and detector.
func NewEngine(camera Camera, detector Detector, opts ...Option) *Engine {
	e := &Engine{
		camera:   camera,
		detector: detector,
		interval: defaultInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine's current phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State, status string) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.logger.Debug("capture state", "state", s.String())
	if status != "" && e.onStatus != nil {
		e.onStatus(status)
	}
}

// Run performs one capture invocation. It blocks until a complete signature
// is captured, the camera is refused, the stream dies, or ctx is cancelled.
// At most one signature is ever returned per invocation: the scan timer is
// stopped before Run returns, so no further frames are processed. The
// engine imposes no timeout of its own; bound the attempt through ctx.
func (e *Engine) Run(ctx context.Context) (Signature, error) {
	e.setState(StateAcquiring, "Requesting camera access...")

	stream, err := e.camera.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			e.setState(StateFailed, "Webcam access denied. Please allow permissions.")
		} else {
			e.setState(StateFailed, "Webcam error. Please allow permissions.")
		}
		return nil, fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			e.logger.Warn("close camera stream", "error", err)
		}
	}()

	e.setState(StateScanning, "Please position your face in the center.")

	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.setState(StateFailed, "Scan cancelled.")
			return nil, ctx.Err()
		case <-timer.C:
		}

		sig, err := e.tick(ctx, stream)
		if err != nil {
			return nil, err
		}
		if sig != nil {
			e.setState(StateCaptured, "Face captured.")
			return sig, nil
		}

		// Re-arm only after the detection finished so ticks stay strictly
		// sequential.
		timer.Reset(e.interval)
	}
}

// tick samples one frame and runs detection. A nil signature with nil error
// means "keep scanning".
func (e *Engine) tick(ctx context.Context, stream Stream) (Signature, error) {
	frame, err := stream.Frame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			e.setState(StateFailed, "Scan cancelled.")
			return nil, ctx.Err()
		}
		e.setState(StateFailed, "Webcam error. Please try again.")
		return nil, fmt.Errorf("read frame: %w", err)
	}

	det, err := e.detector.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			e.setState(StateFailed, "Scan cancelled.")
			return nil, ctx.Err()
		}
		// Detector hiccups are transient non-results; the loop continues.
		e.logger.Debug("detector error", "error", err)
		return nil, nil
	}

	switch {
	case det.Complete():
		return det.Signature, nil
	case det.FaceFound:
		// Landmarks without a descriptor: keep scanning.
		return nil, nil
	default:
		if e.onStatus != nil {
			e.onStatus("Detecting face...")
		}
		return nil, nil
	}
}
