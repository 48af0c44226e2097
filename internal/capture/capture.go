// Package capture owns the biometric capture loop: it acquires a camera
// stream and samples it on an interval until exactly one complete facial
// signature is produced, then stops for good.
package capture

import (
	"context"
	"errors"
)

// ErrPermissionDenied reports that the user refused camera access. It is
// terminal for the capture attempt; retrying requires a fresh user action.
var ErrPermissionDenied = errors.New("camera permission denied")

// Signature is the fixed-length numeric descriptor the detector extracts
// from one frame. It is either absent or fully populated; partial
// detections never surface as a Signature.
type Signature []float64

// Frame is one sampled video frame.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// Detection is the result of running the detector over a single frame. A
// face may be found without a usable signature (landmarks only); both cases
// keep the scan running.
type Detection struct {
	FaceFound bool
	Signature Signature
}

// Complete reports whether the detection carries a full signature.
func (d Detection) Complete() bool {
	return d.FaceFound && len(d.Signature) > 0
}

// Stream is a live camera feed. Close releases the device and must be safe
// to call exactly once per Open.
type Stream interface {
	Frame(ctx context.Context) (Frame, error)
	Close() error
}

// Camera grants access to a video device. Open errors wrap
// ErrPermissionDenied when the user refused access.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Detector extracts at most one facial signature from a frame.
type Detector interface {
	Detect(ctx context.Context, frame Frame) (Detection, error)
}
