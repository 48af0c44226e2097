package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDetectorWaitsForDescriptor(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "descriptor.json")
	detector := FileDetector{Path: path}

	det, err := detector.Detect(ctx, Frame{})
	if err != nil {
		t.Fatalf("detect without file: %v", err)
	}
	if det.FaceFound || det.Complete() {
		t.Fatalf("expected no detection before the file exists, got %+v", det)
	}

	if err := os.WriteFile(path, []byte("[0.25, -0.5, 1.0]"), 0o600); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	det, err = detector.Detect(ctx, Frame{})
	if err != nil {
		t.Fatalf("detect with file: %v", err)
	}
	if !det.Complete() {
		t.Fatalf("expected complete detection, got %+v", det)
	}
	if len(det.Signature) != 3 || det.Signature[1] != -0.5 {
		t.Fatalf("unexpected signature %v", det.Signature)
	}
}

func TestFileDetectorEmptyDescriptorKeepsScanning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "descriptor.json")
	if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	det, err := FileDetector{Path: path}.Detect(context.Background(), Frame{})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !det.FaceFound || det.Complete() {
		t.Fatalf("expected face without signature, got %+v", det)
	}
}

func TestStaticCameraStreamLifecycle(t *testing.T) {
	stream, err := StaticCamera{}.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	frame, err := stream.Frame(context.Background())
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if frame.Width == 0 || frame.Height == 0 {
		t.Fatalf("expected non-zero frame dimensions, got %+v", frame)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := stream.Frame(context.Background()); err == nil {
		t.Fatalf("expected error reading from closed stream")
	}
}
