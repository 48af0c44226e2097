package identity

import (
	"context"
	"testing"

	"github.com/aura-bank/aurabank/internal/capture"
	"github.com/aura-bank/aurabank/internal/ledgertest"
)

func TestEnrollmentRequiresExplicitConfirmation(t *testing.T) {
	svc, ledger, store := setupService(t)
	ctx := context.Background()

	userID := ledger.Seed(ledgertest.SeedUser{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", AccountNumber: "AC001",
	})
	if err := store.Save(ctx, userID); err != nil {
		t.Fatalf("save session: %v", err)
	}

	descriptor := capture.Signature{0.1, 0.2, 0.3}
	enrollment, err := svc.CaptureForEnrollment(ctx, &stubCapturer{sig: descriptor})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !enrollment.Armed() {
		t.Fatalf("expected armed enrollment after capture")
	}

	// Capture alone must not have enrolled anything: face login still fails.
	if _, err := svc.LoginFace(ctx, "alice", &stubCapturer{sig: descriptor}); err == nil {
		t.Fatalf("expected face login to fail before explicit enroll")
	}

	msg, err := svc.Enroll(ctx, enrollment)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if msg == "" {
		t.Fatalf("expected confirmation message")
	}
	if enrollment.Armed() {
		t.Fatalf("expected signature discarded after submission")
	}

	if _, err := svc.LoginFace(ctx, "alice", &stubCapturer{sig: descriptor}); err != nil {
		t.Fatalf("face login after enrollment: %v", err)
	}
}

func TestEnrollWithoutSession(t *testing.T) {
	svc, _, _ := setupService(t)

	enrollment, err := svc.CaptureForEnrollment(context.Background(), &stubCapturer{sig: capture.Signature{1}})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if _, err := svc.Enroll(context.Background(), enrollment); err == nil {
		t.Fatalf("expected error enrolling without a session")
	}
}

func TestEnrollWithoutCapture(t *testing.T) {
	svc, _, _ := setupService(t)

	if _, err := svc.Enroll(context.Background(), nil); err == nil {
		t.Fatalf("expected error with nil enrollment")
	}
	if _, err := svc.Enroll(context.Background(), &Enrollment{}); err == nil {
		t.Fatalf("expected error with empty enrollment")
	}
}
