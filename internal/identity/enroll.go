package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aura-bank/aurabank/internal/capture"
	"github.com/aura-bank/aurabank/internal/session"
)

// Enrollment holds a captured signature awaiting the user's explicit
// confirmation. Unlike authentication, capture completion does not submit
// anything: enrollment is deliberate.
type Enrollment struct {
	signature capture.Signature
}

// Armed reports whether a signature is held and ready to enroll.
func (e *Enrollment) Armed() bool {
	return e != nil && len(e.signature) > 0
}

// CaptureForEnrollment runs one capture invocation and arms an Enrollment
// with the result. Nothing is sent to the server yet.
func (s *Service) CaptureForEnrollment(ctx context.Context, capturer Capturer) (*Enrollment, error) {
	sig, err := capturer.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Enrollment{signature: sig}, nil
}

// Enroll submits the armed signature under the current session. The
// signature is discarded afterwards regardless of outcome; it is never
// retained beyond the attempt.
func (s *Service) Enroll(ctx context.Context, enr *Enrollment) (string, error) {
	if !enr.Armed() {
		return "", fmt.Errorf("no face captured")
	}

	sessionID, err := s.sessions.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return "", fmt.Errorf("enrollment requires an authenticated session")
		}
		return "", err
	}

	sig := enr.signature
	enr.signature = nil

	msg, err := s.ledger.EnrollFace(ctx, sessionID, sig)
	if err != nil {
		return "", err
	}
	s.logger.Info("face enrolled")
	return msg, nil
}
