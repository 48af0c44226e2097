// Package identity holds the session-producing flows: registration,
// password login, biometric login and face enrollment. These flows are the
// only writers of the persisted session identifier.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode"

	"github.com/aura-bank/aurabank/internal/api"
	"github.com/aura-bank/aurabank/internal/capture"
	"github.com/aura-bank/aurabank/internal/session"
)

// ErrUsernameRequired reports a biometric login started without a username.
// The capture never begins: the signature alone cannot tell the verifier
// which enrolled descriptor to compare against.
var ErrUsernameRequired = errors.New("username required before face login")

// MsgUsernameRequired is the user-facing wording for ErrUsernameRequired.
const MsgUsernameRequired = "Please enter your username first."

// Ledger is the slice of the remote service the identity flows need.
type Ledger interface {
	Register(ctx context.Context, in api.RegisterInput) (api.AuthResult, error)
	Login(ctx context.Context, username, password string) (api.AuthResult, error)
	LoginFace(ctx context.Context, username string, descriptor []float64) (api.AuthResult, error)
	EnrollFace(ctx context.Context, sessionID string, descriptor []float64) (string, error)
}

// Capturer runs one biometric capture invocation.
type Capturer interface {
	Run(ctx context.Context) (capture.Signature, error)
}

// Service manages the identity lifecycle on the client side.
type Service struct {
	ledger   Ledger
	sessions session.Store
	logger   *slog.Logger
}

// NewService creates an identity service.
func NewService(ledger Ledger, sessions session.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{ledger: ledger, sessions: sessions, logger: logger}
}

// RegistrationInput is the registration form payload.
type RegistrationInput struct {
	Name            string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
	AccountNumber   string
}

// ValidatePassword enforces the local password policy: 8 to 16 characters
// with at least one uppercase letter, one lowercase letter and one
// non-alphanumeric character. Digits are allowed but neither required nor
// counted as special.
func ValidatePassword(password string) error {
	runes := []rune(password)
	if len(runes) < 8 || len(runes) > 16 {
		return fmt.Errorf("password must be 8 to 16 characters long")
	}

	var hasUpper, hasLower, hasSpecial bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasSpecial {
		return fmt.Errorf("password must include at least one uppercase letter, one lowercase letter, and one special character")
	}
	return nil
}

// Register validates the form locally, creates the account remotely and
// stores the returned session identifier. On success the caller proceeds to
// face enrollment, not the dashboard: face setup is a required next step.
func (s *Service) Register(ctx context.Context, in RegistrationInput) (api.AuthResult, error) {
	if in.Password != in.ConfirmPassword {
		return api.AuthResult{}, fmt.Errorf("passwords do not match")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return api.AuthResult{}, err
	}

	res, err := s.ledger.Register(ctx, api.RegisterInput{
		Name:          in.Name,
		Username:      in.Username,
		Email:         in.Email,
		Password:      in.Password,
		PhoneNumber:   in.PhoneNumber,
		AccountNumber: in.AccountNumber,
	})
	if err != nil {
		return api.AuthResult{}, err
	}

	if err := s.sessions.Save(ctx, res.UserID); err != nil {
		return api.AuthResult{}, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("registered", "user_id", res.UserID)
	return res, nil
}

// Login authenticates with username and password and stores the session
// identifier.
func (s *Service) Login(ctx context.Context, username, password string) (api.AuthResult, error) {
	res, err := s.ledger.Login(ctx, username, password)
	if err != nil {
		return api.AuthResult{}, err
	}
	if err := s.sessions.Save(ctx, res.UserID); err != nil {
		return api.AuthResult{}, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("logged in", "user_id", res.UserID)
	return res, nil
}

// LoginFace authenticates by live capture. The username must be supplied
// before any capture starts; on a captured signature the pair
// {username, signature} is submitted and the session stored on success. A
// failed verification leaves the capture already torn down (the engine
// stops on its first signature) and surfaces the server's message.
func (s *Service) LoginFace(ctx context.Context, username string, capturer Capturer) (api.AuthResult, error) {
	if username == "" {
		return api.AuthResult{}, ErrUsernameRequired
	}

	sig, err := capturer.Run(ctx)
	if err != nil {
		return api.AuthResult{}, err
	}

	res, err := s.ledger.LoginFace(ctx, username, sig)
	if err != nil {
		return api.AuthResult{}, err
	}
	if err := s.sessions.Save(ctx, res.UserID); err != nil {
		return api.AuthResult{}, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("logged in by face", "user_id", res.UserID)
	return res, nil
}

// Logout clears the stored session.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}
