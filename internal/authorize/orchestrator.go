// Package authorize drives the dual-mode transfer authorization flow: given
// a pending transfer, collect exactly one authorization attempt (password or
// face), submit it once, and report a single outcome. Business failures
// return the flow to method selection; closing the flow discards the
// transfer.
package authorize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aura-bank/aurabank/internal/api"
	"github.com/aura-bank/aurabank/internal/capture"
)

// ErrCancelled reports that the user closed the authorization flow. The
// pending transfer is discarded.
var ErrCancelled = errors.New("authorization cancelled")

// Method selects how a transfer is authorized.
type Method int

const (
	MethodPassword Method = iota + 1
	MethodFace
)

// Attempt is the tagged union of authorization evidence. Exactly one
// variant is ever populated; the constructors are the only way to build one.
type Attempt struct {
	method    Method
	password  string
	signature capture.Signature
}

// PasswordAttempt builds a password-backed attempt.
func PasswordAttempt(password string) Attempt {
	return Attempt{method: MethodPassword, password: password}
}

// FaceAttempt builds a biometric attempt from a captured signature.
func FaceAttempt(sig capture.Signature) Attempt {
	return Attempt{method: MethodFace, signature: sig}
}

// Method reports which variant the attempt carries.
func (a Attempt) Method() Method {
	return a.method
}

// PendingTransfer is a transfer awaiting authorization. It is consumed by
// exactly one Authorize call.
type PendingTransfer struct {
	Recipient string
	Amount    float64
}

// Validate enforces the transfer invariants before any authorization work.
func (p PendingTransfer) Validate() error {
	if p.Recipient == "" {
		return fmt.Errorf("recipient account number is required")
	}
	if p.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// State is the orchestrator's observable phase.
type State int

const (
	StateMethodSelect State = iota
	StatePasswordEntry
	StateBiometricCapture
	StateSubmitting
	StateSucceeded
	StateClosed
)

// Prompter is the UI seam the orchestrator collects input through. Any
// prompt may return ErrCancelled to close the flow.
type Prompter interface {
	Method(ctx context.Context) (Method, error)
	Password(ctx context.Context) (string, error)
	Notify(message string)
}

// Capturer runs one biometric capture invocation.
type Capturer interface {
	Run(ctx context.Context) (capture.Signature, error)
}

// Ledger is the slice of the remote service the orchestrator needs.
type Ledger interface {
	Transfer(ctx context.Context, sessionID, idempotencyKey string, in api.TransferInput) (api.TransferResult, error)
}

// Outcome is a successfully authorized transfer.
type Outcome struct {
	Message    string
	NewBalance float64
}

// Orchestrator runs the authorization flow for pending transfers.
type Orchestrator struct {
	ledger   Ledger
	capturer Capturer
	prompter Prompter
	logger   *slog.Logger

	state State
}

// New creates an orchestrator. The capturer is invoked once per biometric
// attempt; the prompter owns all user interaction.
func New(ledger Ledger, capturer Capturer, prompter Prompter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		ledger:   ledger,
		capturer: capturer,
		prompter: prompter,
		logger:   logger,
		state:    StateMethodSelect,
	}
}

// State returns the orchestrator's current phase.
func (o *Orchestrator) State() State {
	return o.state
}

// Authorize collects one authorization attempt for the transfer and submits
// it. On a declared failure the server's message is shown and the flow
// returns to method selection; on transport errors a generic message is
// shown instead. Exactly one transfer request is sent per completed
// attempt, each under a fresh idempotency key, and a submitted request is
// never retracted.
func (o *Orchestrator) Authorize(ctx context.Context, sessionID string, transfer PendingTransfer) (Outcome, error) {
	if err := transfer.Validate(); err != nil {
		return Outcome{}, err
	}

	o.prompter.Notify("Please confirm your identity to send money.")

	for {
		o.state = StateMethodSelect
		method, err := o.prompter.Method(ctx)
		if err != nil {
			return Outcome{}, o.close(err)
		}

		attempt, err := o.collect(ctx, method)
		if err != nil {
			if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
				return Outcome{}, o.close(err)
			}
			// Capture failures (permission refusal, dead stream) report and
			// return to method selection for a manual retry.
			o.prompter.Notify(captureFailureMessage(err))
			continue
		}

		o.state = StateSubmitting
		outcome, err := o.submit(ctx, sessionID, transfer, attempt)
		if err == nil {
			o.state = StateSucceeded
			return outcome, nil
		}
		if errors.Is(err, ErrCancelled) {
			return Outcome{}, o.close(err)
		}

		var bizErr *api.BusinessError
		if errors.As(err, &bizErr) {
			o.prompter.Notify(bizErr.Message)
			continue
		}

		o.logger.Warn("transfer authorization failed", "error", err)
		o.prompter.Notify("Transaction failed. Please try again.")
	}
}

func (o *Orchestrator) collect(ctx context.Context, method Method) (Attempt, error) {
	switch method {
	case MethodPassword:
		o.state = StatePasswordEntry
		password, err := o.prompter.Password(ctx)
		if err != nil {
			return Attempt{}, err
		}
		return PasswordAttempt(password), nil
	case MethodFace:
		o.state = StateBiometricCapture
		sig, err := o.capturer.Run(ctx)
		if err != nil {
			return Attempt{}, err
		}
		o.prompter.Notify("Face recognized. Authorizing...")
		return FaceAttempt(sig), nil
	default:
		return Attempt{}, fmt.Errorf("unknown authorization method %d", method)
	}
}

// submit issues the single outbound request for a completed attempt. The
// request context is detached from UI cancellation: an in-flight request is
// allowed to complete, and its result is discarded if the flow was closed
// meanwhile.
func (o *Orchestrator) submit(ctx context.Context, sessionID string, transfer PendingTransfer, attempt Attempt) (Outcome, error) {
	in := api.TransferInput{
		RecipientAccountNumber: transfer.Recipient,
		Amount:                 transfer.Amount,
	}
	switch attempt.method {
	case MethodPassword:
		in.AuthType = api.AuthTypePassword
		in.AuthToken = attempt.password
	case MethodFace:
		in.AuthType = api.AuthTypeFace
		in.AuthToken = []float64(attempt.signature)
	}

	key := uuid.NewString()
	res, err := o.ledger.Transfer(context.WithoutCancel(ctx), sessionID, key, in)
	if ctx.Err() != nil {
		return Outcome{}, ErrCancelled
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: res.Message, NewBalance: res.NewBalance}, nil
}

func (o *Orchestrator) close(err error) error {
	o.state = StateClosed
	if err == nil || errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return err
}

func captureFailureMessage(err error) string {
	if errors.Is(err, capture.ErrPermissionDenied) {
		return "Webcam access denied. Please allow permissions."
	}
	return "Face scan failed. Please try again."
}
