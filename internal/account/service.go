// Package account backs the authenticated account view: profile and
// balance, transaction history, and transfer origination. Transfers it
// prepares still have to pass the authorization flow before submission.
package account

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/aura-bank/aurabank/internal/api"
	"github.com/aura-bank/aurabank/internal/authorize"
	"github.com/aura-bank/aurabank/internal/guard"
)

// Ledger is the slice of the remote service the account view needs.
type Ledger interface {
	GetUser(ctx context.Context, userID string) (api.User, error)
	GetTransactions(ctx context.Context, userID string) ([]api.Transaction, error)
}

// Overview is everything the dashboard renders.
type Overview struct {
	User         api.User
	Transactions []api.Transaction
}

// Service reads account state for the current session.
type Service struct {
	ledger Ledger
	guard  guard.Guard
	logger *slog.Logger
}

// NewService creates an account service.
func NewService(ledger Ledger, g guard.Guard, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{ledger: ledger, guard: g, logger: logger}
}

// Overview fetches the profile and transaction history for the current
// session. A history failure degrades to an empty list; the profile alone
// is still an overview. No session means the caller redirects to login.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	userID, err := s.guard.Require(ctx)
	if err != nil {
		return Overview{}, err
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	txs, err := s.ledger.GetTransactions(ctx, userID)
	if err != nil {
		s.logger.Warn("fetch transaction history", "error", err)
		txs = nil
	}

	return Overview{User: user, Transactions: txs}, nil
}

// PrepareTransfer validates the transfer form and produces the pending
// transfer the authorization flow consumes.
func (s *Service) PrepareTransfer(recipient string, amount float64) (authorize.PendingTransfer, error) {
	transfer := authorize.PendingTransfer{
		Recipient: strings.TrimSpace(recipient),
		Amount:    amount,
	}
	if err := transfer.Validate(); err != nil {
		return authorize.PendingTransfer{}, err
	}
	return transfer, nil
}
