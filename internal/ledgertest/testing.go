package ledgertest

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser describes an account to preload into the fake ledger.
type SeedUser struct {
	Name          string
	Username      string
	Email         string
	Password      string
	PhoneNumber   string
	AccountNumber string
	Balance       float64
	Descriptor    []float64
}

// Seed inserts a user and returns its id.
func (s *Server) Seed(u SeedUser) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := &userRecord{
		ID:            uuid.NewString(),
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		PhoneNumber:   u.PhoneNumber,
		AccountNumber: u.AccountNumber,
		PasswordHash:  hash,
		Descriptor:    append([]float64(nil), u.Descriptor...),
		Balance:       u.Balance,
	}
	s.usersByID[user.ID] = user
	return user.ID
}

// Balance reads a user's current balance.
func (s *Server) Balance(userID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.usersByID[userID]; ok {
		return u.Balance
	}
	return 0
}

// TransferCount reports how many transactions the user has, useful for
// asserting that duplicate submissions never happened.
func (s *Server) TransferCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions[userID])
}
