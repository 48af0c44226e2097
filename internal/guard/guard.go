// Package guard gates access to authenticated views. Presence of a stored
// session identifier is the sole criterion; absence is the normal logged-out
// state, not an error.
package guard

import (
	"context"
	"errors"

	"github.com/aura-bank/aurabank/internal/session"
)

// ErrNotAuthenticated signals that the caller must redirect to the login flow.
var ErrNotAuthenticated = errors.New("not authenticated")

// Guard checks the persisted session state.
type Guard struct {
	store session.Store
}

// New creates a guard over the given session store.
func New(store session.Store) Guard {
	return Guard{store: store}
}

// Authorized reports whether a session identifier is currently stored. It
// has no side effects; a store failure reads as unauthorized.
func (g Guard) Authorized(ctx context.Context) bool {
	_, err := g.store.Load(ctx)
	return err == nil
}

// Require returns the session identifier, or ErrNotAuthenticated when no
// session exists. Store failures are returned as-is.
func (g Guard) Require(ctx context.Context) (string, error) {
	id, err := g.store.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return "", ErrNotAuthenticated
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
