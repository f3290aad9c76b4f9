package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/state"
)

// SessionRepository persists one state container per shopper session.
type SessionRepository interface {
	// Get returns the container for the session, or a NotFound error when the
	// session has no stored state.
	Get(ctx context.Context, sessionID string) (*state.Container, error)

	// Update applies fn to the session's container and stores the result. A
	// missing session starts from an empty container. If fn returns an error
	// nothing is stored. Concurrent updates to one session are serialized so
	// each partition commit sees the latest state.
	Update(ctx context.Context, sessionID string, fn func(*state.Container) error) (*state.Container, error)

	// Delete removes the session's container.
	Delete(ctx context.Context, sessionID string) error
}

// ToggleGuard marks a wishlist toggle as in flight for one (session, product)
// pair so that a duplicate toggle is rejected instead of racing the first.
type ToggleGuard interface {
	// Acquire returns ok=false when a toggle for the pair is already running.
	// On success the caller must invoke release once the toggle completes.
	Acquire(ctx context.Context, sessionID, productID string) (release func(), ok bool, err error)
}
