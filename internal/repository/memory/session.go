package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/state"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type entry struct {
	container *state.Container
	expiresAt time.Time
}

// SessionRepository is an in-process repository.SessionRepository. It is
// meant for a single instance; use the redis repository when running more.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
	nowFunc  func() time.Time
}

// NewSessionRepository creates an in-memory repository. A zero ttl keeps
// sessions forever.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]entry),
		ttl:      ttl,
		nowFunc:  time.Now,
	}
}

// Get returns a copy of the stored container.
func (r *SessionRepository) Get(_ context.Context, sessionID string) (*state.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.lookup(sessionID)
	if !ok {
		return nil, apperrors.NotFound("session", sessionID)
	}
	return e.container.Clone(), nil
}

// Update runs fn on a copy of the container under the repository lock.
func (r *SessionRepository) Update(ctx context.Context, sessionID string, fn func(*state.Container) error) (*state.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := state.New()
	if e, ok := r.lookup(sessionID); ok {
		c = e.container.Clone()
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	now := r.nowFunc()
	c.UpdatedAt = now.UTC()
	e := entry{container: c}
	if r.ttl > 0 {
		e.expiresAt = now.Add(r.ttl)
	}
	r.sessions[sessionID] = e

	return c.Clone(), nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	return nil
}

// lookup must be called with mu held. Expired entries are evicted lazily.
func (r *SessionRepository) lookup(sessionID string) (entry, bool) {
	e, ok := r.sessions[sessionID]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !r.nowFunc().Before(e.expiresAt) {
		delete(r.sessions, sessionID)
		return entry{}, false
	}
	return e, true
}
