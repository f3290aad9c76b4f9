package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/state"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const (
	sessionKeyPrefix = "storefront:session:"
	maxUpdateRetries = 10
)

// SessionRepository implements repository.SessionRepository using Redis.
// Containers are stored as JSON with a sliding TTL refreshed on every update.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a session container from Redis.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*state.Container, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", sessionID)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decode(data)
}

// Update applies fn inside an optimistic WATCH/MULTI transaction and retries
// when another writer changed the session in between.
func (r *SessionRepository) Update(ctx context.Context, sessionID string, fn func(*state.Container) error) (*state.Container, error) {
	key := sessionKeyPrefix + sessionID

	var committed *state.Container
	txf := func(tx *redis.Tx) error {
		c := state.New()
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if c, err = decode(data); err != nil {
				return err
			}
		case !errors.Is(err, redis.Nil):
			return fmt.Errorf("redis get session: %w", err)
		}

		if err := fn(c); err != nil {
			return err
		}

		c.UpdatedAt = time.Now().UTC()
		out, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		committed = c
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return committed, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, apperrors.Conflict("session is being updated concurrently")
}

// Delete removes a session container from Redis.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func decode(data []byte) (*state.Container, error) {
	c := state.New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return c, nil
}
