package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const guardKeyPrefix = "storefront:toggle:"

// releaseScript deletes the guard key only if it still holds our token, so an
// expired guard re-acquired by another request is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ToggleGuard implements repository.ToggleGuard with SET NX keys shared by
// every storefront instance. The key TTL bounds how long a crashed toggle can
// block its product.
type ToggleGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewToggleGuard(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ToggleGuard {
	return &ToggleGuard{client: client, ttl: ttl, logger: logger}
}

func (g *ToggleGuard) Acquire(ctx context.Context, sessionID, productID string) (func(), bool, error) {
	key := guardKeyPrefix + sessionID + ":" + productID
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis acquire toggle guard: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The request context may already be cancelled by the time we release.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(rctx, g.client, []string{key}, token).Err(); err != nil {
			g.logger.WarnContext(rctx, "failed to release toggle guard",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return release, true, nil
}
