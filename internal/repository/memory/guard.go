package memory

import (
	"context"
	"sync"
)

// ToggleGuard is an in-process repository.ToggleGuard.
type ToggleGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewToggleGuard() *ToggleGuard {
	return &ToggleGuard{inFlight: make(map[string]struct{})}
}

func (g *ToggleGuard) Acquire(_ context.Context, sessionID, productID string) (func(), bool, error) {
	key := sessionID + "\x00" + productID

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[key]; busy {
		return nil, false, nil
	}
	g.inFlight[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}
	return release, true, nil
}
