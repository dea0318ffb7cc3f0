package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a process-local revocation list for tests and
// single-instance deployments without Redis.
type InMemoryTRL struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{expires: make(map[string]time.Time)}
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expires[jti] = time.Now().Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.RLock()
	exp, ok := t.expires[jti]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		t.mu.Lock()
		delete(t.expires, jti)
		t.mu.Unlock()
		return false, nil
	}
	return true, nil
}
