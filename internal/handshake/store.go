package handshake

import (
	"context"
	"sync"
	"time"
)

// Store tracks OAuth round-trip state payloads so each one is consumed
// exactly once. The payload itself is self-contained and signed; the
// store only remembers which ids have already come back.
type Store interface {
	// Consume marks the state id as used. It returns false when the id
	// was consumed before, which callers must treat as a replay.
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// MemoryStore is a process-local Store used in development and tests.
// It is not suitable behind multiple gateway instances.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]time.Time)}
}

func (m *MemoryStore) Consume(_ context.Context, id string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for k, exp := range m.seen {
		if now.After(exp) {
			delete(m.seen, k)
		}
	}

	if _, ok := m.seen[id]; ok {
		return false, nil
	}

	m.seen[id] = now.Add(ttl)
	return true, nil
}
