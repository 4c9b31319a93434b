package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	userID int64
	exp    time.Time
}

// MemoryBackend keeps sessions in process memory. Expired entries are
// dropped when they are next read.
type MemoryBackend struct {
	mu sync.RWMutex
	m  map[string]entry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{m: make(map[string]entry)}
}

func (b *MemoryBackend) Save(ctx context.Context, key string, userID int64, ttl time.Duration) error {
	b.mu.Lock()
	b.m[key] = entry{userID: userID, exp: time.Now().Add(ttl)}
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Load(ctx context.Context, key string) (int64, error) {
	now := time.Now()
	b.mu.RLock()
	e, ok := b.m[key]
	b.mu.RUnlock()
	if !ok {
		return 0, ErrNoSession
	}

	if now.After(e.exp) {
		b.mu.Lock()
		delete(b.m, key)
		b.mu.Unlock()
		return 0, ErrNoSession
	}

	return e.userID, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.m[key]; !ok {
		return ErrNoSession
	}

	delete(b.m, key)
	return nil
}

func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.m)
}
