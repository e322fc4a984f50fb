package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]memoryItem
	maxItems int
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store bounded to maxItems entries.
func NewMemoryStore(maxItems int) *MemoryStore {
	if maxItems <= 0 {
		maxItems = 10000
	}
	return &MemoryStore{
		items:    make(map[string]memoryItem),
		maxItems: maxItems,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, false, nil
	}
	return item.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) >= s.maxItems {
		s.evictOldest()
	}
	s.items[key] = memoryItem{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	values := make([][]byte, len(keys))
	for i, key := range keys {
		if item, ok := s.items[key]; ok && now.Before(item.expiresAt) {
			values[i] = item.value
		}
	}
	return values, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// evictOldest drops the entry closest to expiry. Caller holds the lock.
func (s *MemoryStore) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, item := range s.items {
		if oldestKey == "" || item.expiresAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = item.expiresAt
		}
	}
	if oldestKey != "" {
		delete(s.items, oldestKey)
	}
}
