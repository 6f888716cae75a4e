package cache

import (
	"context"
	"sync"
	"time"

	"question-paper-rag/internal/models"
)

// MemoryStore keeps entries in process memory. Used when no persistent
// cache is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]models.CacheEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]models.CacheEntry{}}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	e.UsedCount++
	m.entries[key] = e
	return &e, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, question models.AssembledQuestion, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = models.CacheEntry{
		Key:         key,
		Fingerprint: fingerprint,
		Question:    question,
		CreatedAt:   time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
