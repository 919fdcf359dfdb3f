package store

import (
	"context"
	"sync"
)

// MemoryRepo is a ports.KVRepo that lives only in process memory.
// main falls back to it when no database is configured.
type MemoryRepo struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{buckets: make(map[string]map[string][]byte)}
}

func (m *MemoryRepo) LoadBucket(_ context.Context, bucket string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte, len(m.buckets[bucket]))
	for k, v := range m.buckets[bucket] {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (m *MemoryRepo) Put(_ context.Context, bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[bucket] = b
	}
	b[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}

func (m *MemoryRepo) DeleteBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets, bucket)
	return nil
}
