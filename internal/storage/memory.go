package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process backend. With a quota it behaves like browser
// local storage: writes that push the total size over the limit fail.
type Memory struct {
	mu    sync.RWMutex
	items map[string]Record
	quota int
	used  int
	now   func() time.Time
}

// MemoryOption customises a Memory backend.
type MemoryOption func(*Memory)

// WithQuota caps the total bytes of keys plus values.
func WithQuota(bytes int) MemoryOption {
	return func(m *Memory) { m.quota = bytes }
}

// WithClock overrides the clock used for UpdatedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory builds an empty in-memory backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: make(map[string]Record), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get implements KV.
func (m *Memory) Get(_ context.Context, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.items[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Value = append([]byte(nil), rec.Value...)
	return rec, nil
}

// Put implements KV.
func (m *Memory) Put(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.items[key]
	if err := checkRevision(key, current.Revision, exists, expected); err != nil {
		return 0, err
	}
	used := m.used + len(key) + len(value)
	if exists {
		used -= len(key) + len(current.Value)
	}
	if m.quota > 0 && used > m.quota {
		return 0, fmt.Errorf("%w: %d bytes over a %d byte limit", ErrQuotaExceeded, used, m.quota)
	}
	rec := Record{
		Value:     append([]byte(nil), value...),
		Revision:  current.Revision + 1,
		UpdatedAt: m.now().UTC(),
	}
	m.items[key] = rec
	m.used = used
	return rec.Revision, nil
}

// Delete implements KV.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[key]
	if !ok {
		return ErrNotFound
	}
	m.used -= len(key) + len(rec.Value)
	delete(m.items, key)
	return nil
}

// Keys implements KV.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements KV.
func (m *Memory) Close() error { return nil }
