package objectstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used by tests and local dry runs.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMem returns an empty in-memory store.
func NewMem() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func (m *MemStore) Walk(_ context.Context, prefix string, fn func(key string) error) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	for _, key := range keys {
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemStore) ListDirs(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	seen := make(map[string]struct{})
	for key := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if idx := strings.Index(rest, "/"); idx > 0 {
			seen[rest[:idx]] = struct{}{}
		}
	}
	m.mu.RUnlock()

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (m *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	return cp, nil
}

func (m *MemStore) Put(_ context.Context, key string, body []byte, _, _ string) error {
	cp := make([]byte, len(body))
	copy(cp, body)
	m.mu.Lock()
	m.objects[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemStore) PublicURL(key string) string {
	return "mem://" + key
}

// Len reports the number of stored objects.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
