package registry

import (
	"context"
	"sort"
	"sync"
)

// MemoryRegistry keeps subscribers in process memory. Used when no SQLite path is configured.
type MemoryRegistry struct {
	mu      sync.RWMutex
	aliases map[int64]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{aliases: make(map[int64]string)}
}

func (m *MemoryRegistry) ListRecipients(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.aliases))
	for id := range m.aliases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemoryRegistry) UpsertAlias(_ context.Context, id int64, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[id] = alias
	return nil
}

func (m *MemoryRegistry) GetAlias(_ context.Context, id int64) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alias, ok := m.aliases[id]
	if !ok || alias == "" {
		return "", false, nil
	}
	return alias, true, nil
}

func (m *MemoryRegistry) Close() error { return nil }
