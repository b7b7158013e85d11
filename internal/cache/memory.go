package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
)

// MemoryStore is a process-local SessionStore. Entries are stored encoded so
// callers never share a state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	updatedAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*models.SessionState, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	var state models.SessionState
	if err := json.Unmarshal(e.data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *MemoryStore) Save(_ context.Context, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[state.ID] = memoryEntry{data: data, updatedAt: state.UpdatedAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// PurgeStale drops sessions last written before the cutoff.
func (m *MemoryStore) PurgeStale(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, e := range m.entries {
		if e.updatedAt.Before(before) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}
