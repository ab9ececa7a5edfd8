package session

import (
	"context"
	"sync"
	"time"
)

// UpdateFunc computes the next snapshot from the current one.
type UpdateFunc func(Snapshot) (Snapshot, error)

// Store holds snapshots. Update must apply fn atomically with respect to
// other updates of the same session; a missing session is passed to fn as a
// fresh idle snapshot.
type Store interface {
	Get(ctx context.Context, id string) (Snapshot, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Entries expire ttl after their
// last update; expired entries are swept on writes at most once per ttl.
type MemoryStore struct {
	mu        sync.Mutex
	data      map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(id)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return entry.snap, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()

	current := NewSnapshot(id, m.now())
	if entry, ok := m.lookup(id); ok {
		current = entry.snap
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}
	m.data[id] = memoryEntry{snap: next, expiresAt: m.now().Add(m.ttl)}
	return next, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// sweep drops every expired entry. Must be called with mu held.
func (m *MemoryStore) sweep() {
	now := m.now()
	if now.Sub(m.lastSweep) < m.ttl {
		return
	}
	m.lastSweep = now
	for id, entry := range m.data {
		if now.After(entry.expiresAt) {
			delete(m.data, id)
		}
	}
}

// lookup must be called with mu held.
func (m *MemoryStore) lookup(id string) (memoryEntry, bool) {
	entry, ok := m.data[id]
	if !ok {
		return memoryEntry{}, false
	}
	if m.now().After(entry.expiresAt) {
		delete(m.data, id)
		return memoryEntry{}, false
	}
	return entry, true
}
