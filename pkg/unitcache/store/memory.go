package store

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory record store.
// Data is lost when the process exits; intended for tests and for callers
// who want store semantics without durability.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	closed  bool
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy the blob to avoid retaining the caller's slice.
	if rec.State != nil {
		state := make([]byte, len(rec.State))
		copy(state, rec.State)
		rec.State = state
	}

	m.records[rec.UID] = rec
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(uid string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	rec, ok := m.records[uid]
	if !ok {
		return Record{}, ErrNotFound
	}

	// Return a copy of the blob to prevent modification.
	if rec.State != nil {
		state := make([]byte, len(rec.State))
		copy(state, rec.State)
		rec.State = state
	}
	return rec, nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	recs := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].UID < recs[j].UID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})

	return recs, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.records, uid)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

// Len returns the number of stored records.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
