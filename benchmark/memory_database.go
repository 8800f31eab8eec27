package benchmark

import (
	"context"
	"sync"
)

// MemoryDatabase is an in-process document map. It needs no server, which
// makes it the baseline backend and the one used by the engine's tests.
type MemoryDatabase struct {
	mu     sync.RWMutex
	docs   map[string]Document
	keys   *KeyRegistry
	closed bool
}

// NewMemoryDatabase creates an empty in-memory store
func NewMemoryDatabase(cfg DatabaseConfig) *MemoryDatabase {
	return &MemoryDatabase{
		docs: make(map[string]Document),
		keys: NewKeyRegistry(cfg.KeyRegistrySize),
	}
}

// Insert implements Database.Insert
func (m *MemoryDatabase) Insert(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDatabaseClosed
	}
	m.docs[doc.ID] = doc
	m.keys.Add(doc.ID)
	return nil
}

// Read implements Database.Read
func (m *MemoryDatabase) Read(_ context.Context) error {
	id, ok := m.keys.Random()
	if !ok {
		return ErrKeyNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrDatabaseClosed
	}
	if _, ok := m.docs[id]; !ok {
		return ErrKeyNotFound
	}
	return nil
}

// Len returns the number of stored documents
func (m *MemoryDatabase) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Close implements Database.Close
func (m *MemoryDatabase) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.docs = nil
	return nil
}
