package storage

import (
	"context"
	"sync"
)

type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[key]
	next, err := fn(cur, ok)
	if err != nil {
		return err
	}
	m.items[key] = next
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// MemoryFactory keeps every namespace in process. Nothing expires; used in
// tests and single-instance dev runs.
type MemoryFactory struct {
	mu      sync.Mutex
	local   map[string]*Memory
	session map[string]*Memory
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{local: map[string]*Memory{}, session: map[string]*Memory{}}
}

func (f *MemoryFactory) Local(sessionID string) Storage {
	return f.get(f.local, sessionID)
}

func (f *MemoryFactory) Session(sessionID string) Storage {
	return f.get(f.session, sessionID)
}

func (f *MemoryFactory) get(m map[string]*Memory, id string) *Memory {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := m[id]
	if !ok {
		s = NewMemory()
		m[id] = s
	}
	return s
}
