package storage

import "sync"

// MemBackend is an in-memory Backend, used throughout the tests. Each Set
// and Delete takes effect immediately: callers that need a whole operation
// to commit or roll back as a unit must run it inside a transactional
// backend instead.
type MemBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemBackend creates an empty in-memory backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{data: make(map[string][]byte)}
}

// Get implements Backend.
func (m *MemBackend) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, true, nil
}

// Set implements Backend.
func (m *MemBackend) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

// Delete implements Backend.
func (m *MemBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Prefixed wraps a Backend so that every key is namespaced under the given
// prefix. Lobbies hosted in a shared database each get their own namespace.
type Prefixed struct {
	inner  Backend
	prefix string
}

// NewPrefixed namespaces b under prefix.
func NewPrefixed(b Backend, prefix string) *Prefixed {
	return &Prefixed{inner: b, prefix: prefix + "/"}
}

// Get implements Backend.
func (p *Prefixed) Get(key string) ([]byte, bool, error) {
	return p.inner.Get(p.prefix + key)
}

// Set implements Backend.
func (p *Prefixed) Set(key string, value []byte) error {
	return p.inner.Set(p.prefix+key, value)
}

// Delete implements Backend.
func (p *Prefixed) Delete(key string) error {
	return p.inner.Delete(p.prefix + key)
}
