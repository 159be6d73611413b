// Package prefs provides the persistent key/value surface used to keep
// wrapped data keys. Values are grouped by namespace and stored verbatim.
package prefs

import "sync"

// Store is a namespaced string key/value store.
//
// PutString must not return until the value is durably committed.
type Store interface {
	// GetString returns the value and true, or "" and false if key is absent.
	GetString(namespace, key string) (string, bool, error)
	PutString(namespace, key, value string) error
}

// MemoryStore is an in-memory Store that counts calls.
// This is exported so it can be used by tests in other packages.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]map[string]string

	// PutErr, when set, is returned by every PutString call.
	PutErr error

	GetCalls int
	PutCalls int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]map[string]string)}
}

func (m *MemoryStore) GetString(namespace, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	v, ok := m.values[namespace][key]
	return v, ok, nil
}

func (m *MemoryStore) PutString(namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	ns, ok := m.values[namespace]
	if !ok {
		ns = make(map[string]string)
		m.values[namespace] = ns
	}
	ns[key] = value
	return nil
}

// Delete removes key from namespace.
func (m *MemoryStore) Delete(namespace, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values[namespace], key)
}
