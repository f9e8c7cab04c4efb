package db

import "sync"

// Memory is a process-local backend, used for tests and ephemeral sessions
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, v...), nil
}

func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	m.values[key] = append([]byte{}, value...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	delete(m.values, key)
	return nil
}

func (m *Memory) GetStats() (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &Stats{Backend: BackendMemory, SlotCount: int64(len(m.values))}
	for _, v := range m.values {
		stats.ValueBytes += int64(len(v))
	}
	return stats, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
