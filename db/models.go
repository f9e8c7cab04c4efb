package db

import (
	"fmt"
	"path/filepath"
	"strings"

	"light-chat/chat"
)

// Backend kinds accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Backend is a keyed store of opaque values. Get returns nil for unknown keys.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	GetStats() (*Stats, error)
	Close() error
}

// Stats describes what a backend currently holds
type Stats struct {
	Backend    string
	SlotCount  int64
	ValueBytes int64
	SizeBytes  int64 // on-disk footprint, 0 for memory
}

// Open creates the backend named by kind at path
func Open(kind, path string) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(kind) {
	case "", BackendSQLite:
		backend, err = New(path)
	case BackendBolt:
		backend, err = NewBolt(path)
	case BackendFile:
		backend, err = NewFileStore(fileStoreDir(path))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// fileStoreDir lets the file backend share db_path with the others:
// a path naming a file (./data/chat.db) stores slots next to it.
func fileStoreDir(path string) string {
	if filepath.Ext(path) != "" {
		return filepath.Dir(path)
	}
	return path
}

// KeySlot exposes one backend key as a chat.Slot
type KeySlot struct {
	backend Backend
	key     string
}

var _ chat.Slot = (*KeySlot)(nil)

// SlotFor binds key on backend
func SlotFor(backend Backend, key string) *KeySlot {
	return &KeySlot{backend: backend, key: key}
}

// Key returns the slot name
func (s *KeySlot) Key() string {
	return s.key
}

// Load reads the slot value
func (s *KeySlot) Load() ([]byte, error) {
	if s.backend == nil {
		return nil, chat.ErrSlotUnavailable
	}
	return s.backend.Get(s.key)
}

// Save overwrites the slot value
func (s *KeySlot) Save(data []byte) error {
	if s.backend == nil {
		return chat.ErrSlotUnavailable
	}
	return s.backend.Put(s.key, data)
}

// Remove deletes the slot
func (s *KeySlot) Remove() error {
	if s.backend == nil {
		return chat.ErrSlotUnavailable
	}
	return s.backend.Delete(s.key)
}

// errClosed is returned by backends used after Close
var errClosed = fmt.Errorf("backend is closed: %w", chat.ErrSlotUnavailable)
