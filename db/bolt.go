package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var slotsBucket = []byte("slots")

// BoltDB stores slots as keys of a single bbolt bucket
type BoltDB struct {
	db   *bolt.DB
	path string
}

var _ Backend = (*BoltDB)(nil)

// NewBolt opens (or creates) the bbolt file at path
func NewBolt(path string) (*BoltDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(slotsBucket)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create slots bucket: %w", err)
	}
	return &BoltDB{db: db, path: path}, nil
}

// Get returns a copy of the stored value; bbolt memory is only valid inside the transaction
func (b *BoltDB) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(slotsBucket).Get([]byte(key)); v != nil {
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, b.wrap("get", key, err)
	}
	return out, nil
}

// Put replaces the value inside one write transaction
func (b *BoltDB) Put(key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Put([]byte(key), value)
	})
	if err != nil {
		return b.wrap("put", key, err)
	}
	return nil
}

// Delete removes the key
func (b *BoltDB) Delete(key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Delete([]byte(key))
	})
	if err != nil {
		return b.wrap("delete", key, err)
	}
	return nil
}

// GetStats counts keys and reports the file size
func (b *BoltDB) GetStats() (*Stats, error) {
	stats := &Stats{Backend: BackendBolt}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).ForEach(func(_, v []byte) error {
			stats.SlotCount++
			stats.ValueBytes += int64(len(v))
			return nil
		})
	})
	if err != nil {
		return nil, b.wrap("stat", "*", err)
	}
	if info, err := os.Stat(b.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// Close releases the file lock
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func (b *BoltDB) wrap(op, key string, err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return errClosed
	}
	return fmt.Errorf("failed to %s slot %s: %w", op, key, err)
}
