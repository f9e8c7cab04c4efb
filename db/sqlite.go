package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection and stores slots in a key/value table
type DB struct {
	conn *sql.DB
}

var _ Backend = (*DB)(nil)

const schema = `CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// New opens (creating if needed) the slot database at path
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create slots table: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Get returns the slot value, or nil when the key has never been written
func (db *DB) Get(key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRow("SELECT value FROM slots WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot %s: %w", key, err)
	}
	return value, nil
}

// Put replaces the slot value in a single statement
func (db *DB) Put(key string, value []byte) error {
	_, err := db.conn.Exec(
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to put slot %s: %w", key, err)
	}
	return nil
}

// Delete removes the slot
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec("DELETE FROM slots WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// GetStats counts slots and reports the on-disk size as page_count * page_size
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{Backend: BackendSQLite}

	row := db.conn.QueryRow("SELECT COUNT(*), COALESCE(SUM(LENGTH(value)), 0) FROM slots")
	if err := row.Scan(&stats.SlotCount, &stats.ValueBytes); err != nil {
		return nil, fmt.Errorf("count slots: %w", err)
	}

	var pages, pageSize int64
	for pragma, dst := range map[string]*int64{"page_count": &pages, "page_size": &pageSize} {
		if err := db.conn.QueryRow("PRAGMA " + pragma).Scan(dst); err != nil {
			return nil, fmt.Errorf("read %s: %w", pragma, err)
		}
	}
	stats.SizeBytes = pages * pageSize
	return stats, nil
}

// Vacuum rebuilds the file so deleted slots stop taking space
func (db *DB) Vacuum() error {
	if _, err := db.conn.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum sqlite: %w", err)
	}
	return nil
}
