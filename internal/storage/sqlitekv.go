package storage

import (
	"database/sql"
	"fmt"

	"github.com/containerd/errdefs"
	_ "modernc.org/sqlite"
)

// SQLiteKV is the default KV implementation for host/gateway builds,
// grounded on the teacher's own modernc.org/sqlite-backed state store.
// A real MCU build would supply a flash-backed KV instead; the core
// depends only on the KV interface.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLiteKV opens (creating if necessary) a single-table KV store at
// path.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS kv (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM kv WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("storage: %q: %w", name, errdefs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %q: %w", name, err)
	}
	return data, nil
}

func (s *SQLiteKV) Set(name string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv(name, data) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		name, data,
	)
	if err != nil {
		return fmt.Errorf("storage: set %q: %w", name, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteKV) Close() error { return s.db.Close() }
