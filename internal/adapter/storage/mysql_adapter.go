package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv_store (
	k VARCHAR(255) NOT NULL PRIMARY KEY,
	v MEDIUMTEXT NOT NULL,
	updated_at DATETIME(3) NOT NULL
)`

// MySQLStore is a KVStore on a single MySQL table. Set is one upsert
// statement, so each key is written atomically.
type MySQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, now: time.Now}
}

func (m *MySQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createKVTable); err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (m *MySQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := m.db.QueryRowContext(ctx, `SELECT v FROM kv_store WHERE k = ?`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query kv_store: %w", err)
	}
	return value, true, nil
}

func (m *MySQLStore) Set(ctx context.Context, key, value string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO kv_store (k, v, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)`,
		key, value, m.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert kv_store: %w", err)
	}
	return nil
}

func (m *MySQLStore) Remove(ctx context.Context, key string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM kv_store WHERE k = ?`, key); err != nil {
		return fmt.Errorf("delete kv_store: %w", err)
	}
	return nil
}
