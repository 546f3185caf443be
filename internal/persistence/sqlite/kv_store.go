package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/marketplace-booking/internal/persistence"
)

// KVStore implements persistence.KeyValueStore on the kv_entries table.
type KVStore struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewKVStore returns a store backed by pool. Migrate must have run.
func NewKVStore(pool *ConnectionPool) *KVStore {
	return &KVStore{pool: pool, now: time.Now}
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, nil
}

// Put inserts or replaces the value under key.
func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.pool.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	return nil
}
