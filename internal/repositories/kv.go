package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// KVRepository persists string values by key in the kv table.
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository creates a new [KVRepository] with the given database connection
func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key, or [ErrNotFound].
func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query key %s: %w", key, err)
	}
	return value, nil
}

// SetMany stores every pair in one transaction.
func (r *KVRepository) SetMany(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, query, k, values[k], now); err != nil {
				return fmt.Errorf("failed to store key %s: %w", k, err)
			}
		}
		return nil
	})
}

// DeleteMany removes every key in one transaction. Deleting a missing key is not an error.
func (r *KVRepository) DeleteMany(ctx context.Context, keys ...string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", k); err != nil {
				return fmt.Errorf("failed to delete key %s: %w", k, err)
			}
		}
		return nil
	})
}
