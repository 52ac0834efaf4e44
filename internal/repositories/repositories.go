// package repositories provides persistence layer implementations for client state.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = fmt.Errorf("not found")

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
