package postgres

import (
	"context"
	"fmt"
)

// AdvisoryXactLock takes a transaction-scoped advisory lock keyed by the hash of key.
// It blocks until the lock is granted and is released when the enclosing
// transaction commits or rolls back, so it must run inside WithTx.
func (db *DB) AdvisoryXactLock(ctx context.Context, key string) error {
	tx, ok := GetTx(ctx)
	if !ok {
		return fmt.Errorf("advisory xact lock requires a transaction")
	}

	db.logger.Debugw("acquiring advisory lock",
		"tx_id", tx.ID,
		"lock_key", key,
	)

	q := NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	if _, err := q.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	return nil
}
