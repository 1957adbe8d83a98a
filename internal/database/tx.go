package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// WithTx runs fn inside one transaction. fn's error, a panic or a failed
// commit leaves nothing behind; the transaction is always finished before
// WithTx returns.
func WithTx(ctx context.Context, db *sql.DB, log *zap.Logger, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(tx, log, fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rollback(tx, log, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func rollback(tx *sql.Tx, log *zap.Logger, cause error) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error("transaction rollback failed",
			zap.NamedError("cause", cause),
			zap.NamedError("rollback_error", err),
		)
	}
}
