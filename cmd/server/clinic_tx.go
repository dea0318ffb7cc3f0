package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "clinica/pkg/domain-errors"
	txcontext "clinica/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// postgresStoreTx carries a *sql.Tx in the context so the Postgres stores
// join the same transaction.
type postgresStoreTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newPostgresStoreTx(db *sql.DB) *postgresStoreTx {
	return &postgresStoreTx{db: db}
}

func (t *postgresStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
