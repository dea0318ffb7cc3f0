package service

import (
	"context"
	"sync"
	"time"

	dErrors "clinica/pkg/domain-errors"
)

// StoreTx provides a transactional boundary for multi-store mutations.
// Implementations either begin a database transaction and carry it in the
// context, or serialize with a coarse lock for in-memory stores.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// InMemoryStoreTx serializes units of work with a single mutex. Correct for
// the in-memory stores, which have no isolation of their own.
type InMemoryStoreTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewInMemoryStoreTx() *InMemoryStoreTx {
	return &InMemoryStoreTx{timeout: defaultTxTimeout}
}

func (t *InMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
