package store

import (
	"context"
	"database/sql"
	"time"

	dErrors "bookerregistry/pkg/domain-errors"
	txcontext "bookerregistry/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// BookerLocker takes a row lock on a booker for the rest of the transaction.
type BookerLocker interface {
	LockBooker(ctx context.Context, bookerRef string) error
}

// PostgresTx runs a unit of work in one PostgreSQL transaction. Work scoped
// to a booker first locks the booker row, so concurrent units for the same
// booker run one after another.
type PostgresTx struct {
	db      *sql.DB
	locker  BookerLocker
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB, locker BookerLocker) *PostgresTx {
	return &PostgresTx{db: db, locker: locker, timeout: defaultTxTimeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, bookerRef string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	return txcontext.Run(ctx, t.db, nil, func(ctx context.Context) error {
		if bookerRef != "" {
			if err := t.locker.LockBooker(ctx, bookerRef); err != nil {
				return err
			}
		}
		return fn(ctx)
	})
}
