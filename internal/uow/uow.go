// Package uow provides a pgx-backed unit of work for the row-locked,
// serialize-per-aggregate write pattern used by the Ledger and the
// Ride-Hailing Orchestrator's webhook handling.
//
// Grounded on the Pay-Chain webhook usecase's UnitOfWork.Do/WithLock idiom:
// callers open a transaction with Do and take row locks inside it through
// repository reads that use SELECT ... FOR UPDATE (LockWallet, LockTrip,
// FindTripByVendorRequestID). No caller invokes WithLock.
package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// UnitOfWork runs a function inside a single pgx transaction.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// New creates a UnitOfWork over the given pool.
func New(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do begins a transaction, runs fn with a context carrying that
// transaction, and commits on success or rolls back on error/panic.
func (u *UnitOfWork) Do(ctx context.Context, fn func(txCtx context.Context) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// WithLock marks the context as "inside a lock scope". Actual row locking
// happens at the SQL level (`SELECT ... FOR UPDATE`) in the repository
// calls made with this context; WithLock returns its argument unchanged
// and no call site in the service uses it.
func (u *UnitOfWork) WithLock(txCtx context.Context) context.Context {
	return txCtx
}

// Tx extracts the active transaction from a context produced by Do. It
// panics if called outside a Do scope — a programming error, not a runtime
// condition callers should handle.
func Tx(ctx context.Context) pgx.Tx {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		panic("uow: Tx called outside a Do scope")
	}
	return tx
}
