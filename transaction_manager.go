package paranoia

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queryable abstracts both pgxpool.Pool and pgx.Tx.
type Queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TransactionManager is a TxRunner backed by a pgx connection pool. The
// active transaction is injected into the context; PostgresConnector
// instances detect it and route their statements through it, which lets one
// transaction span the repositories of every record type in a cascade.
type TransactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a new transaction manager.
func NewTransactionManager(pool *pgxpool.Pool) *TransactionManager {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &TransactionManager{pool: pool}
}

// WithTx executes the provided function within a transaction. The
// transaction is committed when the function returns nil and rolled back on
// error or panic. A context that already carries a transaction joins it;
// the outermost call owns commit and rollback.
func (tm *TransactionManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := getTxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrTxAborted, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrTxAborted, err)
	}

	return nil
}

// txKey is the context key type for transaction injection.
type txKey struct{}

// getTxFromContext extracts the transaction from context, if present.
func getTxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}
