package paranoia

import "context"

// Repository is the contract this library consumes from the store layer.
// T represents the record type and ID the identifier type.
type Repository[T any, ID comparable] interface {
	Create(ctx context.Context, item *T) error
	Get(ctx context.Context, id ID) (*T, error)
	Query(ctx context.Context, filter *Filter) ([]T, error)
	Update(ctx context.Context, item *T) error

	// UpdateField writes a single column by name. This is the bare marker
	// write used by the non-transactional delete path.
	UpdateField(ctx context.Context, id ID, column string, value any) error

	// Delete physically removes the record. Irreversible; the soft delete
	// protocol never calls it except through HardDestroy.
	Delete(ctx context.Context, id ID) error

	Count(ctx context.Context, filter *Filter) (int64, error)
	Exists(ctx context.Context, id ID) (bool, error)
}

// TxFunc is a function that operates within a transaction context.
type TxFunc[T any, ID comparable] func(repo Repository[T, ID]) error

// Transactional is an optional single-store transaction interface.
// Implementations can use type assertion to check for support:
//
//	if txRepo, ok := repo.(Transactional[T, ID]); ok { ... }
type Transactional[T any, ID comparable] interface {
	// WithTx executes the given function within a transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn TxFunc[T, ID]) error
}

// TxRunner runs a function inside one store transaction that may span
// repositories of several record types. The active transaction travels in
// the context; repositories participating in it must consult the context.
// A runner invoked with a context that already carries its transaction
// joins that transaction instead of opening a nested one, which is what
// lets a cascade recursion share the top-level restore transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
