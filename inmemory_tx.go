package paranoia

import (
	"context"
	"fmt"
)

// WithTx executes the given function within a transaction simulation scoped
// to this single store: a snapshot of the data is taken, the function runs,
// and the snapshot is restored when it fails or panics.
func (r *InMemoryConnector[T, ID]) WithTx(ctx context.Context, fn TxFunc[T, ID]) error {
	snap := r.snapshot()

	// Defer rollback in case of panic
	defer func() {
		if p := recover(); p != nil {
			r.restore(snap)
			panic(p)
		}
	}()

	if err := fn(r); err != nil {
		r.restore(snap)
		return fmt.Errorf("tx error: %w", err)
	}

	return nil
}

func (r *InMemoryConnector[T, ID]) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(map[ID]*T, len(r.data))
	for k, v := range r.data {
		copyValue := *v
		snap[k] = &copyValue
	}
	return snap
}

func (r *InMemoryConnector[T, ID]) restore(snap any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = snap.(map[ID]*T)
}

// MemoryStore is the snapshot capability MemoryTxRunner requires of a
// participating store. InMemoryConnector implements it.
type MemoryStore interface {
	snapshot() any
	restore(snap any)
}

type memTxKey struct{}

// MemoryTxRunner is a TxRunner over a set of in-memory stores. It snapshots
// every registered store before running the function and restores all of
// them when the function fails, so a cascade touching several record types
// rolls back together. Every store a cascade can reach must be registered
// with the same runner.
type MemoryTxRunner struct {
	stores []MemoryStore
}

// NewMemoryTxRunner creates a runner over the given stores.
func NewMemoryTxRunner(stores ...MemoryStore) *MemoryTxRunner {
	return &MemoryTxRunner{stores: stores}
}

// Register adds a store to the transaction scope.
func (m *MemoryTxRunner) Register(store MemoryStore) {
	m.stores = append(m.stores, store)
}

// WithTx implements TxRunner. A context that already carries a memory
// transaction joins it: the function runs directly and the outermost call
// owns commit and rollback.
func (m *MemoryTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	snaps := make([]any, len(m.stores))
	for i, store := range m.stores {
		snaps[i] = store.snapshot()
	}

	rollback := func() {
		for i, store := range m.stores {
			store.restore(snaps[i])
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, memTxKey{}, m)
	if err := fn(txCtx); err != nil {
		rollback()
		return fmt.Errorf("tx error: %w", err)
	}

	return nil
}
