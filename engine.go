package paranoia

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine orchestrates the soft delete lifecycle for one record type:
// marker writes through the store, visibility-scoped queries, the restore
// and destroy callback chains, and the dependent-record cascade.
type Engine[T any, ID comparable] struct {
	repo     Repository[T, ID]
	registry *Registry
	tx       TxRunner
	getID    func(*T) ID

	cfg    Config
	policy *MarkerPolicy

	restoreChain *CallbackChain[T]
	destroyChain *CallbackChain[T]

	logger  OperationLogger
	metrics *MetricsCollector

	entityType string
}

// NewEngine builds an engine for T. T must already be registered in the
// registry and must implement SoftDeletable; both are verified here so a
// misconfigured type fails at setup time.
func NewEngine[T any, ID comparable](
	repo Repository[T, ID],
	registry *Registry,
	tx TxRunner,
	getID func(*T) ID,
) (*Engine[T, ID], error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository cannot be nil", ErrConfiguration)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: registry cannot be nil", ErrConfiguration)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction runner cannot be nil", ErrConfiguration)
	}
	if getID == nil {
		return nil, fmt.Errorf("%w: getID function cannot be nil", ErrConfiguration)
	}

	t := typeOf[T]()
	entry, ok := registry.lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", ErrConfiguration, t)
	}
	if !isSoftDeletable[T]() {
		return nil, fmt.Errorf("%w: %s does not implement SoftDeletable", ErrConfiguration, t)
	}

	return &Engine[T, ID]{
		repo:         repo,
		registry:     registry,
		tx:           tx,
		getID:        getID,
		cfg:          entry.cfg,
		policy:       entry.policy,
		restoreChain: NewCallbackChain[T](PhaseRestore),
		destroyChain: NewCallbackChain[T](PhaseDestroy),
		logger:       NewNoOpLogger(),
		entityType:   t.Name(),
	}, nil
}

// SetLogger sets the operation logger for this engine.
func (e *Engine[T, ID]) SetLogger(logger OperationLogger) {
	if logger != nil {
		e.logger = logger
	}
}

// SetMetrics attaches a metrics collector to this engine.
func (e *Engine[T, ID]) SetMetrics(metrics *MetricsCollector) {
	e.metrics = metrics
}

// Config returns the marker configuration this engine operates with.
func (e *Engine[T, ID]) Config() Config {
	return e.cfg
}

// Scope returns the default live-only visibility scope for T. Chain
// WithDeleted or OnlyDeleted on it for the other visibilities.
func (e *Engine[T, ID]) Scope() *Scope {
	return NewScope(e.cfg)
}

// BeforeRestore registers a before hook on the restore chain.
func (e *Engine[T, ID]) BeforeRestore(fn BeforeFunc[T]) { e.restoreChain.Before(fn) }

// AroundRestore registers an around hook on the restore chain.
func (e *Engine[T, ID]) AroundRestore(fn AroundFunc[T]) { e.restoreChain.Around(fn) }

// AfterRestore registers an after hook on the restore chain.
func (e *Engine[T, ID]) AfterRestore(fn AfterFunc[T]) { e.restoreChain.After(fn) }

// BeforeDestroy registers a before hook on the destroy chain.
func (e *Engine[T, ID]) BeforeDestroy(fn BeforeFunc[T]) { e.destroyChain.Before(fn) }

// AroundDestroy registers an around hook on the destroy chain.
func (e *Engine[T, ID]) AroundDestroy(fn AroundFunc[T]) { e.destroyChain.Around(fn) }

// AfterDestroy registers an after hook on the destroy chain.
func (e *Engine[T, ID]) AfterDestroy(fn AfterFunc[T]) { e.destroyChain.After(fn) }

// IsDeleted evaluates the marker predicate on the record's current marker value.
func (e *Engine[T, ID]) IsDeleted(item *T) bool {
	sd, ok := asSoftDeletable(item)
	return ok && e.policy.IsDeleted(sd.MarkerValue())
}

// Find queries records under the default live-only scope.
func (e *Engine[T, ID]) Find(ctx context.Context, filter *Filter) ([]T, error) {
	return e.repo.Query(ctx, e.Scope().Apply(filter))
}

// FindWithDeleted queries records regardless of deletion state.
func (e *Engine[T, ID]) FindWithDeleted(ctx context.Context, filter *Filter) ([]T, error) {
	return e.repo.Query(ctx, e.Scope().WithDeleted().Apply(filter))
}

// FindOnlyDeleted queries soft-deleted records only.
func (e *Engine[T, ID]) FindOnlyDeleted(ctx context.Context, filter *Filter) ([]T, error) {
	return e.repo.Query(ctx, e.Scope().OnlyDeleted().Apply(filter))
}

// SoftDelete writes the "deleted" marker value for the record. With useTx
// the write runs inside a store transaction; without it a bare field update
// is issued, which callers may batch. No callback chain runs on this
// lightweight path; Destroy is the guarded entry point.
// Re-deleting an already deleted record is a data-level no-op.
func (e *Engine[T, ID]) SoftDelete(ctx context.Context, item *T, useTx bool) (*T, error) {
	start := time.Now()
	opID := uuid.New()

	var zero ID
	if e.getID(item) == zero {
		return nil, ErrNotPersisted
	}

	var err error
	if useTx {
		err = e.tx.WithTx(ctx, func(txCtx context.Context) error {
			return e.writeMarker(txCtx, item, e.policy.DeletedValue())
		})
	} else {
		err = e.writeMarker(ctx, item, e.policy.DeletedValue())
	}

	e.observe(ctx, "soft_delete", opID, start, err)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.IncrementSoftDeletes(e.entityType)
	}
	return item, nil
}

// Destroy soft-deletes the record inside one transaction, guarded by the
// destroy callback chain, and cascades the marking down CascadeDestroy
// associations. When a hook halts the chain, Destroy returns ErrHalted and
// the store is left untouched.
func (e *Engine[T, ID]) Destroy(ctx context.Context, item *T) (*T, error) {
	return e.destroy(ctx, item, false)
}

// DestroyStrict behaves like Destroy but fails with ErrRecordNotDestroyed
// when the record is already deleted, so no state change could occur.
func (e *Engine[T, ID]) DestroyStrict(ctx context.Context, item *T) (*T, error) {
	return e.destroy(ctx, item, true)
}

func (e *Engine[T, ID]) destroy(ctx context.Context, item *T, strict bool) (*T, error) {
	start := time.Now()
	opID := uuid.New()

	var zero ID
	if e.getID(item) == zero {
		return nil, ErrNotPersisted
	}

	sd, _ := asSoftDeletable(item)
	if strict && e.policy.IsDeleted(sd.MarkerValue()) {
		return nil, ErrRecordNotDestroyed
	}
	prev := sd.MarkerValue()

	pc := &PhaseContext[T]{Record: item, Cascade: true, OpID: opID}
	err := e.tx.WithTx(ctx, func(txCtx context.Context) error {
		return e.destroyChain.Run(txCtx, pc, func() error {
			if err := e.writeMarker(txCtx, item, e.policy.DeletedValue()); err != nil {
				return err
			}
			return e.cascadeSoftDelete(txCtx, item)
		})
	})

	e.observe(ctx, "destroy", opID, start, err)
	if err != nil {
		sd.SetMarkerValue(prev)
		if errors.Is(err, ErrHalted) {
			if e.metrics != nil {
				e.metrics.IncrementHaltedChains(e.entityType, PhaseDestroy)
			}
			return nil, ErrHalted
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.IncrementSoftDeletes(e.entityType)
	}
	return item, nil
}

// Restore clears the "deleted" marker inside one store transaction that
// spans the restore callback chain, the marker write and, with cascade set,
// the entire recursive restore of CascadeDestroy dependents. A failure or
// hook halt anywhere in that subtree rolls back every marker change made by
// the call. Restoring an already live record still runs the full chain and
// transaction; only the marker write is idempotent.
//
// The cascade follows CascadeDestroy edges without cycle detection; a
// cyclic association graph recurses until the stack is exhausted.
func (e *Engine[T, ID]) Restore(ctx context.Context, item *T, cascade bool) (*T, error) {
	start := time.Now()
	opID := uuid.New()

	var zero ID
	if e.getID(item) == zero {
		return nil, ErrNotPersisted
	}

	sd, _ := asSoftDeletable(item)
	prev := sd.MarkerValue()

	pc := &PhaseContext[T]{Record: item, Cascade: cascade, OpID: opID}
	err := e.tx.WithTx(ctx, func(txCtx context.Context) error {
		return e.restoreChain.Run(txCtx, pc, func() error {
			if err := e.writeMarker(txCtx, item, e.policy.LiveValue()); err != nil {
				return err
			}
			if cascade {
				return e.cascadeRestore(txCtx, item)
			}
			return nil
		})
	})

	e.observe(ctx, "restore", opID, start, err)
	if err != nil {
		sd.SetMarkerValue(prev)
		if errors.Is(err, ErrHalted) {
			if e.metrics != nil {
				e.metrics.IncrementHaltedChains(e.entityType, PhaseRestore)
			}
			return nil, ErrHalted
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.IncrementRestores(e.entityType)
	}
	return item, nil
}

// RestoreByID resolves each identity within the deleted set and restores it.
// An identity that is absent, or present but live, fails with ErrItemNotFound
// for that identity; the remaining identities are still processed. The
// returned error joins every per-identity failure.
func (e *Engine[T, ID]) RestoreByID(ctx context.Context, cascade bool, ids ...ID) ([]*T, error) {
	var restored []*T
	var errs []error

	for _, id := range ids {
		item, err := e.repo.Get(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %v: %w", id, ErrItemNotFound))
			continue
		}
		if !e.IsDeleted(item) {
			// only records in the deleted set are restorable by identity
			errs = append(errs, fmt.Errorf("restore %v: %w", id, ErrItemNotFound))
			continue
		}
		out, err := e.Restore(ctx, item, cascade)
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %v: %w", id, err))
			continue
		}
		restored = append(restored, out)
	}

	return restored, errors.Join(errs...)
}

// HardDestroy permanently removes the record from the store, bypassing
// markers, hooks and cascades. Irreversible; exposed for emergency use.
func (e *Engine[T, ID]) HardDestroy(ctx context.Context, item *T) error {
	start := time.Now()
	opID := uuid.New()

	var zero ID
	if e.getID(item) == zero {
		return ErrNotPersisted
	}

	err := e.repo.Delete(ctx, e.getID(item))
	e.observe(ctx, "hard_destroy", opID, start, err)
	return err
}

// writeMarker sets the marker on the record and persists the single column.
// The in-memory value is reverted when the store write fails.
func (e *Engine[T, ID]) writeMarker(ctx context.Context, item *T, value any) error {
	sd, ok := asSoftDeletable(item)
	if !ok {
		return fmt.Errorf("%w: %s does not implement SoftDeletable", ErrConfiguration, e.entityType)
	}

	prev := sd.MarkerValue()
	sd.SetMarkerValue(value)
	if err := e.repo.UpdateField(ctx, e.getID(item), e.cfg.Column, value); err != nil {
		sd.SetMarkerValue(prev)
		return err
	}
	return nil
}

func (e *Engine[T, ID]) observe(ctx context.Context, operation string, opID uuid.UUID, start time.Time, err error) {
	duration := time.Since(start)
	e.logger.LogOperation(ctx, operation, e.entityType, opID.String(), duration, err)
	if e.metrics != nil {
		e.metrics.ObserveOperation(operation, e.entityType, duration)
	}
}
