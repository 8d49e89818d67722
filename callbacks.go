package paranoia

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Phase names an extension point in the record lifecycle.
type Phase string

const (
	PhaseRestore Phase = "restore"
	PhaseDestroy Phase = "destroy"
)

// PhaseContext is the ephemeral value passed through a callback chain during
// one lifecycle invocation. It is created per call and discarded after.
type PhaseContext[T any] struct {
	// Record is the target of the operation.
	Record *T

	// Cascade reports whether the operation will walk dependent associations.
	Cascade bool

	// OpID correlates log entries produced by one lifecycle call.
	OpID uuid.UUID

	// Phase is the chain being executed.
	Phase Phase
}

// BeforeFunc runs prior to the core action. Returning ErrHalted aborts the
// whole chain: the core action and all remaining hooks are skipped and the
// operation reports ErrHalted. Any other error propagates and aborts the
// enclosing transaction.
type BeforeFunc[T any] func(ctx context.Context, pc *PhaseContext[T]) error

// AroundFunc wraps the core action. next invokes the next layer (another
// around hook or the core action itself); the hook may skip calling it and
// may run code before and after it.
type AroundFunc[T any] func(ctx context.Context, pc *PhaseContext[T], next func() error) error

// AfterFunc runs after the core action and all around layers completed
// successfully.
type AfterFunc[T any] func(ctx context.Context, pc *PhaseContext[T]) error

// CallbackChain is an ordered hook pipeline for one phase. Registration
// happens once per record type at setup; Run happens once per lifecycle call.
// CallbackChain is not safe for concurrent registration.
type CallbackChain[T any] struct {
	phase  Phase
	before []BeforeFunc[T]
	around []AroundFunc[T]
	after  []AfterFunc[T]
}

// NewCallbackChain creates an empty chain for the given phase.
func NewCallbackChain[T any](phase Phase) *CallbackChain[T] {
	return &CallbackChain[T]{phase: phase}
}

// Phase returns the phase this chain serves.
func (c *CallbackChain[T]) Phase() Phase {
	return c.phase
}

// Before appends a before hook in registration order.
func (c *CallbackChain[T]) Before(fn BeforeFunc[T]) {
	c.before = append(c.before, fn)
}

// Around appends an around hook. Hooks registered first become the
// outermost layers.
func (c *CallbackChain[T]) Around(fn AroundFunc[T]) {
	c.around = append(c.around, fn)
}

// After appends an after hook in registration order.
func (c *CallbackChain[T]) After(fn AfterFunc[T]) {
	c.after = append(c.after, fn)
}

// Run executes the chain around the core action: before hooks in order,
// then the around layers wrapping core, then after hooks in order.
func (c *CallbackChain[T]) Run(ctx context.Context, pc *PhaseContext[T], core func() error) error {
	pc.Phase = c.phase

	for _, fn := range c.before {
		if err := fn(ctx, pc); err != nil {
			if errors.Is(err, ErrHalted) {
				return ErrHalted
			}
			return err
		}
	}

	// Each around layer receives the next one as its continuation; the
	// innermost continuation is the core action.
	next := core
	for i := len(c.around) - 1; i >= 0; i-- {
		fn := c.around[i]
		inner := next
		next = func() error { return fn(ctx, pc, inner) }
	}

	if err := next(); err != nil {
		if errors.Is(err, ErrHalted) {
			return ErrHalted
		}
		return err
	}

	for _, fn := range c.after {
		if err := fn(ctx, pc); err != nil {
			return err
		}
	}

	return nil
}
