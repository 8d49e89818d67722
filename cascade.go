package paranoia

import "context"

// CascadeKind describes how a dependent association participates in the
// owner's destroy and restore lifecycle.
type CascadeKind int

const (
	// CascadeNone excludes the association from cascades.
	CascadeNone CascadeKind = iota

	// CascadeDestroy soft-deletes dependents when the owner is destroyed and
	// makes them candidates for cascade restore.
	CascadeDestroy
)

// CascadeTarget is the type-erased view of a dependent type's engine that a
// cascade recurses into. Only engines produced by NewEngine satisfy it.
type CascadeTarget interface {
	// softDeleteCapable reports whether the target type participates in soft
	// deletion. Consulted before recursing into the association.
	softDeleteCapable() bool

	// restoreDeletedWhere restores, with cascading, every deleted record
	// matching the filter. Runs inside the caller's transaction context.
	restoreDeletedWhere(ctx context.Context, f *Filter) error

	// softDeleteWhere marks every live record matching the filter as deleted
	// and cascades the marking further down.
	softDeleteWhere(ctx context.Context, f *Filter) error
}

// AssociationEdge declares one dependent association of an owner type.
type AssociationEdge struct {
	// Name identifies the association; used in configuration errors.
	Name string

	// Kind controls cascade participation.
	Kind CascadeKind

	// Target is the dependent type's engine.
	Target CascadeTarget

	// OwnerScope builds the filter restricting the dependent set to records
	// belonging to the given owner, e.g. post_id = owner.ID.
	OwnerScope func(owner any) *Filter
}

// cascadeRestore walks the owner type's CascadeDestroy edges in declared
// order and restores every soft-deleted dependent, under the assumption it
// was deleted because its owner was destroyed. Dependents within one
// association follow the store's natural iteration order.
func (e *Engine[T, ID]) cascadeRestore(ctx context.Context, owner *T) error {
	for _, edge := range e.registry.edgesFor(typeOf[T]()) {
		if edge.Kind != CascadeDestroy || edge.Target == nil {
			continue
		}
		if !edge.Target.softDeleteCapable() {
			continue
		}
		if err := edge.Target.restoreDeletedWhere(ctx, edge.OwnerScope(any(owner))); err != nil {
			return err
		}
	}
	return nil
}

// cascadeSoftDelete is the destroy-side counterpart: it marks live
// dependents deleted down the same edges so a later cascade restore has
// records to recover.
func (e *Engine[T, ID]) cascadeSoftDelete(ctx context.Context, owner *T) error {
	for _, edge := range e.registry.edgesFor(typeOf[T]()) {
		if edge.Kind != CascadeDestroy || edge.Target == nil {
			continue
		}
		if !edge.Target.softDeleteCapable() {
			continue
		}
		if err := edge.Target.softDeleteWhere(ctx, edge.OwnerScope(any(owner))); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine[T, ID]) softDeleteCapable() bool {
	return isSoftDeletable[T]()
}

func (e *Engine[T, ID]) restoreDeletedWhere(ctx context.Context, f *Filter) error {
	items, err := e.repo.Query(ctx, e.Scope().OnlyDeleted().Apply(f))
	if err != nil {
		return err
	}
	for i := range items {
		if _, err := e.Restore(ctx, &items[i], true); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.IncrementCascadedRestores(e.entityType)
		}
	}
	return nil
}

func (e *Engine[T, ID]) softDeleteWhere(ctx context.Context, f *Filter) error {
	items, err := e.repo.Query(ctx, e.Scope().Apply(f))
	if err != nil {
		return err
	}
	for i := range items {
		if err := e.writeMarker(ctx, &items[i], e.policy.DeletedValue()); err != nil {
			return err
		}
		if err := e.cascadeSoftDelete(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}
