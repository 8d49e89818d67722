package paranoia

import "context"

// CachedRepository wraps a base repository with a record cache. Reads go
// cache-first; every mutation invalidates the cached entry. Marker writes in
// particular change which scopes a record is visible to, so the entry is
// dropped rather than refreshed — the next Get repopulates it.
type CachedRepository[T any, ID comparable] struct {
	base  Repository[T, ID]
	cache RecordCache[T, ID]
	getID func(*T) ID
}

// NewCachedRepository creates a cache-aside wrapper over base.
func NewCachedRepository[T any, ID comparable](
	base Repository[T, ID],
	cache RecordCache[T, ID],
	getID func(*T) ID,
) *CachedRepository[T, ID] {
	return &CachedRepository[T, ID]{base: base, cache: cache, getID: getID}
}

// Get tries the cache first, falls back to base on a miss.
func (r *CachedRepository[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	item, err := r.cache.Get(ctx, id)
	if err == nil {
		return item, nil
	}

	item, err = r.base.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Put(ctx, id, item)
	return item, nil
}

func (r *CachedRepository[T, ID]) Create(ctx context.Context, item *T) error {
	if err := r.base.Create(ctx, item); err != nil {
		return err
	}
	_ = r.cache.Put(ctx, r.getID(item), item)
	return nil
}

func (r *CachedRepository[T, ID]) Update(ctx context.Context, item *T) error {
	if err := r.base.Update(ctx, item); err != nil {
		return err
	}
	_ = r.cache.Drop(ctx, r.getID(item))
	return nil
}

func (r *CachedRepository[T, ID]) UpdateField(ctx context.Context, id ID, column string, value any) error {
	if err := r.base.UpdateField(ctx, id, column, value); err != nil {
		return err
	}
	_ = r.cache.Drop(ctx, id)
	return nil
}

func (r *CachedRepository[T, ID]) Delete(ctx context.Context, id ID) error {
	if err := r.base.Delete(ctx, id); err != nil {
		return err
	}
	_ = r.cache.Drop(ctx, id)
	return nil
}

// Query delegates to base; scoped queries are not cached.
func (r *CachedRepository[T, ID]) Query(ctx context.Context, filter *Filter) ([]T, error) {
	return r.base.Query(ctx, filter)
}

// Count delegates to base.
func (r *CachedRepository[T, ID]) Count(ctx context.Context, filter *Filter) (int64, error) {
	return r.base.Count(ctx, filter)
}

// Exists checks base (the cache might hold stale data).
func (r *CachedRepository[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	return r.base.Exists(ctx, id)
}
