package paranoia

import (
	"fmt"
	"reflect"
	"sync"
)

// Config is the per-type soft delete configuration.
type Config struct {
	// Column is the marker field's column name.
	Column string

	// ColumnType selects the marker encoding. Exactly one scheme is fixed
	// per record type at registration and never mixed within that type.
	ColumnType Scheme
}

type typeEntry struct {
	cfg    Config
	policy *MarkerPolicy
	edges  []AssociationEdge
}

// Registry holds soft delete configuration and association metadata keyed by
// record type. It is populated once at setup and passed explicitly to each
// engine; there is no package-level registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*typeEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]*typeEntry)}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register configures soft deletion for record type T. It fails with
// ErrConfiguration when the scheme is unknown, the column name is invalid or
// T does not implement SoftDeletable, so a bad setup never reaches the store.
func Register[T any](r *Registry, cfg Config) error {
	policy, err := NewMarkerPolicy(cfg.ColumnType)
	if err != nil {
		return err
	}
	if err := sanitizeIdentifier(cfg.Column); err != nil {
		return fmt.Errorf("%w: invalid marker column: %v", ErrConfiguration, err)
	}
	if !isSoftDeletable[T]() {
		return fmt.Errorf("%w: %s does not implement SoftDeletable", ErrConfiguration, typeOf[T]())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[typeOf[T]()] = &typeEntry{cfg: cfg, policy: policy}
	return nil
}

// RegisterAssociation declares a dependent association edge on Owner.
// Edges are visited in registration order during a cascade.
func RegisterAssociation[Owner any](r *Registry, edge AssociationEdge) error {
	if edge.Kind == CascadeDestroy {
		if edge.Target == nil {
			return fmt.Errorf("%w: association %q has no target engine", ErrConfiguration, edge.Name)
		}
		if edge.OwnerScope == nil {
			return fmt.Errorf("%w: association %q has no owner scope", ErrConfiguration, edge.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[typeOf[Owner]()]
	if !ok {
		return fmt.Errorf("%w: %s is not registered", ErrConfiguration, typeOf[Owner]())
	}
	entry.edges = append(entry.edges, edge)
	return nil
}

// ConfigFor returns the marker configuration registered for T.
func ConfigFor[T any](r *Registry) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[typeOf[T]()]
	if !ok {
		return Config{}, false
	}
	return entry.cfg, true
}

func (r *Registry) lookup(t reflect.Type) (*typeEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[t]
	return entry, ok
}

func (r *Registry) edgesFor(t reflect.Type) []AssociationEdge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[t]
	if !ok {
		return nil
	}
	edges := make([]AssociationEdge, len(entry.edges))
	copy(edges, entry.edges)
	return edges
}
