package paranoia

// Visibility selects which records a scoped query sees.
type Visibility int

const (
	// VisibilityLive restricts queries to records not marked deleted.
	// This is the default applied to every ordinary lookup.
	VisibilityLive Visibility = iota

	// VisibilityAll removes the restriction entirely.
	VisibilityAll

	// VisibilityDeleted restricts queries to records marked deleted.
	VisibilityDeleted
)

// Scope builds query filters that include or exclude soft-deleted records
// for one configured record type. Scopes are pure; each modifier returns a
// new scope and Apply never mutates the caller's filter.
type Scope struct {
	column     string
	scheme     Scheme
	visibility Visibility
}

// NewScope creates the default live-only scope for a marker configuration.
func NewScope(cfg Config) *Scope {
	return &Scope{column: cfg.Column, scheme: cfg.ColumnType, visibility: VisibilityLive}
}

// WithDeleted returns a scope that sees both live and deleted records.
func (s *Scope) WithDeleted() *Scope {
	return &Scope{column: s.column, scheme: s.scheme, visibility: VisibilityAll}
}

// OnlyDeleted returns a scope restricted to deleted records.
func (s *Scope) OnlyDeleted() *Scope {
	return &Scope{column: s.column, scheme: s.scheme, visibility: VisibilityDeleted}
}

// Conditions returns the marker conditions this scope imposes.
func (s *Scope) Conditions() []Condition {
	switch s.visibility {
	case VisibilityAll:
		return nil
	case VisibilityDeleted:
		if s.scheme == SchemeFlag {
			return []Condition{{Field: s.column, Operator: OpEqual, Value: true}}
		}
		return []Condition{{Field: s.column, Operator: OpIsNotNull}}
	default:
		if s.scheme == SchemeFlag {
			return []Condition{{Field: s.column, Operator: OpEqual, Value: false}}
		}
		return []Condition{{Field: s.column, Operator: OpIsNull}}
	}
}

// Apply composes the scope with a caller-supplied filter. Caller conditions
// are preserved untouched after the marker conditions.
func (s *Scope) Apply(f *Filter) *Filter {
	return merge(s.Conditions(), f)
}
