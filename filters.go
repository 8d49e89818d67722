package paranoia

// Operator is a comparison operator usable in a query condition.
type Operator string

const (
	OpEqual            Operator = "="
	OpNotEqual         Operator = "!="
	OpGreaterThan      Operator = ">"
	OpLessThan         Operator = "<"
	OpGreaterThanEqual Operator = ">="
	OpLessThanEqual    Operator = "<="

	// OpIsNull and OpIsNotNull are unary: Condition.Value is ignored.
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// Condition represents a single predicate against a column.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Filter groups a set of conditions, combined with AND.
type Filter struct {
	Conditions []Condition
}

// FilterBuilder builds filters through chained calls.
type FilterBuilder struct {
	conditions []Condition
}

// NewFilter creates an empty filter builder.
func NewFilter() *FilterBuilder {
	return &FilterBuilder{}
}

// Where adds a binary condition.
func (b *FilterBuilder) Where(field string, op Operator, value any) *FilterBuilder {
	b.conditions = append(b.conditions, Condition{Field: field, Operator: op, Value: value})
	return b
}

// WhereNull adds an IS NULL condition.
func (b *FilterBuilder) WhereNull(field string) *FilterBuilder {
	b.conditions = append(b.conditions, Condition{Field: field, Operator: OpIsNull})
	return b
}

// WhereNotNull adds an IS NOT NULL condition.
func (b *FilterBuilder) WhereNotNull(field string) *FilterBuilder {
	b.conditions = append(b.conditions, Condition{Field: field, Operator: OpIsNotNull})
	return b
}

// Build produces the immutable filter.
func (b *FilterBuilder) Build() *Filter {
	conditions := make([]Condition, len(b.conditions))
	copy(conditions, b.conditions)
	return &Filter{Conditions: conditions}
}

// merge returns a new filter with the extra conditions prepended to f's.
// A nil f is treated as an empty filter.
func merge(extra []Condition, f *Filter) *Filter {
	merged := &Filter{Conditions: make([]Condition, 0, len(extra))}
	merged.Conditions = append(merged.Conditions, extra...)
	if f != nil {
		merged.Conditions = append(merged.Conditions, f.Conditions...)
	}
	return merged
}
