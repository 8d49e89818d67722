package paranoia

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// InMemoryConnector is an in-memory implementation of the Repository
// interface. Conditions match struct fields through their db tags, so the
// same filters work against it and the SQL connectors.
type InMemoryConnector[T any, ID comparable] struct {
	data  map[ID]*T
	mu    sync.RWMutex
	getID func(t *T) ID // function to extract an element ID

	fieldByColumn map[string]int
}

func NewInMemoryConnector[T any, ID comparable](getID func(t *T) ID) *InMemoryConnector[T, ID] {
	return &InMemoryConnector[T, ID]{
		data:          make(map[ID]*T),
		getID:         getID,
		fieldByColumn: columnIndex[T](),
	}
}

// columnIndex maps db tag names to struct field indices.
func columnIndex[T any]() map[string]int {
	idx := make(map[string]int)
	typ := typeOf[T]()
	if typ.Kind() != reflect.Struct {
		return idx
	}
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag != "" && tag != "-" {
			idx[tag] = i
		}
	}
	return idx
}

func (r *InMemoryConnector[T, ID]) Create(_ context.Context, item *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.getID(item)
	if _, exists := r.data[id]; exists {
		return ErrItemAlreadyExists
	}

	r.data[id] = item
	return nil
}

func (r *InMemoryConnector[T, ID]) Get(_ context.Context, id ID) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.data[id]
	if !exists {
		return nil, ErrItemNotFound
	}

	return item, nil
}

func (r *InMemoryConnector[T, ID]) Query(_ context.Context, filter *Filter) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []T
	for _, item := range r.data {
		ok, err := r.matches(item, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, *item)
		}
	}

	return results, nil
}

func (r *InMemoryConnector[T, ID]) Update(_ context.Context, item *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.getID(item)
	if _, exists := r.data[id]; !exists {
		return ErrItemNotFound
	}

	r.data[id] = item
	return nil
}

func (r *InMemoryConnector[T, ID]) UpdateField(_ context.Context, id ID, column string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.data[id]
	if !exists {
		return ErrItemNotFound
	}

	idx, ok := r.fieldByColumn[column]
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}

	field := reflect.ValueOf(item).Elem().Field(idx)
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("value of type %s is not assignable to column %q", v.Type(), column)
	}
	field.Set(v)
	return nil
}

func (r *InMemoryConnector[T, ID]) Delete(_ context.Context, id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[id]; !exists {
		return ErrNoDeleteItem
	}

	delete(r.data, id)
	return nil
}

func (r *InMemoryConnector[T, ID]) Count(_ context.Context, filter *Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, item := range r.data {
		ok, err := r.matches(item, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryConnector[T, ID]) Exists(_ context.Context, id ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.data[id]
	return exists, nil
}

func (r *InMemoryConnector[T, ID]) matches(item *T, filter *Filter) (bool, error) {
	if filter == nil {
		return true, nil
	}

	v := reflect.ValueOf(item).Elem()
	for _, condition := range filter.Conditions {
		fieldVal, err := r.resolveField(v, condition.Field)
		if err != nil {
			return false, err
		}

		switch condition.Operator {
		case OpIsNull:
			if !isNilValue(fieldVal) {
				return false, nil
			}
		case OpIsNotNull:
			if isNilValue(fieldVal) {
				return false, nil
			}
		case OpEqual:
			if !reflect.DeepEqual(fieldVal.Interface(), condition.Value) {
				return false, nil
			}
		case OpNotEqual:
			if reflect.DeepEqual(fieldVal.Interface(), condition.Value) {
				return false, nil
			}
		case OpGreaterThan:
			if compare(fieldVal.Interface(), condition.Value) <= 0 {
				return false, nil
			}
		case OpLessThan:
			if compare(fieldVal.Interface(), condition.Value) >= 0 {
				return false, nil
			}
		case OpGreaterThanEqual:
			if compare(fieldVal.Interface(), condition.Value) < 0 {
				return false, nil
			}
		case OpLessThanEqual:
			if compare(fieldVal.Interface(), condition.Value) > 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %q", condition.Operator)
		}
	}

	return true, nil
}

// resolveField looks the field up by db tag first, then by exported name.
func (r *InMemoryConnector[T, ID]) resolveField(v reflect.Value, column string) (reflect.Value, error) {
	if idx, ok := r.fieldByColumn[column]; ok {
		return v.Field(idx), nil
	}
	fieldVal := v.FieldByName(strings.ToUpper(column[:1]) + column[1:])
	if !fieldVal.IsValid() {
		return reflect.Value{}, fmt.Errorf("unknown column %q", column)
	}
	return fieldVal, nil
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

func compare(a, b any) int {
	af, okA := toFloat64(a)
	bf, okB := toFloat64(b)
	if okA && okB {
		if af < bf {
			return -1
		} else if af > bf {
			return 1
		}
		return 0
	}

	// if they are not numeric, we try to compare them as strings
	as, okA := a.(string)
	bs, okB := b.(string)
	if okA && okB {
		if as < bs {
			return -1
		} else if as > bs {
			return 1
		}
		return 0
	}

	return 0 // fallback
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
