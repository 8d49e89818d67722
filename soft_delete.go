package paranoia

// SoftDeletable is the capability a record type opts into to participate in
// soft deletion. The marker value's Go type must match the scheme the type
// is registered with: *time.Time for SchemeTimestamp, bool for SchemeFlag.
type SoftDeletable interface {
	// MarkerValue returns the current value of the marker field.
	MarkerValue() any

	// SetMarkerValue replaces the marker field value.
	SetMarkerValue(v any)
}

// isSoftDeletable checks if type T implements SoftDeletable.
func isSoftDeletable[T any]() bool {
	var zero T
	_, ok := any(&zero).(SoftDeletable)
	return ok
}

// asSoftDeletable asserts the capability on a concrete record.
func asSoftDeletable[T any](item *T) (SoftDeletable, bool) {
	sd, ok := any(item).(SoftDeletable)
	return sd, ok
}
