package paranoia

import (
	"fmt"
	"time"
)

// Scheme identifies how the marker field of a record type encodes deletion.
type Scheme string

const (
	// SchemeTimestamp uses a nullable timestamp column: non-null means deleted,
	// and the value records when the deletion happened.
	SchemeTimestamp Scheme = "timestamp"

	// SchemeFlag uses a boolean column: true means deleted.
	SchemeFlag Scheme = "flag"
)

// ParseScheme converts a configuration string into a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeTimestamp, SchemeFlag:
		return Scheme(s), nil
	default:
		return "", fmt.Errorf("%w: unknown marker scheme %q", ErrConfiguration, s)
	}
}

// MarkerPolicy encodes and decodes the soft delete marker for one scheme.
// It is pure: no I/O, no state beyond the scheme and a clock.
type MarkerPolicy struct {
	scheme Scheme
	now    func() time.Time
}

// NewMarkerPolicy builds a policy for the given scheme. An unrecognized
// scheme fails with ErrConfiguration so misconfiguration surfaces at
// record-type setup, not when data is already being written.
func NewMarkerPolicy(scheme Scheme) (*MarkerPolicy, error) {
	switch scheme {
	case SchemeTimestamp, SchemeFlag:
		return &MarkerPolicy{scheme: scheme, now: time.Now}, nil
	default:
		return nil, fmt.Errorf("%w: unknown marker scheme %q", ErrConfiguration, scheme)
	}
}

// Scheme returns the scheme this policy encodes.
func (p *MarkerPolicy) Scheme() Scheme {
	return p.scheme
}

// SetClock overrides the time source used for timestamp markers.
func (p *MarkerPolicy) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// DeletedValue returns the marker value that denotes "deleted":
// the current time for SchemeTimestamp, true for SchemeFlag.
func (p *MarkerPolicy) DeletedValue() any {
	if p.scheme == SchemeFlag {
		return true
	}
	t := p.now()
	return &t
}

// LiveValue returns the marker value that denotes "not deleted":
// a nil timestamp for SchemeTimestamp, false for SchemeFlag.
func (p *MarkerPolicy) LiveValue() any {
	if p.scheme == SchemeFlag {
		return false
	}
	return (*time.Time)(nil)
}

// IsDeleted evaluates the deletion predicate on a marker field value.
func (p *MarkerPolicy) IsDeleted(value any) bool {
	if p.scheme == SchemeFlag {
		b, ok := value.(bool)
		return ok && b
	}
	ts, ok := value.(*time.Time)
	return ok && ts != nil
}
