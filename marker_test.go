package paranoia

import (
	"errors"
	"testing"
	"time"
)

func TestNewMarkerPolicy(t *testing.T) {
	tests := []struct {
		name        string
		scheme      Scheme
		expectError bool
	}{
		{"timestamp scheme", SchemeTimestamp, false},
		{"flag scheme", SchemeFlag, false},
		{"unknown scheme", Scheme("uuid"), true},
		{"empty scheme", Scheme(""), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMarkerPolicy(tc.scheme)
			if (err != nil) != tc.expectError {
				t.Errorf("expected error %v, got: %v", tc.expectError, err)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got: %v", err)
			}
		})
	}
}

func TestMarkerPolicy_Timestamp(t *testing.T) {
	policy, err := NewMarkerPolicy(SchemeTimestamp)
	if err != nil {
		t.Fatalf("NewMarkerPolicy failed: %v", err)
	}

	frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	policy.SetClock(func() time.Time { return frozen })

	deleted := policy.DeletedValue()
	ts, ok := deleted.(*time.Time)
	if !ok || ts == nil {
		t.Fatalf("expected non-nil *time.Time, got %T", deleted)
	}
	if !ts.Equal(frozen) {
		t.Errorf("expected deletion time %v, got %v", frozen, *ts)
	}

	if !policy.IsDeleted(deleted) {
		t.Error("deleted value should satisfy the predicate")
	}
	if policy.IsDeleted(policy.LiveValue()) {
		t.Error("live value should not satisfy the predicate")
	}
	if policy.IsDeleted(nil) {
		t.Error("untyped nil should not satisfy the predicate")
	}
}

func TestMarkerPolicy_Flag(t *testing.T) {
	policy, err := NewMarkerPolicy(SchemeFlag)
	if err != nil {
		t.Fatalf("NewMarkerPolicy failed: %v", err)
	}

	if policy.DeletedValue() != true {
		t.Errorf("expected true, got %v", policy.DeletedValue())
	}
	if policy.LiveValue() != false {
		t.Errorf("expected false, got %v", policy.LiveValue())
	}
	if !policy.IsDeleted(true) {
		t.Error("true should satisfy the predicate")
	}
	if policy.IsDeleted(false) {
		t.Error("false should not satisfy the predicate")
	}
}

func TestParseScheme(t *testing.T) {
	if _, err := ParseScheme("timestamp"); err != nil {
		t.Errorf("timestamp should parse: %v", err)
	}
	if _, err := ParseScheme("flag"); err != nil {
		t.Errorf("flag should parse: %v", err)
	}
	if _, err := ParseScheme("bitfield"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got: %v", err)
	}
}
