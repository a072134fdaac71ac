package facts

import (
	"errors"
	"math"
	"testing"

	"github.com/liamcoop/linkrules/rules"
)

func TestMapLookup(t *testing.T) {
	m := Map{"backlink_count": int64(13)}

	v, err := m.Lookup("backlink_count")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if v != int64(13) {
		t.Errorf("Lookup() = %v, want 13", v)
	}

	_, err = m.Lookup("backlink")
	var lookupErr *rules.FactLookupError
	if !errors.As(err, &lookupErr) || lookupErr.Fact != "backlink" {
		t.Errorf("Lookup() error = %v, want FactLookupError for backlink", err)
	}
	if !errors.Is(err, rules.ErrFactNotFound) {
		t.Error("missing fact should wrap ErrFactNotFound")
	}
}

func TestLookupsWrapsProviderErrors(t *testing.T) {
	offline := errors.New("crawler offline")
	l := Lookups{"backlink": func() (any, error) { return nil, offline }}

	_, err := l.Lookup("backlink")
	var lookupErr *rules.FactLookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("Lookup() error = %v, want *FactLookupError", err)
	}
	if !errors.Is(err, offline) {
		t.Error("FactLookupError should wrap the provider error")
	}
}

func TestReference(t *testing.T) {
	ref := Reference()

	tests := []struct {
		name string
		want any
	}{
		{"backlink", ReferenceBacklink},
		{"backlink_count", ReferenceBacklinkCount},
		{"internal_link_count", ReferenceInternalLinkCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ref.Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Lookup(%s) = %v, want %v", tt.name, got, tt.want)
			}
			if _, declared := ReferenceSchema[tt.name]; !declared {
				t.Errorf("ReferenceSchema does not declare %s", tt.name)
			}
		})
	}

	if len(ref) != len(ReferenceSchema) {
		t.Errorf("Reference() serves %d facts, schema declares %d", len(ref), len(ReferenceSchema))
	}
	if err := rules.ValidateSchema(ReferenceSchema); err != nil {
		t.Errorf("ReferenceSchema is invalid: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"s", "s"},
		{true, true},
		{int(7), int64(7)},
		{int8(-7), int64(-7)},
		{int16(7), int64(7)},
		{int32(7), int64(7)},
		{int64(7), int64(7)},
		{uint8(7), int64(7)},
		{uint16(7), int64(7)},
		{uint32(7), int64(7)},
		{uint(5), int64(5)},
		{uint64(math.MaxInt64), int64(math.MaxInt64)},
		{float32(1.5), float64(1.5)},
		{2.5, 2.5},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if err != nil {
			t.Errorf("Normalize(%v) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}

	if _, err := Normalize([]string{"x"}); err == nil {
		t.Error("Normalize() should reject slices")
	}
	if _, err := Normalize(uint64(math.MaxInt64) + 1); err == nil {
		t.Error("Normalize() should reject uint64 values above MaxInt64")
	}
}
