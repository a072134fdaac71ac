// Package facts provides rules.FactSource implementations: in-memory
// snapshots, a caching wrapper, and SQL and Redis backed stores.
package facts

import (
	"fmt"
	"math"

	"github.com/liamcoop/linkrules/rules"
)

// Map is an in-memory fact snapshot
type Map map[string]any

// Lookup returns the value stored under name
func (m Map) Lookup(name string) (any, error) {
	v, ok := m[name]
	if !ok {
		return nil, notFound(name)
	}
	return v, nil
}

// Lookups maps fact names to zero-argument lookup functions
type Lookups map[string]func() (any, error)

// Lookup calls the function registered for name
func (l Lookups) Lookup(name string) (any, error) {
	fn, ok := l[name]
	if !ok {
		return nil, notFound(name)
	}
	v, err := fn()
	if err != nil {
		return nil, &rules.FactLookupError{Fact: name, Err: err}
	}
	return v, nil
}

// Fixed values served by Reference
const (
	ReferenceBacklink          = "http://some-bad-place.com/..."
	ReferenceBacklinkCount     = int64(13)
	ReferenceInternalLinkCount = int64(40)
)

// ReferenceSchema declares the facts served by Reference
var ReferenceSchema = rules.FactSchema{
	"backlink":            "string",
	"backlink_count":      "int",
	"internal_link_count": "int",
}

// Reference is the stand-in data provider: three facts with fixed values
func Reference() Lookups {
	return Lookups{
		"backlink":            func() (any, error) { return ReferenceBacklink, nil },
		"backlink_count":      func() (any, error) { return ReferenceBacklinkCount, nil },
		"internal_link_count": func() (any, error) { return ReferenceInternalLinkCount, nil },
	}
}

func notFound(name string) error {
	return &rules.FactLookupError{Fact: name, Err: rules.ErrFactNotFound}
}

// Normalize converts Go numeric types to the int64/float64 values conditions expect.
// It returns an error for unsupported types.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, int64, float64:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		return uintToInt64(uint64(x))
	case uint64:
		return uintToInt64(x)
	case float32:
		return float64(x), nil
	default:
		return nil, fmt.Errorf("unsupported fact value type %T", v)
	}
}

func uintToInt64(x uint64) (any, error) {
	if x > math.MaxInt64 {
		return nil, fmt.Errorf("fact value %d overflows int64", x)
	}
	return int64(x), nil
}
