package facts

import (
	"encoding/json"
	"fmt"

	"github.com/liamcoop/linkrules/rules"
)

// FromJSON builds a Map from a JSON object decoded with UseNumber. Numbers
// become int64 or float64 according to schema; facts the schema does not
// declare keep an int64 when integral and a float64 otherwise.
func FromJSON(schema rules.FactSchema, values map[string]any) (Map, error) {
	m := make(Map, len(values))
	for name, v := range values {
		converted, err := fromJSONValue(schema[name], v)
		if err != nil {
			return nil, fmt.Errorf("fact %s: %w", name, err)
		}
		m[name] = converted
	}
	return m, nil
}

func fromJSONValue(kind string, v any) (any, error) {
	n, ok := v.(json.Number)
	if !ok {
		return Normalize(v)
	}

	switch kind {
	case "int":
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("%s is not an integer", n)
		}
		return i, nil
	case "double":
		return n.Float64()
	case "", "string", "bool":
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	default:
		return nil, fmt.Errorf("unknown fact type %q", kind)
	}
}
