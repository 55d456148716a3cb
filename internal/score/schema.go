package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one submitted feature mapping, as decoded from a request item.
type Record map[string]any

// Schema is the ordered list of feature names the model was fit on.
// The order defines the position of each value in the vector passed to the model.
// A Schema is immutable once created.
type Schema struct {
	names []string
}

// NewSchema validates names and returns a Schema.
// Names must be non-empty and unique.
func NewSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, errors.New("schema: no features")
	}

	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return Schema{}, fmt.Errorf("schema: feature %d has empty name", i)
		}
		if seen[name] {
			return Schema{}, fmt.Errorf("schema: duplicate feature '%s'", name)
		}
		seen[name] = true
	}

	return Schema{names: append([]string(nil), names...)}, nil
}

// Len returns the number of features.
func (s Schema) Len() int {
	return len(s.names)
}

// Names returns a copy of the feature names in schema order.
func (s Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Vector looks up every schema feature in r and returns the values in schema order.
// Presence is checked for the whole schema before any value is converted, so a
// record lacking a feature always fails with MissingFeatureError naming the first
// absent one; only complete records can fail with InvalidFeatureError.
// Keys of r outside the schema are ignored.
func (s Schema) Vector(r Record) ([]float64, error) {
	for _, name := range s.names {
		if _, found := r[name]; !found {
			return nil, NewMissingFeatureError(name)
		}
	}

	vector := make([]float64, len(s.names))
	for i, name := range s.names {
		raw := r[name]
		value, ok := toFloat(raw)
		if !ok {
			return nil, NewInvalidFeatureError(name, raw)
		}
		vector[i] = value
	}

	return vector, nil
}

// toFloat converts a decoded JSON value to float64.
// Numbers, booleans (1/0) and numeric strings are accepted.
func toFloat(v any) (float64, bool) {
	var f float64
	switch value := v.(type) {
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = value
	case float32:
		f = float64(value)
	case int:
		f = float64(value)
	case int32:
		f = float64(value)
	case int64:
		f = float64(value)
	case bool:
		if value {
			f = 1
		}
	case string:
		text := strings.TrimSpace(value)
		if isHexLiteral(text) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// isHexLiteral reports a 0x-prefixed number, which ParseFloat would accept
// (including underscore digit separators) but is not a decimal feature value.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
