// Package render formats expression results for output.
package render

import (
	"math"

	"github.com/goccy/go-json"

	"github.com/zephyrtronium/exprcalc"
)

// Text formats a result the way it is printed. A negative zero prints as
// positive zero.
func Text(v any) string {
	return exprcalc.Str(positiveZero(v))
}

// Repr formats a result as it would be written in an expression, with
// strings quoted. A negative zero prints as positive zero.
func Repr(v any) string {
	return exprcalc.Repr(positiveZero(v))
}

func positiveZero(v any) any {
	if f, ok := v.(float64); ok && f == 0 {
		return 0.0
	}
	return v
}

// Plain converts a result to a value that encodes as JSON. Tuples and sets
// become arrays. Dicts become objects, with keys that are not strings
// written as by exprcalc.Repr. Non-finite floats become the strings "inf",
// "-inf", and "nan".
func Plain(v any) any {
	switch v := v.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return exprcalc.FormatFloat(v)
		}
		if v == 0 {
			return 0.0
		}
		return v
	case []any:
		return plainAll(v)
	case exprcalc.Tuple:
		return plainAll(v)
	case *exprcalc.Set:
		return plainAll(v.Items())
	case *exprcalc.Dict:
		// Ordered by key on encoding.
		m := make(map[string]any, v.Len())
		for _, p := range v.Pairs() {
			k, ok := p.Key.(string)
			if !ok {
				k = exprcalc.Repr(p.Key)
			}
			m[k] = Plain(p.Value)
		}
		return m
	}
	return v
}

func plainAll(vs []any) []any {
	r := make([]any, len(vs))
	for i, v := range vs {
		r[i] = Plain(v)
	}
	return r
}

// JSON encodes a result as JSON.
func JSON(v any) ([]byte, error) {
	return json.Marshal(Plain(v))
}

// FromJSON converts a value decoded from JSON with numbers kept as
// json.Number. Integers become int64 and other numbers float64.
func FromJSON(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	case []any:
		r := make([]any, len(v))
		for i, x := range v {
			r[i] = FromJSON(x)
		}
		return r
	case map[string]any:
		r := make(map[string]any, len(v))
		for k, x := range v {
			r[k] = FromJSON(x)
		}
		return r
	}
	return v
}
