package value

import (
	"bytes"
	"math"

	"github.com/ssargent/avrokit/pkg/schema"
)

// Equal reports whether a and b hold the same data under matching schemas.
// Map entry order is ignored and floating point values compare by bit
// pattern, so NaN equals NaN.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !schema.Match(a.schema, b.schema) {
		return false
	}

	switch a.Kind() {
	case schema.Null:
		return true
	case schema.Boolean:
		return a.b == b.b
	case schema.Int, schema.Long:
		return a.i == b.i
	case schema.Float:
		return math.Float32bits(float32(a.f)) == math.Float32bits(float32(b.f))
	case schema.Double:
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	case schema.Bytes, schema.Fixed:
		return bytes.Equal(a.raw, b.raw)
	case schema.String:
		return a.str == b.str
	case schema.Enum:
		return a.ordinal == b.ordinal
	case schema.Array:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case schema.Map:
		if len(a.items) != len(b.items) {
			return false
		}
		for i, k := range a.keys {
			j, ok := b.index[k]
			if !ok || !Equal(a.items[i], b.items[j]) {
				return false
			}
		}
		return true
	case schema.Union:
		return a.ordinal == b.ordinal && Equal(a.inner, b.inner)
	case schema.Record:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if !Equal(a.fields[i], b.fields[i]) {
				return false
			}
		}
		return true
	}
	return false
}
