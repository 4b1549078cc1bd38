package value

import (
	"fmt"
	"math"
	"sort"

	"github.com/ssargent/avrokit/pkg/schema"
)

// FromNative converts plain Go data, typically decoded JSON, into a value
// of schema s. Records take map[string]any and fall back to field defaults
// for missing keys. Unions accept nil for a null branch, the JSON wrapper
// {"branch": x}, or any x that one branch accepts.
func FromNative(s *schema.Schema, x any) (*Value, error) {
	switch s.Kind() {
	case schema.Null:
		if x != nil {
			return nil, mismatch(s, x)
		}
		return Null(), nil
	case schema.Boolean:
		b, ok := x.(bool)
		if !ok {
			return nil, mismatch(s, x)
		}
		return Boolean(b), nil
	case schema.Int:
		n, err := toInt(x)
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, mismatch(s, x)
		}
		return Int(int32(n)), nil
	case schema.Long:
		n, err := toInt(x)
		if err != nil {
			return nil, mismatch(s, x)
		}
		return Long(n), nil
	case schema.Float:
		f, err := toFloat(x)
		if err != nil {
			return nil, mismatch(s, x)
		}
		return Float(float32(f)), nil
	case schema.Double:
		f, err := toFloat(x)
		if err != nil {
			return nil, mismatch(s, x)
		}
		return Double(f), nil
	case schema.Bytes:
		b, err := toBytes(x)
		if err != nil {
			return nil, mismatch(s, x)
		}
		return Bytes(b), nil
	case schema.String:
		switch t := x.(type) {
		case string:
			return String(t), nil
		case []byte:
			return String(string(t)), nil
		}
		return nil, mismatch(s, x)
	case schema.Fixed:
		b, err := toBytes(x)
		if err != nil {
			return nil, mismatch(s, x)
		}
		return NewFixed(s, b)
	case schema.Enum:
		sym, ok := x.(string)
		if !ok {
			return nil, mismatch(s, x)
		}
		return NewEnum(s, sym)
	case schema.Array:
		list, ok := x.([]any)
		if !ok {
			return nil, mismatch(s, x)
		}
		arr := NewArray(s.Items(), len(list))
		for i, item := range list {
			v, err := FromNative(s.Items(), item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			arr.items = append(arr.items, v)
		}
		return arr, nil
	case schema.Map:
		m, ok := x.(map[string]any)
		if !ok {
			return nil, mismatch(s, x)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMap(s.Values(), len(m))
		for _, k := range keys {
			v, err := FromNative(s.Values(), m[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			if err := out.Set(k, v); err != nil {
				return nil, err
			}
		}
		return out, nil
	case schema.Union:
		return unionFromNative(s, x)
	case schema.Record:
		m, ok := x.(map[string]any)
		if !ok {
			return nil, mismatch(s, x)
		}
		rec := &Value{schema: s, fields: make([]*Value, len(s.Fields()))}
		for _, f := range s.Fields() {
			var (
				v   *Value
				err error
			)
			if raw, ok := m[f.Name]; ok {
				v, err = FromNative(f.Type, raw)
			} else if f.HasDefault {
				v, err = fromDefault(f.Type, f.Default)
			} else {
				return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotSet, s.FullName(), f.Name)
			}
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			rec.fields[f.Index] = v
		}
		return rec, nil
	}
	return nil, mismatch(s, x)
}

func unionFromNative(s *schema.Schema, x any) (*Value, error) {
	if x == nil {
		i := s.BranchIndex(schema.Null, "")
		if i < 0 {
			return nil, mismatch(s, x)
		}
		return UnionBranch(s, i, Null())
	}

	if m, ok := x.(map[string]any); ok && len(m) == 1 {
		for name, inner := range m {
			for i, b := range s.Branches() {
				if b.FullName() != name && b.Name() != name {
					continue
				}
				if v, err := FromNative(b, inner); err == nil {
					return UnionBranch(s, i, v)
				}
			}
		}
	}

	for i, b := range s.Branches() {
		if b.Kind() == schema.Null {
			continue
		}
		if v, err := FromNative(b, x); err == nil {
			return UnionBranch(s, i, v)
		}
	}
	return nil, mismatch(s, x)
}

// fromDefault builds a value from a field default. Union defaults always
// belong to the first branch.
func fromDefault(s *schema.Schema, d any) (*Value, error) {
	if s.Kind() != schema.Union {
		return FromNative(s, d)
	}
	v, err := FromNative(s.Branches()[0], d)
	if err != nil {
		return nil, err
	}
	return UnionBranch(s, 0, v)
}

// ToNative converts v into plain Go data: records and maps become
// map[string]any, arrays []any, enums their symbol, bytes and fixed
// []byte, and unions their inner value.
func ToNative(v *Value) any {
	switch v.Kind() {
	case schema.Null:
		return nil
	case schema.Boolean:
		return v.b
	case schema.Int:
		return int32(v.i)
	case schema.Long:
		return v.i
	case schema.Float:
		return float32(v.f)
	case schema.Double:
		return v.f
	case schema.Bytes, schema.Fixed:
		return append([]byte{}, v.raw...)
	case schema.String, schema.Enum:
		return v.str
	case schema.Array:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = ToNative(item)
		}
		return out
	case schema.Map:
		out := make(map[string]any, len(v.items))
		for i, k := range v.keys {
			out[k] = ToNative(v.items[i])
		}
		return out
	case schema.Union:
		return ToNative(v.inner)
	case schema.Record:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.schema.Fields() {
			if x := v.fields[f.Index]; x != nil {
				out[f.Name] = ToNative(x)
			}
		}
		return out
	}
	return nil
}

// ToJSON converts v into the Avro JSON encoding: bytes and fixed become
// strings of code points 0-255 and non-null union values are wrapped as
// {"branch name": x}. FromNative accepts this form back.
func ToJSON(v *Value) any {
	switch v.Kind() {
	case schema.Bytes, schema.Fixed:
		r := make([]rune, len(v.raw))
		for i, c := range v.raw {
			r[i] = rune(c)
		}
		return string(r)
	case schema.Array:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = ToJSON(item)
		}
		return out
	case schema.Map:
		out := make(map[string]any, len(v.items))
		for i, k := range v.keys {
			out[k] = ToJSON(v.items[i])
		}
		return out
	case schema.Union:
		if v.inner.Kind() == schema.Null {
			return nil
		}
		return map[string]any{v.inner.schema.FullName(): ToJSON(v.inner)}
	case schema.Record:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.schema.Fields() {
			if x := v.fields[f.Index]; x != nil {
				out[f.Name] = ToJSON(x)
			}
		}
		return out
	case schema.Float, schema.Double:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Sprint(v.f)
		}
	}
	return ToNative(v)
}

func mismatch(s *schema.Schema, x any) error {
	return fmt.Errorf("%w: cannot use %T as %s", ErrTypeMismatch, x, s.FullName())
}

func toInt(x any) (int64, error) {
	switch n := x.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, ErrUnsupportedValue
		}
		return int64(n), nil
	case interface{ Int64() (int64, error) }:
		return n.Int64()
	}
	return 0, ErrUnsupportedValue
}

func toFloat(x any) (float64, error) {
	switch n := x.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case interface{ Float64() (float64, error) }:
		return n.Float64()
	case string:
		switch n {
		case "NaN":
			return math.NaN(), nil
		case "+Inf", "Infinity":
			return math.Inf(1), nil
		case "-Inf", "-Infinity":
			return math.Inf(-1), nil
		}
	}
	return 0, ErrUnsupportedValue
}

// toBytes accepts []byte or a JSON string whose code points are all below
// 256, each standing for one byte.
func toBytes(x any) ([]byte, error) {
	switch t := x.(type) {
	case []byte:
		return t, nil
	case string:
		out := make([]byte, 0, len(t))
		for _, r := range t {
			if r > 0xff {
				return nil, ErrUnsupportedValue
			}
			out = append(out, byte(r))
		}
		return out, nil
	}
	return nil, ErrUnsupportedValue
}
