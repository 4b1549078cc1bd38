package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
)

// Encode returns the binary encoding of v under the schema it was built
// against.
func Encode(v *value.Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrSchemaMismatch)
	}
	return appendValue(nil, v.Schema(), v)
}

// EncodeWith encodes v under s, checking at every level that the two agree.
func EncodeWith(s *schema.Schema, v *value.Value) ([]byte, error) {
	return appendValue(nil, s, v)
}

// AppendValue appends the encoding of v to dst.
func AppendValue(dst []byte, v *value.Value) ([]byte, error) {
	if v == nil {
		return dst, fmt.Errorf("%w: nil value", ErrSchemaMismatch)
	}
	return appendValue(dst, v.Schema(), v)
}

// AppendValueWith appends the encoding of v under s. On error the returned
// slice may hold a partial encoding past len(dst).
func AppendValueWith(dst []byte, s *schema.Schema, v *value.Value) ([]byte, error) {
	return appendValue(dst, s, v)
}

// AppendRaw appends an object that is already encoded. The payload is not
// inspected.
func AppendRaw(dst, raw []byte) []byte {
	return append(dst, raw...)
}

func appendValue(dst []byte, s *schema.Schema, v *value.Value) ([]byte, error) {
	if v == nil {
		return dst, fmt.Errorf("%w: missing value for %s", ErrSchemaMismatch, s.FullName())
	}
	if s.Kind() == schema.Union {
		return appendUnion(dst, s, v)
	}
	if v.Kind() != s.Kind() || v.Schema().FullName() != s.FullName() {
		return dst, fmt.Errorf("%w: expected %s, got %s", ErrSchemaMismatch, s.FullName(), v.Schema().FullName())
	}

	switch s.Kind() {
	case schema.Null:
		return dst, nil
	case schema.Boolean:
		b, _ := v.AsBool()
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case schema.Int:
		n, _ := v.AsInt()
		return AppendInt(dst, n), nil
	case schema.Long:
		n, _ := v.AsLong()
		return AppendLong(dst, n), nil
	case schema.Float:
		f, _ := v.AsFloat()
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(f)), nil
	case schema.Double:
		f, _ := v.AsDouble()
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(f)), nil
	case schema.Bytes:
		b, _ := v.AsBytes()
		dst = AppendLong(dst, int64(len(b)))
		return append(dst, b...), nil
	case schema.String:
		str, _ := v.AsString()
		dst = AppendLong(dst, int64(len(str)))
		return append(dst, str...), nil
	case schema.Fixed:
		b, _ := v.AsFixed()
		if len(b) != s.Size() {
			return dst, fmt.Errorf("%w: %s wants %d bytes, got %d", ErrSchemaMismatch, s.FullName(), s.Size(), len(b))
		}
		return append(dst, b...), nil
	case schema.Enum:
		i, _, _ := v.AsEnum()
		if i >= len(s.Symbols()) {
			return dst, fmt.Errorf("%w: ordinal %d out of range for %s", ErrSchemaMismatch, i, s.FullName())
		}
		return AppendLong(dst, int64(i)), nil
	case schema.Array:
		return appendArray(dst, s, v)
	case schema.Map:
		return appendMap(dst, s, v)
	case schema.Record:
		return appendRecord(dst, s, v)
	}
	return dst, fmt.Errorf("%w: unknown kind %s", ErrSchemaMismatch, s.Kind())
}

// appendArray writes all items as one block followed by the empty block
// that ends the array.
func appendArray(dst []byte, s *schema.Schema, v *value.Value) ([]byte, error) {
	n := v.Len()
	if n > 0 {
		dst = AppendLong(dst, int64(n))
		for i := 0; i < n; i++ {
			item, _ := v.Index(i)
			var err error
			if dst, err = appendValue(dst, s.Items(), item); err != nil {
				return dst, fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return AppendLong(dst, 0), nil
}

func appendMap(dst []byte, s *schema.Schema, v *value.Value) ([]byte, error) {
	n := v.Len()
	if n > 0 {
		dst = AppendLong(dst, int64(n))
		for i := 0; i < n; i++ {
			key, item := v.EntryAt(i)
			dst = AppendLong(dst, int64(len(key)))
			dst = append(dst, key...)
			var err error
			if dst, err = appendValue(dst, s.Values(), item); err != nil {
				return dst, fmt.Errorf("key %q: %w", key, err)
			}
		}
	}
	return AppendLong(dst, 0), nil
}

func appendUnion(dst []byte, s *schema.Schema, v *value.Value) ([]byte, error) {
	inner := v
	if v.Kind() == schema.Union {
		_, inner, _ = v.Branch()
	}
	i := s.BranchIndex(inner.Kind(), inner.Schema().FullName())
	if i < 0 {
		return dst, fmt.Errorf("%w: no branch of %s accepts %s", ErrSchemaMismatch, s.Canonical(), inner.Schema().FullName())
	}
	dst = AppendLong(dst, int64(i))
	return appendValue(dst, s.Branches()[i], inner)
}

// appendRecord writes fields in the order the schema declares them, looking
// each one up by name.
func appendRecord(dst []byte, s *schema.Schema, v *value.Value) ([]byte, error) {
	if v.Len() != len(s.Fields()) {
		return dst, fmt.Errorf("%w: %s has %d fields, value has %d", ErrSchemaMismatch, s.FullName(), len(s.Fields()), v.Len())
	}
	for _, f := range s.Fields() {
		x, err := v.Get(f.Name)
		if err != nil {
			return dst, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		if dst, err = appendValue(dst, f.Type, x); err != nil {
			return dst, fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return dst, nil
}
