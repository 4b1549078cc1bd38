package value

import (
	"fmt"

	"github.com/ssargent/avrokit/pkg/schema"
)

// Value is a runtime instance of a schema node. The variant is the kind of
// the node it is bound to; only the payload fields for that kind are used.
type Value struct {
	schema *schema.Schema

	b   bool
	i   int64
	f   float64
	raw []byte // bytes, fixed
	str string // string, enum symbol

	fields []*Value // record, in schema field order

	items []*Value       // array items, map values
	keys  []string       // map keys in insertion order
	index map[string]int // map key -> position in keys/items

	ordinal int // enum ordinal, union branch
	inner   *Value
}

// Null returns the value of the null type.
func Null() *Value { return &Value{schema: schema.Primitive(schema.Null)} }

// Boolean wraps b.
func Boolean(b bool) *Value {
	return &Value{schema: schema.Primitive(schema.Boolean), b: b}
}

// Int returns a 32-bit int value.
func Int(n int32) *Value {
	return &Value{schema: schema.Primitive(schema.Int), i: int64(n)}
}

// Long returns a 64-bit long value.
func Long(n int64) *Value {
	return &Value{schema: schema.Primitive(schema.Long), i: n}
}

// Float returns a single-precision value.
func Float(x float32) *Value {
	return &Value{schema: schema.Primitive(schema.Float), f: float64(x)}
}

// Double returns a double-precision value.
func Double(x float64) *Value {
	return &Value{schema: schema.Primitive(schema.Double), f: x}
}

// Bytes copies b into a new bytes value.
func Bytes(b []byte) *Value {
	return &Value{schema: schema.Primitive(schema.Bytes), raw: append([]byte{}, b...)}
}

// String returns a string value holding s.
func String(s string) *Value {
	return &Value{schema: schema.Primitive(schema.String), str: s}
}

// NewEnum builds an enum value from one of the schema's symbols.
func NewEnum(s *schema.Schema, symbol string) (*Value, error) {
	if s.Kind() != schema.Enum {
		return nil, fmt.Errorf("%w: %s is not an enum schema", ErrKindMismatch, s.Kind())
	}
	i := s.SymbolIndex(symbol)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q is not a symbol of %s", ErrInvalidEnum, symbol, s.FullName())
	}
	return &Value{schema: s, ordinal: i, str: symbol}, nil
}

// NewEnumOrdinal builds an enum value from a symbol index.
func NewEnumOrdinal(s *schema.Schema, ordinal int) (*Value, error) {
	if s.Kind() != schema.Enum {
		return nil, fmt.Errorf("%w: %s is not an enum schema", ErrKindMismatch, s.Kind())
	}
	if ordinal < 0 || ordinal >= len(s.Symbols()) {
		return nil, fmt.Errorf("%w: ordinal %d out of range for %s", ErrInvalidEnum, ordinal, s.FullName())
	}
	return &Value{schema: s, ordinal: ordinal, str: s.Symbols()[ordinal]}, nil
}

// NewFixed copies data into a fixed value; its length must equal the
// schema size.
func NewFixed(s *schema.Schema, data []byte) (*Value, error) {
	if s.Kind() != schema.Fixed {
		return nil, fmt.Errorf("%w: %s is not a fixed schema", ErrKindMismatch, s.Kind())
	}
	if len(data) != s.Size() {
		return nil, fmt.Errorf("%w: %s wants %d bytes, got %d", ErrFixedSize, s.FullName(), s.Size(), len(data))
	}
	return &Value{schema: s, raw: append([]byte{}, data...)}, nil
}

// NewRecord returns an empty record. Fields with a schema default start out
// holding that default; the rest must be Put before the record is encoded.
func NewRecord(s *schema.Schema) (*Value, error) {
	if s.Kind() != schema.Record {
		return nil, fmt.Errorf("%w: %s is not a record schema", ErrKindMismatch, s.Kind())
	}
	v := &Value{schema: s, fields: make([]*Value, len(s.Fields()))}
	for _, f := range s.Fields() {
		if !f.HasDefault {
			continue
		}
		d, err := fromDefault(f.Type, f.Default)
		if err != nil {
			return nil, fmt.Errorf("default for field %q: %w", f.Name, err)
		}
		v.fields[f.Index] = d
	}
	return v, nil
}

// RecordOf builds a record from values given in schema field order.
func RecordOf(s *schema.Schema, fields []*Value) (*Value, error) {
	if s.Kind() != schema.Record {
		return nil, fmt.Errorf("%w: %s is not a record schema", ErrKindMismatch, s.Kind())
	}
	if len(fields) != len(s.Fields()) {
		return nil, fmt.Errorf("%w: %s has %d fields, got %d", ErrTypeMismatch, s.FullName(), len(s.Fields()), len(fields))
	}
	v := &Value{schema: s, fields: make([]*Value, len(fields))}
	for i, f := range s.Fields() {
		c, err := conform(f.Type, fields[i])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		v.fields[i] = c
	}
	return v, nil
}

// NewArray returns an empty array of items. A capacityHint below zero is
// treated as zero.
func NewArray(items *schema.Schema, capacityHint int) *Value {
	capacityHint = max(capacityHint, 0)
	return &Value{schema: schema.ArrayOf(items), items: make([]*Value, 0, capacityHint)}
}

// NewMap returns an empty map whose values have schema values. Keys keep
// insertion order. A capacityHint below zero is treated as zero.
func NewMap(values *schema.Schema, capacityHint int) *Value {
	capacityHint = max(capacityHint, 0)
	return &Value{
		schema: schema.MapOf(values),
		items:  make([]*Value, 0, capacityHint),
		keys:   make([]string, 0, capacityHint),
		index:  make(map[string]int, capacityHint),
	}
}

// NewUnion wraps x as an instance of the union s. The branch is the one
// whose kind, and full name for named kinds, matches x.
func NewUnion(s *schema.Schema, x *Value) (*Value, error) {
	if s.Kind() != schema.Union {
		return nil, fmt.Errorf("%w: %s is not a union schema", ErrKindMismatch, s.Kind())
	}
	if x == nil {
		return nil, fmt.Errorf("%w: nil value", ErrTypeMismatch)
	}
	if x.Kind() == schema.Union {
		x = x.inner
	}
	i := s.BranchIndex(x.Kind(), x.schema.FullName())
	if i < 0 || !schema.Match(s.Branches()[i], x.schema) {
		return nil, fmt.Errorf("%w: no branch of %s accepts %s", ErrTypeMismatch, s.Canonical(), x.schema.FullName())
	}
	return &Value{schema: s, ordinal: i, inner: x}, nil
}

// UnionBranch wraps x as branch i of the union s.
func UnionBranch(s *schema.Schema, i int, x *Value) (*Value, error) {
	if s.Kind() != schema.Union {
		return nil, fmt.Errorf("%w: %s is not a union schema", ErrKindMismatch, s.Kind())
	}
	if i < 0 || i >= len(s.Branches()) {
		return nil, fmt.Errorf("%w: branch %d out of range", ErrIndexOutOfRange, i)
	}
	if x == nil || !schema.Match(s.Branches()[i], x.schema) {
		return nil, fmt.Errorf("%w: branch %d of union", ErrTypeMismatch, i)
	}
	return &Value{schema: s, ordinal: i, inner: x}, nil
}

// conform checks x against s, wrapping it when s is a union.
func conform(s *schema.Schema, x *Value) (*Value, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: nil value", ErrTypeMismatch)
	}
	if s.Kind() == schema.Union {
		if x.Kind() == schema.Union && schema.Match(s, x.schema) {
			return x, nil
		}
		return NewUnion(s, x)
	}
	if !schema.Match(s, x.schema) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, s.FullName(), x.schema.FullName())
	}
	return x, nil
}

// Schema returns the schema v conforms to.
func (v *Value) Schema() *schema.Schema { return v.schema }

// Kind is shorthand for v.Schema().Kind().
func (v *Value) Kind() schema.Kind { return v.schema.Kind() }

// Put assigns a record field.
func (v *Value) Put(field string, x *Value) error {
	if err := v.expect(schema.Record); err != nil {
		return err
	}
	f, ok := v.schema.Field(field)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrUnknownField, field, v.schema.FullName())
	}
	c, err := conform(f.Type, x)
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	v.fields[f.Index] = c
	return nil
}

// Append adds an item to an array.
func (v *Value) Append(x *Value) error {
	if err := v.expect(schema.Array); err != nil {
		return err
	}
	c, err := conform(v.schema.Items(), x)
	if err != nil {
		return fmt.Errorf("array item: %w", err)
	}
	v.items = append(v.items, c)
	return nil
}

// Set inserts or replaces a map entry. A replaced key keeps its position.
func (v *Value) Set(key string, x *Value) error {
	if err := v.expect(schema.Map); err != nil {
		return err
	}
	c, err := conform(v.schema.Values(), x)
	if err != nil {
		return fmt.Errorf("map entry %q: %w", key, err)
	}
	if i, ok := v.index[key]; ok {
		v.items[i] = c
		return nil
	}
	v.index[key] = len(v.keys)
	v.keys = append(v.keys, key)
	v.items = append(v.items, c)
	return nil
}

// Get returns a record field. Fields that were never set return
// ErrFieldNotSet.
func (v *Value) Get(field string) (*Value, error) {
	if err := v.expect(schema.Record); err != nil {
		return nil, err
	}
	f, ok := v.schema.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownField, field, v.schema.FullName())
	}
	x := v.fields[f.Index]
	if x == nil {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotSet, field)
	}
	return x, nil
}

// Index returns the i-th array item or the value of the i-th map entry.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != schema.Array && v.Kind() != schema.Map {
		return nil, fmt.Errorf("%w: %s is not an array or map", ErrKindMismatch, v.Kind())
	}
	if i < 0 || i >= len(v.items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(v.items))
	}
	return v.items[i], nil
}

// Entry returns the map value stored under key.
func (v *Value) Entry(key string) (*Value, error) {
	if err := v.expect(schema.Map); err != nil {
		return nil, err
	}
	i, ok := v.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return v.items[i], nil
}

// Keys returns map keys in insertion order.
func (v *Value) Keys() []string {
	if v.Kind() != schema.Map {
		return nil
	}
	return append([]string{}, v.keys...)
}

// Len returns the number of array items, map entries or record fields.
func (v *Value) Len() int {
	switch v.Kind() {
	case schema.Array, schema.Map:
		return len(v.items)
	case schema.Record:
		return len(v.fields)
	default:
		return 0
	}
}

// IsNull reports whether v is the null value.
func (v *Value) IsNull() bool { return v.Kind() == schema.Null }

// AsBool returns the payload of a boolean value, or ErrKindMismatch.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(schema.Boolean); err != nil {
		return false, err
	}
	return v.b, nil
}

// AsInt returns the payload of an int value.
func (v *Value) AsInt() (int32, error) {
	if err := v.expect(schema.Int); err != nil {
		return 0, err
	}
	return int32(v.i), nil
}

// AsLong returns the payload of a long value. Ints are not widened.
func (v *Value) AsLong() (int64, error) {
	if err := v.expect(schema.Long); err != nil {
		return 0, err
	}
	return v.i, nil
}

// AsFloat returns the payload of a float value.
func (v *Value) AsFloat() (float32, error) {
	if err := v.expect(schema.Float); err != nil {
		return 0, err
	}
	return float32(v.f), nil
}

// AsDouble returns the payload of a double value.
func (v *Value) AsDouble() (float64, error) {
	if err := v.expect(schema.Double); err != nil {
		return 0, err
	}
	return v.f, nil
}

// AsBytes returns the payload of a bytes value. The slice is shared with
// the value and must not be modified.
func (v *Value) AsBytes() ([]byte, error) {
	if err := v.expect(schema.Bytes); err != nil {
		return nil, err
	}
	return v.raw, nil
}

// AsString returns the payload of a string value.
func (v *Value) AsString() (string, error) {
	if err := v.expect(schema.String); err != nil {
		return "", err
	}
	return v.str, nil
}

// AsEnum returns the ordinal and symbol of an enum value.
func (v *Value) AsEnum() (int, string, error) {
	if err := v.expect(schema.Enum); err != nil {
		return 0, "", err
	}
	return v.ordinal, v.str, nil
}

// AsFixed returns the bytes of a fixed value. Like AsBytes the slice is
// shared.
func (v *Value) AsFixed() ([]byte, error) {
	if err := v.expect(schema.Fixed); err != nil {
		return nil, err
	}
	return v.raw, nil
}

// Branch returns the selected branch index and inner value of a union.
func (v *Value) Branch() (int, *Value, error) {
	if err := v.expect(schema.Union); err != nil {
		return 0, nil, err
	}
	return v.ordinal, v.inner, nil
}

// Validate reports the first record field, at any depth, that was never
// set.
func (v *Value) Validate() error {
	switch v.Kind() {
	case schema.Record:
		for _, f := range v.schema.Fields() {
			x := v.fields[f.Index]
			if x == nil {
				return fmt.Errorf("%w: %s.%s", ErrFieldNotSet, v.schema.FullName(), f.Name)
			}
			if err := x.Validate(); err != nil {
				return err
			}
		}
	case schema.Array, schema.Map:
		for _, x := range v.items {
			if err := x.Validate(); err != nil {
				return err
			}
		}
	case schema.Union:
		return v.inner.Validate()
	}
	return nil
}

func (v *Value) expect(k schema.Kind) error {
	if v.Kind() != k {
		return fmt.Errorf("%w: want %s, have %s", ErrKindMismatch, k, v.Kind())
	}
	return nil
}

// String formats v through its native form, for debugging.
func (v *Value) String() string {
	return fmt.Sprintf("%v", ToNative(v))
}

// FieldAt returns the i-th record field in schema order, or nil when it is
// unset or v is not a record.
func (v *Value) FieldAt(i int) *Value {
	if v.Kind() != schema.Record || i < 0 || i >= len(v.fields) {
		return nil
	}
	return v.fields[i]
}

// EntryAt returns the i-th map entry in insertion order.
func (v *Value) EntryAt(i int) (string, *Value) {
	if v.Kind() != schema.Map || i < 0 || i >= len(v.items) {
		return "", nil
	}
	return v.keys[i], v.items[i]
}
