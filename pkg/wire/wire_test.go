package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
)

const pairSchema = `{"type":"record","name":"Pair","fields":[{"name":"a","type":"long"},{"name":"b","type":"string"}]}`

const everythingSchema = `{
	"type": "record", "name": "Everything", "namespace": "test",
	"fields": [
		{"name": "n", "type": "null"},
		{"name": "flag", "type": "boolean"},
		{"name": "i", "type": "int"},
		{"name": "l", "type": "long"},
		{"name": "f", "type": "float"},
		{"name": "d", "type": "double"},
		{"name": "raw", "type": "bytes"},
		{"name": "s", "type": "string"},
		{"name": "hash", "type": {"type": "fixed", "name": "Hash", "size": 3}},
		{"name": "color", "type": {"type": "enum", "name": "Color", "symbols": ["RED", "GREEN"]}},
		{"name": "list", "type": {"type": "array", "items": "long"}},
		{"name": "attrs", "type": {"type": "map", "values": ["null", "string"]}},
		{"name": "opt", "type": ["null", "Hash", "Color"]},
		{"name": "nested", "type": {"type": "array", "items": {"type": "map", "values": "Color"}}}
	]
}`

const nodeSchema = `{"type": "record", "name": "Node", "fields": [
	{"name": "value", "type": "long"},
	{"name": "children", "type": {"type": "array", "items": "Node"}}
]}`

func mustParse(t testing.TB, text string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(text)
	require.NoError(t, err)
	return s
}

func buildEverything(t testing.TB, s *schema.Schema) *value.Value {
	t.Helper()
	v, err := value.FromNative(s, map[string]any{
		"n":     nil,
		"flag":  true,
		"i":     int32(-123456),
		"l":     int64(math.MinInt64),
		"f":     float32(3.5),
		"d":     math.Pi,
		"raw":   []byte{0, 1, 2, 255},
		"s":     "żółw",
		"hash":  []byte("abc"),
		"color": "GREEN",
		"list":  []any{int64(1), int64(-1), int64(math.MaxInt64)},
		"attrs": map[string]any{"x": "y", "none": nil},
		"opt":   map[string]any{"test.Color": "RED"},
		"nested": []any{
			map[string]any{"a": "RED"},
			map[string]any{},
		},
	})
	require.NoError(t, err)
	return v
}

func TestEncode_Pair(t *testing.T) {
	s := mustParse(t, pairSchema)

	rec, err := value.NewRecord(s)
	require.NoError(t, err)
	require.NoError(t, rec.Put("a", value.Long(1)))
	require.NoError(t, rec.Put("b", value.String("hi")))

	data, err := Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x04, 0x68, 0x69}, data)

	back, err := Decode(data, s)
	require.NoError(t, err)
	assert.True(t, value.Equal(rec, back))
}

func TestVarint_Boundaries(t *testing.T) {
	testCases := []struct {
		n    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x01}},
		{1, []byte{0x02}},
		{-64, []byte{0x7f}},
		{64, []byte{0x80, 0x01}},
		{math.MaxInt64, []byte{0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
		{math.MinInt64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}

	for _, tc := range testCases {
		enc := AppendLong(nil, tc.n)
		assert.Equal(t, tc.want, enc, "encoding %d", tc.n)

		got, size, err := ReadLong(enc)
		require.NoError(t, err)
		assert.Equal(t, tc.n, got)
		assert.Equal(t, len(enc), size)
		assert.Equal(t, tc.n, UnZigZag(ZigZag(tc.n)))
	}
}

func TestReadLong_Errors(t *testing.T) {
	_, _, err := ReadLong(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = ReadLong([]byte{0x80, 0x80})
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = ReadLong([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01})
	assert.ErrorIs(t, err, ErrVarintOverflow)

	_, _, err = ReadLong([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02})
	assert.ErrorIs(t, err, ErrVarintOverflow)
}

func TestRoundTrip_AllKinds(t *testing.T) {
	s := mustParse(t, everythingSchema)
	v := buildEverything(t, s)

	data, err := Encode(v)
	require.NoError(t, err)

	back, err := Decode(data, s)
	require.NoError(t, err)
	assert.True(t, value.Equal(v, back))

	again, err := Encode(back)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRoundTrip_Primitives(t *testing.T) {
	testCases := []struct {
		schema string
		value  *value.Value
		want   []byte
	}{
		{`"null"`, value.Null(), nil},
		{`"boolean"`, value.Boolean(true), []byte{1}},
		{`"boolean"`, value.Boolean(false), []byte{0}},
		{`"int"`, value.Int(-2), []byte{0x03}},
		{`"long"`, value.Long(300), []byte{0xd8, 0x04}},
		{`"float"`, value.Float(1), []byte{0x00, 0x00, 0x80, 0x3f}},
		{`"double"`, value.Double(1), []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}},
		{`"bytes"`, value.Bytes([]byte{0xaa}), []byte{0x02, 0xaa}},
		{`"string"`, value.String(""), []byte{0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.schema, func(t *testing.T) {
			s := mustParse(t, tc.schema)
			data, err := EncodeWith(s, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, data)

			back, err := Decode(data, s)
			require.NoError(t, err)
			assert.True(t, value.Equal(tc.value, back))
		})
	}
}

func TestEncode_EmptyContainers(t *testing.T) {
	arrSchema := mustParse(t, `{"type": "array", "items": "long"}`)
	data, err := Encode(value.NewArray(arrSchema.Items(), 0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, data)

	back, err := Decode(data, arrSchema)
	require.NoError(t, err)
	assert.Equal(t, schema.Array, back.Kind())
	assert.Equal(t, 0, back.Len())

	mapSchema := mustParse(t, `{"type": "map", "values": "long"}`)
	data, err = Encode(value.NewMap(mapSchema.Values(), 0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, data)

	back, err = Decode(data, mapSchema)
	require.NoError(t, err)
	assert.Equal(t, schema.Map, back.Kind())
	assert.Equal(t, 0, back.Len())
}

func TestDecode_NegativeBlockCount(t *testing.T) {
	s := mustParse(t, `{"type": "array", "items": "long"}`)

	// three items in one positive block
	positive := []byte{0x06, 0x02, 0x04, 0x06, 0x00}
	// a block of -2 items with its byte size, then a block of one item
	items := AppendLong(nil, 1)
	items = AppendLong(items, 2)
	negative := AppendLong(nil, -2)
	negative = AppendLong(negative, int64(len(items)))
	negative = append(negative, items...)
	negative = append(negative, 0x02, 0x06, 0x00)

	a, err := Decode(positive, s)
	require.NoError(t, err)
	b, err := Decode(negative, s)
	require.NoError(t, err)

	assert.Equal(t, 3, b.Len())
	assert.True(t, value.Equal(a, b))
}

func TestDecode_NegativeBlockCountMap(t *testing.T) {
	s := mustParse(t, `{"type": "map", "values": "int"}`)

	entry := AppendLong(nil, 1)
	entry = append(entry, 'k')
	entry = AppendInt(entry, 7)

	positive := append(AppendLong(nil, 1), entry...)
	positive = append(positive, 0x00)

	negative := AppendLong(nil, -1)
	negative = AppendLong(negative, int64(len(entry)))
	negative = append(negative, entry...)
	negative = append(negative, 0x00)

	a, err := Decode(positive, s)
	require.NoError(t, err)
	b, err := Decode(negative, s)
	require.NoError(t, err)
	assert.True(t, value.Equal(a, b))
}

func TestRoundTrip_RecursiveThreeLevels(t *testing.T) {
	s := mustParse(t, nodeSchema)

	v, err := value.FromNative(s, map[string]any{
		"value": int64(1),
		"children": []any{
			map[string]any{
				"value": int64(2),
				"children": []any{
					map[string]any{"value": int64(3), "children": []any{}},
				},
			},
			map[string]any{"value": int64(4), "children": []any{}},
		},
	})
	require.NoError(t, err)

	data, err := Encode(v)
	require.NoError(t, err)
	back, err := Decode(data, s)
	require.NoError(t, err)
	assert.True(t, value.Equal(v, back))

	children, _ := back.Get("children")
	first, _ := children.Index(0)
	grand, _ := first.Get("children")
	leaf, _ := grand.Index(0)
	n, _ := leaf.Get("value")
	got, _ := n.AsLong()
	assert.Equal(t, int64(3), got)
}

func TestDecode_Truncated(t *testing.T) {
	s := mustParse(t, everythingSchema)
	data, err := Encode(buildEverything(t, s))
	require.NoError(t, err)

	for i := 0; i < len(data); i++ {
		_, err := Decode(data[:i], s)
		assert.ErrorIs(t, err, ErrTruncated, "prefix of %d bytes", i)
	}
}

func TestDecode_Errors(t *testing.T) {
	union := mustParse(t, `["null", "long"]`)
	_, err := Decode([]byte{0x04}, union)
	assert.ErrorIs(t, err, ErrInvalidUnionIndex)
	_, err = Decode([]byte{0x01}, union)
	assert.ErrorIs(t, err, ErrInvalidUnionIndex)

	enum := mustParse(t, `{"type": "enum", "name": "E", "symbols": ["A", "B"]}`)
	_, err = Decode([]byte{0x04}, enum)
	assert.ErrorIs(t, err, ErrInvalidEnumOrdinal)

	_, err = Decode([]byte{0x03, 'x'}, mustParse(t, `"string"`))
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = Decode([]byte{0x02}, mustParse(t, `"boolean"`))
	assert.ErrorIs(t, err, ErrInvalidBoolean)

	_, err = Decode(AppendLong(nil, math.MaxInt32+1), mustParse(t, `"int"`))
	assert.ErrorIs(t, err, ErrVarintOverflow)

	_, err = Decode([]byte{0x02, 0x00}, mustParse(t, `"long"`))
	assert.ErrorIs(t, err, ErrTrailingBytes)
}

func TestDecode_BlockCountExceedsInput(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		data   []byte
		want   error
	}{
		{
			name:   "long items",
			schema: `{"type": "array", "items": "long"}`,
			data:   append(AppendLong(nil, 1<<30), 0x02, 0x04),
			want:   ErrTruncated,
		},
		{
			name:   "double items",
			schema: `{"type": "array", "items": "double"}`,
			data:   append(AppendLong(nil, 2), make([]byte, 12)...),
			want:   ErrTruncated,
		},
		{
			name:   "map of nulls",
			schema: `{"type": "map", "values": "null"}`,
			data:   append(AppendLong(nil, 1<<30), 0x02, 'k'),
			want:   ErrTruncated,
		},
		{
			name:   "negative count",
			schema: `{"type": "array", "items": "string"}`,
			data:   append(AppendLong(AppendLong(nil, -(1<<28)), 4), 0x02, 'a'),
			want:   ErrTruncated,
		},
		{
			name:   "null items",
			schema: `{"type": "array", "items": "null"}`,
			data:   AppendLong(AppendLong(nil, 1<<22), 0),
			want:   ErrInvalidLength,
		},
		{
			name:   "empty record items across blocks",
			schema: `{"type": "array", "items": {"type": "record", "name": "Empty", "fields": []}}`,
			data:   AppendLong(AppendLong(AppendLong(nil, 10), MaxZeroWidthItems), 0),
			want:   ErrInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, mustParse(t, tt.schema))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_ZeroWidthItemsWithinLimit(t *testing.T) {
	s := mustParse(t, `{"type": "array", "items": "null"}`)
	v, err := Decode(AppendLong(AppendLong(nil, 1000), 0), s)
	require.NoError(t, err)
	assert.Equal(t, 1000, v.Len())

	// the limit applies per value, not per decoder
	var data []byte
	for i := 0; i < 3; i++ {
		data = AppendLong(data, MaxZeroWidthItems/2)
		data = AppendLong(data, 0)
	}
	d := NewDecoder(data)
	for i := 0; i < 3; i++ {
		v, err := d.Decode(s)
		require.NoError(t, err)
		assert.Equal(t, MaxZeroWidthItems/2, v.Len())
	}
}

// nodeChain encodes a Node whose children nest levels deep, one child per
// level.
func nodeChain(levels int) []byte {
	var data []byte
	for i := 0; i < levels; i++ {
		data = append(data, 0x00, 0x02)
	}
	data = append(data, 0x00, 0x00)
	for i := 0; i < levels; i++ {
		data = append(data, 0x00)
	}
	return data
}

func TestDecode_MaxDepth(t *testing.T) {
	s := mustParse(t, nodeSchema)

	v, err := Decode(nodeChain(100), s)
	require.NoError(t, err)
	assert.Equal(t, schema.Record, v.Kind())

	_, err = Decode(nodeChain(2000), s)
	assert.ErrorIs(t, err, ErrMaxDepth)

	// sibling subtrees do not accumulate depth
	var wide []byte
	wide = append(wide, 0x00)
	wide = AppendLong(wide, 3*MaxDepth)
	for i := 0; i < 3*MaxDepth; i++ {
		wide = append(wide, 0x00, 0x00)
	}
	wide = append(wide, 0x00)
	v, err = Decode(wide, s)
	require.NoError(t, err)
	children, _ := v.Get("children")
	assert.Equal(t, 3*MaxDepth, children.Len())
}

func TestDecode_NestedUnionsHitMaxDepth(t *testing.T) {
	s := mustParse(t, `{"type": "record", "name": "Link", "fields": [
		{"name": "next", "type": ["null", "Link"]}
	]}`)

	var data []byte
	for i := 0; i < MaxDepth; i++ {
		data = append(data, 0x02)
	}
	data = append(data, 0x00)

	_, err := Decode(data, s)
	assert.ErrorIs(t, err, ErrMaxDepth)

	v, err := Decode([]byte{0x02, 0x02, 0x00}, s)
	require.NoError(t, err)
	assert.Equal(t, schema.Record, v.Kind())
}

func TestDecoder_Sequence(t *testing.T) {
	s := mustParse(t, `"long"`)
	var data []byte
	for i := int64(0); i < 5; i++ {
		data = AppendLong(data, i*1000)
	}

	d := NewDecoder(data)
	for i := int64(0); i < 5; i++ {
		v, err := d.Decode(s)
		require.NoError(t, err)
		n, _ := v.AsLong()
		assert.Equal(t, i*1000, n)
	}
	assert.Equal(t, 0, d.Remaining())
	assert.Equal(t, len(data), d.Offset())
}

func TestEncodeWith_SchemaMismatch(t *testing.T) {
	pair := mustParse(t, pairSchema)
	other := mustParse(t, `{"type":"record","name":"Pair","fields":[{"name":"a","type":"long"}]}`)

	rec, err := value.NewRecord(pair)
	require.NoError(t, err)
	require.NoError(t, rec.Put("a", value.Long(1)))

	_, err = Encode(rec)
	assert.ErrorIs(t, err, ErrSchemaMismatch, "unset field")

	require.NoError(t, rec.Put("b", value.String("x")))
	_, err = EncodeWith(other, rec)
	assert.ErrorIs(t, err, ErrSchemaMismatch, "field count")

	_, err = EncodeWith(mustParse(t, `"string"`), value.Long(1))
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = EncodeWith(mustParse(t, `["null", "string"]`), value.Long(1))
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = EncodeWith(mustParse(t, `{"type": "fixed", "name": "F", "size": 2}`), value.Bytes([]byte{1, 2}))
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = Encode(nil)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestEncodeWith_ReordersFields(t *testing.T) {
	ab := mustParse(t, `{"type":"record","name":"R","fields":[{"name":"a","type":"long"},{"name":"b","type":"string"}]}`)
	ba := mustParse(t, `{"type":"record","name":"R","fields":[{"name":"b","type":"string"},{"name":"a","type":"long"}]}`)

	rec, err := value.NewRecord(ba)
	require.NoError(t, err)
	require.NoError(t, rec.Put("b", value.String("hi")))
	require.NoError(t, rec.Put("a", value.Long(1)))

	data, err := EncodeWith(ab, rec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x04, 0x68, 0x69}, data)
}

func TestEncodeWith_UnwrappedUnionMember(t *testing.T) {
	u := mustParse(t, `["null", "string"]`)
	data, err := EncodeWith(u, value.String("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x02, 'a'}, data)
}

func TestAppendRaw(t *testing.T) {
	raw := []byte{0x02, 0x04, 0x68, 0x69}
	out := AppendRaw([]byte{0xff}, raw)
	assert.Equal(t, []byte{0xff, 0x02, 0x04, 0x68, 0x69}, out)
}
