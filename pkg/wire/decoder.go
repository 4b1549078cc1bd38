package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
)

// maxBlockCount bounds the item count of a single array or map block.
const maxBlockCount = 1 << 31

const (
	// MaxDepth bounds how deeply records, arrays, maps and unions may nest
	// in a single decoded value.
	MaxDepth = 1024

	// MaxZeroWidthItems bounds how many array items that occupy no bytes on
	// the wire, such as nulls, a single decoded value may hold.
	MaxZeroWidthItems = 1 << 20
)

// Decoder reads values from the front of a byte slice. After an error the
// position is unspecified and the decoder should be discarded.
type Decoder struct {
	data []byte
	pos  int

	depth     int
	zeroWidth int64
	widths    map[*schema.Schema]int
}

// NewDecoder returns a decoder positioned at the start of data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Decode decodes exactly one value of schema s from data.
func Decode(data []byte, s *schema.Schema) (*value.Value, error) {
	d := NewDecoder(data)
	v, err := d.Decode(s)
	if err != nil {
		return nil, err
	}
	if d.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, d.Remaining())
	}
	return v, nil
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

// ReadLong reads one zig-zag varint.
func (d *Decoder) ReadLong() (int64, error) {
	n, size, err := ReadLong(d.data[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += size
	return n, nil
}

// ReadInt reads a varint and rejects values outside the int32 range.
func (d *Decoder) ReadInt() (int32, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d does not fit an int", ErrVarintOverflow, n)
	}
	return int32(n), nil
}

// ReadFixed returns the next n bytes. The slice aliases the input.
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if n > d.Remaining() {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrTruncated, n, d.Remaining())
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadBytes reads a length-prefixed byte string. The slice aliases the
// input.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadLong()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrInvalidLength, n)
	}
	if n > int64(d.Remaining()) {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrTruncated, n, d.Remaining())
	}
	return d.ReadFixed(int(n))
}

// ReadString reads a length-prefixed string. Unlike ReadBytes the result
// is a copy.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readBlockCount reads an array or map block header. A negative count is
// followed by the block's size in bytes, which is read and ignored since
// every item is materialized anyway.
func (d *Decoder) readBlockCount() (int64, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		if n == math.MinInt64 {
			return 0, fmt.Errorf("%w: block count %d", ErrInvalidLength, n)
		}
		n = -n
		size, err := d.ReadLong()
		if err != nil {
			return 0, err
		}
		if size < 0 {
			return 0, fmt.Errorf("%w: block size %d", ErrInvalidLength, size)
		}
	}
	if n > maxBlockCount {
		return 0, fmt.Errorf("%w: block count %d", ErrInvalidLength, n)
	}
	return n, nil
}

// reserve checks a block of n items, each at least width bytes on the wire,
// against the unread input before any of them is decoded.
func (d *Decoder) reserve(n int64, width int) error {
	if width > 0 {
		if n > int64(d.Remaining()/width) {
			return fmt.Errorf("%w: block of %d items needs at least %d bytes each, have %d",
				ErrTruncated, n, width, d.Remaining())
		}
		return nil
	}
	d.zeroWidth += n
	if d.zeroWidth > MaxZeroWidthItems {
		return fmt.Errorf("%w: more than %d zero-width items", ErrInvalidLength, MaxZeroWidthItems)
	}
	return nil
}

// minWidth returns the fewest bytes any value of s can encode to.
func (d *Decoder) minWidth(s *schema.Schema) int {
	if w, ok := d.widths[s]; ok {
		return w
	}
	if d.widths == nil {
		d.widths = make(map[*schema.Schema]int)
	}
	// a record reached again through itself counts as zero until resolved
	d.widths[s] = 0
	w := 0
	switch s.Kind() {
	case schema.Null:
	case schema.Float:
		w = 4
	case schema.Double:
		w = 8
	case schema.Fixed:
		w = s.Size()
	case schema.Record:
		for _, f := range s.Fields() {
			w += d.minWidth(f.Type)
		}
	default:
		w = 1
	}
	d.widths[s] = w
	return w
}

// Decode reads one value of schema s.
func (d *Decoder) Decode(s *schema.Schema) (*value.Value, error) {
	switch s.Kind() {
	case schema.Array, schema.Map, schema.Union, schema.Record:
		if d.depth >= MaxDepth {
			return nil, fmt.Errorf("%w: %d levels", ErrMaxDepth, MaxDepth)
		}
		if d.depth == 0 {
			d.zeroWidth = 0
		}
		d.depth++
		v, err := d.decodeComplex(s)
		d.depth--
		return v, err
	}
	return d.decodeScalar(s)
}

func (d *Decoder) decodeScalar(s *schema.Schema) (*value.Value, error) {
	switch s.Kind() {
	case schema.Null:
		return value.Null(), nil
	case schema.Boolean:
		b, err := d.ReadFixed(1)
		if err != nil {
			return nil, err
		}
		if b[0] > 1 {
			return nil, fmt.Errorf("%w: %#x", ErrInvalidBoolean, b[0])
		}
		return value.Boolean(b[0] == 1), nil
	case schema.Int:
		n, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil
	case schema.Long:
		n, err := d.ReadLong()
		if err != nil {
			return nil, err
		}
		return value.Long(n), nil
	case schema.Float:
		b, err := d.ReadFixed(4)
		if err != nil {
			return nil, err
		}
		return value.Float(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case schema.Double:
		b, err := d.ReadFixed(8)
		if err != nil {
			return nil, err
		}
		return value.Double(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case schema.Bytes:
		b, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		return value.Bytes(b), nil
	case schema.String:
		str, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return value.String(str), nil
	case schema.Fixed:
		b, err := d.ReadFixed(s.Size())
		if err != nil {
			return nil, err
		}
		return value.NewFixed(s, b)
	case schema.Enum:
		n, err := d.ReadLong()
		if err != nil {
			return nil, err
		}
		if n < 0 || n >= int64(len(s.Symbols())) {
			return nil, fmt.Errorf("%w: %d for %s", ErrInvalidEnumOrdinal, n, s.FullName())
		}
		return value.NewEnumOrdinal(s, int(n))
	}
	return nil, fmt.Errorf("%w: unknown kind %s", ErrSchemaMismatch, s.Kind())
}

func (d *Decoder) decodeComplex(s *schema.Schema) (*value.Value, error) {
	switch s.Kind() {
	case schema.Array:
		return d.decodeArray(s)
	case schema.Map:
		return d.decodeMap(s)
	case schema.Union:
		n, err := d.ReadLong()
		if err != nil {
			return nil, err
		}
		if n < 0 || n >= int64(len(s.Branches())) {
			return nil, fmt.Errorf("%w: %d of %d branches", ErrInvalidUnionIndex, n, len(s.Branches()))
		}
		inner, err := d.Decode(s.Branches()[n])
		if err != nil {
			return nil, err
		}
		return value.UnionBranch(s, int(n), inner)
	case schema.Record:
		fields := make([]*value.Value, len(s.Fields()))
		for i, f := range s.Fields() {
			x, err := d.Decode(f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields[i] = x
		}
		return value.RecordOf(s, fields)
	}
	return nil, fmt.Errorf("%w: unknown kind %s", ErrSchemaMismatch, s.Kind())
}

func (d *Decoder) decodeArray(s *schema.Schema) (*value.Value, error) {
	arr := value.NewArray(s.Items(), 0)
	for {
		n, err := d.readBlockCount()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return arr, nil
		}
		if err := d.reserve(n, d.minWidth(s.Items())); err != nil {
			return nil, err
		}
		for ; n > 0; n-- {
			item, err := d.Decode(s.Items())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", arr.Len(), err)
			}
			if err := arr.Append(item); err != nil {
				return nil, err
			}
		}
	}
}

func (d *Decoder) decodeMap(s *schema.Schema) (*value.Value, error) {
	m := value.NewMap(s.Values(), 0)
	for {
		n, err := d.readBlockCount()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return m, nil
		}
		// every entry carries at least its key length
		if err := d.reserve(n, 1+d.minWidth(s.Values())); err != nil {
			return nil, err
		}
		for ; n > 0; n-- {
			key, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			item, err := d.Decode(s.Values())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			if err := m.Set(key, item); err != nil {
				return nil, err
			}
		}
	}
}
