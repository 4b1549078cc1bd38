package container

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/avrokit/pkg/codec"
	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
	"github.com/ssargent/avrokit/pkg/wire"
)

const eventSchema = `{
	"type": "record", "name": "Event", "namespace": "test",
	"fields": [
		{"name": "id", "type": "long"},
		{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["CREATE", "DELETE"]}},
		{"name": "note", "type": ["null", "string"], "default": null},
		{"name": "tags", "type": {"type": "array", "items": "string"}, "default": []}
	]
}`

type logWriter struct {
	t testing.TB
}

func (w *logWriter) Write(b []byte) (int, error) {
	w.t.Log(strings.TrimSuffix(string(b), "\n"))
	return len(b), nil
}

func testLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func mustSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(eventSchema)
	require.NoError(t, err)
	return s
}

func makeEvents(t testing.TB, s *schema.Schema, n int) []*value.Value {
	t.Helper()
	out := make([]*value.Value, n)
	for i := range out {
		native := map[string]any{
			"id":   int64(i),
			"kind": []string{"CREATE", "DELETE"}[i%2],
			"tags": []any{fmt.Sprintf("t%d", i)},
		}
		if i%3 == 0 {
			native["note"] = fmt.Sprintf("note %d", i)
		}
		v, err := value.FromNative(s, native)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func writeContainer(t testing.TB, s *schema.Schema, values []*value.Value, config WriterConfig) []byte {
	t.Helper()
	if config.Logger == nil {
		config.Logger = testLogger(t)
	}
	w, err := NewWriter(s, config)
	require.NoError(t, err)
	for _, v := range values {
		_, err := w.AppendValue(v)
		require.NoError(t, err)
	}
	data, err := w.IntoData()
	require.NoError(t, err)
	return data
}

func readContainer(t testing.TB, data []byte, expected *schema.Schema) []*value.Value {
	t.Helper()
	r, err := NewReader(data, expected, ReaderConfig{Logger: testLogger(t)})
	require.NoError(t, err)
	values, err := r.ReadAll()
	require.NoError(t, err)
	return values
}

func pinned(b byte) *SyncMarker {
	var m SyncMarker
	for i := range m {
		m[i] = b + byte(i)
	}
	return &m
}

func TestContainer_RoundTrip(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 50)

	for _, name := range codec.Names() {
		c, err := codec.ByName(name)
		require.NoError(t, err)

		for _, blockCount := range []int{0, 1, 7} {
			t.Run(fmt.Sprintf("%s/blockCount=%d", name, blockCount), func(t *testing.T) {
				data := writeContainer(t, s, events, WriterConfig{Codec: c, BlockCount: blockCount})

				r, err := NewReader(data, s, ReaderConfig{Logger: testLogger(t)})
				require.NoError(t, err)
				assert.Equal(t, name, r.Codec().Name())

				got, err := r.ReadAll()
				require.NoError(t, err)
				require.Len(t, got, len(events))
				for i := range events {
					assert.True(t, value.Equal(events[i], got[i]), "event %d", i)
				}

				if blockCount > 0 {
					assert.Equal(t, (len(events)+blockCount-1)/blockCount, r.Blocks())
				}
				assert.Equal(t, len(data), r.Offset())

				_, err = r.ReadNext()
				assert.Equal(t, io.EOF, err, "EOF repeats")
			})
		}
	}
}

func TestContainer_Header(t *testing.T) {
	s := mustSchema(t)
	marker := pinned(0x10)

	w, err := NewWriter(s, WriterConfig{
		SyncMarker: marker,
		Metadata:   map[string][]byte{"origin": []byte("test")},
	})
	require.NoError(t, err)
	data, err := w.IntoData()
	require.NoError(t, err)

	assert.Equal(t, []byte("Obj\x01"), data[:4])
	assert.Equal(t, marker[:], data[len(data)-SyncSize:], "empty container ends with the header sync marker")

	r, err := NewReader(data, nil, ReaderConfig{})
	require.NoError(t, err)
	assert.Equal(t, *marker, r.SyncMarker())
	assert.Equal(t, s.Canonical(), r.Schema().Canonical())

	meta := r.Metadata()
	assert.Equal(t, []byte(s.Canonical()), meta[SchemaKey])
	assert.Equal(t, []byte("null"), meta[CodecKey])
	assert.Equal(t, []byte("test"), meta["origin"])

	_, err = r.ReadNext()
	assert.Equal(t, io.EOF, err)
}

func TestContainer_ReproducibleWithPinnedMarker(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 10)
	config := WriterConfig{Codec: codec.Snappy{}, SyncMarker: pinned(1)}

	a := writeContainer(t, s, events, config)
	b := writeContainer(t, s, events, config)
	assert.Equal(t, a, b)

	w1, err := NewWriter(s, WriterConfig{})
	require.NoError(t, err)
	w2, err := NewWriter(s, WriterConfig{})
	require.NoError(t, err)
	assert.NotEqual(t, w1.SyncMarker(), w2.SyncMarker(), "fresh marker per writer")
}

func TestWriter_FlushAndState(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 3)

	w, err := NewWriter(s, WriterConfig{Logger: testLogger(t)})
	require.NoError(t, err)

	n, err := w.Flush()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "flush with nothing pending is a no-op")
	assert.Equal(t, 0, w.Blocks())

	for i, ev := range events {
		pending, err := w.AppendValue(ev)
		require.NoError(t, err)
		assert.Equal(t, i+1, pending)
	}

	n, err = w.Flush()
	require.NoError(t, err)
	assert.Greater(t, n, SyncSize)
	assert.Equal(t, 0, w.Pending())
	assert.Equal(t, 1, w.Blocks())
	assert.Equal(t, int64(3), w.Objects())

	data, err := w.IntoData()
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), w.Size())
	assert.True(t, w.Finalized())

	_, err = w.Append([]byte{0})
	assert.ErrorIs(t, err, ErrFinalized)
	_, err = w.AppendValue(events[0])
	assert.ErrorIs(t, err, ErrFinalized)
	_, err = w.Flush()
	assert.ErrorIs(t, err, ErrFinalized)
	_, err = w.IntoData()
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, w.Close(), ErrFinalized)
}

func TestWriter_BlockSizeThreshold(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 20)

	w, err := NewWriter(s, WriterConfig{BlockSize: 64})
	require.NoError(t, err)
	for _, ev := range events {
		_, err := w.AppendValue(ev)
		require.NoError(t, err)
	}
	assert.Greater(t, w.Blocks(), 1)

	data, err := w.IntoData()
	require.NoError(t, err)
	got := readContainer(t, data, s)
	assert.Len(t, got, len(events))
}

func TestWriter_AppendValueMismatch(t *testing.T) {
	s := mustSchema(t)
	w, err := NewWriter(s, WriterConfig{})
	require.NoError(t, err)

	_, err = w.AppendValue(value.Long(1))
	assert.ErrorIs(t, err, wire.ErrSchemaMismatch)
	assert.Equal(t, 0, w.Pending())

	data, err := w.IntoData()
	require.NoError(t, err)
	assert.Empty(t, readContainer(t, data, s))
}

func TestWriter_AppendCopiesInput(t *testing.T) {
	s := schema.Primitive(schema.Long)
	w, err := NewWriter(s, WriterConfig{})
	require.NoError(t, err)

	buf := wire.AppendLong(nil, 42)
	_, err = w.Append(buf)
	require.NoError(t, err)
	buf[0] = 0x7f

	data, err := w.IntoData()
	require.NoError(t, err)
	got := readContainer(t, data, s)
	require.Len(t, got, 1)
	n, _ := got[0].AsLong()
	assert.Equal(t, int64(42), n)
}

func TestWriter_ReservedMetadata(t *testing.T) {
	_, err := NewWriter(mustSchema(t), WriterConfig{Metadata: map[string][]byte{"avro.custom": nil}})
	assert.ErrorIs(t, err, ErrReservedMetadata)
}

func TestStreamWriter(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 5)

	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf, s, WriterConfig{Codec: codec.Deflate{Level: 6}})
	require.NoError(t, err)
	headerSize := buf.Len()
	assert.Greater(t, headerSize, 0, "header written on creation")

	for _, ev := range events {
		_, err := w.AppendValue(ev)
		require.NoError(t, err)
	}
	_, err = w.IntoData()
	assert.ErrorIs(t, err, ErrNotInMemory)

	require.NoError(t, w.Close())
	assert.Greater(t, buf.Len(), headerSize)

	got := readContainer(t, buf.Bytes(), s)
	assert.Len(t, got, 5)
}

func TestReader_HeaderErrors(t *testing.T) {
	s := mustSchema(t)
	good := writeContainer(t, s, makeEvents(t, s, 2), WriterConfig{})

	_, err := NewReader(nil, nil, ReaderConfig{})
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = NewReader([]byte("Obj\x02rest"), nil, ReaderConfig{})
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = NewReader(good[:10], nil, ReaderConfig{})
	assert.ErrorIs(t, err, ErrTruncated)

	other := schema.MustParse(`{"type": "record", "name": "Other", "fields": []}`)
	_, err = NewReader(good, other, ReaderConfig{})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	noSchema := craftHeader(t, map[string]string{CodecKey: "null"}, *pinned(0))
	_, err = NewReader(noSchema, nil, ReaderConfig{})
	assert.ErrorIs(t, err, ErrMissingSchema)

	badCodec := craftHeader(t, map[string]string{SchemaKey: `"long"`, CodecKey: "lzma"}, *pinned(0))
	_, err = NewReader(badCodec, nil, ReaderConfig{})
	assert.ErrorIs(t, err, ErrUnsupportedCodec)

	noCodec := craftHeader(t, map[string]string{SchemaKey: `"long"`}, *pinned(0))
	r, err := NewReader(noCodec, nil, ReaderConfig{})
	require.NoError(t, err)
	assert.Equal(t, codec.NullName, r.Codec().Name(), "absent codec means null")
}

func TestReader_Desync(t *testing.T) {
	s := mustSchema(t)
	data := writeContainer(t, s, makeEvents(t, s, 6), WriterConfig{BlockCount: 3})

	for _, pos := range []int{len(data) - 1, len(data) - SyncSize} {
		corrupt := append([]byte(nil), data...)
		corrupt[pos] ^= 0xff

		obs := &recordingObserver{}
		r, err := NewReader(corrupt, s, ReaderConfig{Observer: obs, Logger: testLogger(t)})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := r.ReadNext()
			require.NoError(t, err, "first block is intact")
		}
		_, err = r.ReadNext()
		assert.ErrorIs(t, err, ErrDesyncedStream)
		assert.Equal(t, 1, obs.desyncs)

		_, err = r.ReadNext()
		assert.ErrorIs(t, err, ErrDesyncedStream, "errors are sticky")
	}
}

func TestReader_Truncated(t *testing.T) {
	s := mustSchema(t)
	data := writeContainer(t, s, makeEvents(t, s, 4), WriterConfig{Codec: codec.Snappy{}})

	r, err := NewReader(data[:len(data)-1], s, ReaderConfig{})
	require.NoError(t, err)
	_, err = r.ReadNext()
	assert.ErrorIs(t, err, ErrTruncated)

	header := headerLen(t, data)
	r, err = NewReader(data[:header+1], s, ReaderConfig{})
	require.NoError(t, err)
	_, err = r.ReadNext()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReader_CorruptBlocks(t *testing.T) {
	s := schema.Primitive(schema.Long)
	marker := *pinned(7)
	head := craftHeader(t, map[string]string{SchemaKey: `"long"`, CodecKey: "null"}, marker)

	block := func(count int64, body []byte) []byte {
		b := wire.AppendLong(nil, count)
		b = wire.AppendLong(b, int64(len(body)))
		b = append(b, body...)
		return append(b, marker[:]...)
	}
	longs := func(ns ...int64) []byte {
		var b []byte
		for _, n := range ns {
			b = wire.AppendLong(b, n)
		}
		return b
	}

	t.Run("negative count", func(t *testing.T) {
		data := append(append([]byte(nil), head...), block(-1, longs(1))...)
		r, err := NewReader(data, s, ReaderConfig{})
		require.NoError(t, err)
		_, err = r.ReadNext()
		assert.ErrorIs(t, err, ErrCorruptBlock)
	})

	t.Run("leftover bytes", func(t *testing.T) {
		data := append(append([]byte(nil), head...), block(1, longs(1, 2))...)
		r, err := NewReader(data, s, ReaderConfig{})
		require.NoError(t, err)
		v, err := r.ReadNext()
		require.NoError(t, err)
		n, _ := v.AsLong()
		assert.Equal(t, int64(1), n)
		_, err = r.ReadNext()
		assert.ErrorIs(t, err, ErrCorruptBlock)
	})

	t.Run("too few bytes for count", func(t *testing.T) {
		data := append(append([]byte(nil), head...), block(3, longs(1))...)
		r, err := NewReader(data, s, ReaderConfig{})
		require.NoError(t, err)
		_, err = r.ReadNext()
		require.NoError(t, err)
		_, err = r.ReadNext()
		assert.ErrorIs(t, err, ErrCorruptBlock)
		assert.ErrorIs(t, err, wire.ErrTruncated)
	})

	t.Run("empty blocks are skipped", func(t *testing.T) {
		data := append(append([]byte(nil), head...), block(0, nil)...)
		data = append(data, block(2, longs(5, 6))...)
		data = append(data, block(0, nil)...)
		r, err := NewReader(data, s, ReaderConfig{})
		require.NoError(t, err)
		values, err := r.ReadAll()
		require.NoError(t, err)
		assert.Len(t, values, 2)
		assert.Equal(t, 3, r.Blocks())
	})
}

func TestReader_SnappyChecksum(t *testing.T) {
	s := schema.Primitive(schema.String)
	marker := *pinned(3)

	w, err := NewWriter(s, WriterConfig{Codec: codec.Snappy{}, SyncMarker: &marker})
	require.NoError(t, err)
	_, err = w.AppendValue(value.String("checksummed"))
	require.NoError(t, err)
	data, err := w.IntoData()
	require.NoError(t, err)

	// last byte of the CRC trailer sits just before the sync marker
	data[len(data)-SyncSize-1] ^= 0xff

	r, err := NewReader(data, s, ReaderConfig{})
	require.NoError(t, err)
	_, err = r.ReadNext()
	assert.ErrorIs(t, err, ErrCorruptBlock)
	assert.ErrorIs(t, err, codec.ErrChecksum)
}

func TestIterator(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 12)
	data := writeContainer(t, s, events, WriterConfig{Codec: codec.Deflate{Level: 1}, BlockCount: 5})

	r, err := NewReader(data, nil, ReaderConfig{})
	require.NoError(t, err)

	it := r.Iterator()
	defer it.Close()

	var i int
	for it.Next() {
		assert.True(t, value.Equal(events[i], it.Value()))
		i++
	}
	require.NoError(t, it.Err())
	assert.Equal(t, len(events), i)
	assert.False(t, it.Next())

	bad := append([]byte(nil), data...)
	bad[len(bad)-1] ^= 1
	r, err = NewReader(bad, nil, ReaderConfig{})
	require.NoError(t, err)
	it = r.Iterator()
	for it.Next() {
	}
	assert.ErrorIs(t, it.Err(), ErrDesyncedStream)
}

func TestObserver(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 10)

	wobs := &recordingObserver{}
	data := writeContainer(t, s, events, WriterConfig{Codec: codec.Snappy{}, BlockCount: 4, Observer: wobs})
	assert.Equal(t, 3, wobs.written)
	assert.Equal(t, 10, wobs.objectsWritten)
	assert.Equal(t, codec.SnappyName, wobs.codec)

	robs := &recordingObserver{}
	r, err := NewReader(data, s, ReaderConfig{Observer: robs})
	require.NoError(t, err)
	_, err = r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 3, robs.read)
	assert.Equal(t, 10, robs.objectsRead)
	assert.Equal(t, wobs.rawBytes, robs.rawBytes)
}

func TestRawMode(t *testing.T) {
	s := mustSchema(t)
	events := makeEvents(t, s, 4)

	w := NewRawWriter(s)
	for _, ev := range events[:3] {
		_, err := w.AppendValue(ev)
		require.NoError(t, err)
	}
	encoded, err := wire.Encode(events[3])
	require.NoError(t, err)
	assert.Equal(t, 4, w.Append(encoded))
	_, err = w.AppendValue(value.Long(1))
	assert.ErrorIs(t, err, wire.ErrSchemaMismatch)
	assert.Equal(t, 4, w.Len())

	r := NewRawReader(w.Bytes(), s)
	for i := range events {
		v, err := r.ReadNext()
		require.NoError(t, err)
		assert.True(t, value.Equal(events[i], v))
	}
	_, err = r.ReadNext()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, len(w.Bytes()), r.Offset())

	w.Reset()
	assert.Empty(t, w.Bytes())
	assert.Equal(t, 0, w.Len())
}

func TestSyncMarker_String(t *testing.T) {
	m := *pinned(0)
	assert.Equal(t, "000102030405060708090a0b0c0d0e0f", m.String())

	back, err := ParseSyncMarker(m.String())
	require.NoError(t, err)
	assert.Equal(t, m, back)

	_, err = ParseSyncMarker("abcd")
	assert.Error(t, err)
}

// craftHeader builds a container header with arbitrary metadata.
func craftHeader(t testing.TB, meta map[string]string, marker SyncMarker) []byte {
	t.Helper()
	m := value.NewMap(schema.Primitive(schema.Bytes), len(meta))
	for k, v := range meta {
		require.NoError(t, m.Set(k, value.Bytes([]byte(v))))
	}
	out := append([]byte(nil), Magic[:]...)
	out, err := wire.AppendValue(out, m)
	require.NoError(t, err)
	return append(out, marker[:]...)
}

func headerLen(t testing.TB, data []byte) int {
	t.Helper()
	d := wire.NewDecoder(data)
	_, err := readHeader(d)
	require.NoError(t, err)
	return d.Offset()
}

type recordingObserver struct {
	written, read               int
	objectsWritten, objectsRead int
	rawBytes                    int
	desyncs                     int
	codec                       string
}

func (o *recordingObserver) BlockWritten(codec string, objects, raw, compressed int) {
	o.written++
	o.objectsWritten += objects
	o.rawBytes += raw
	o.codec = codec
}

func (o *recordingObserver) BlockRead(codec string, objects, raw, compressed int) {
	o.read++
	o.objectsRead += objects
	o.rawBytes += raw
}

func (o *recordingObserver) Desync(string) {
	o.desyncs++
}
