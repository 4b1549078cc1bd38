package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ssargent/avrokit/pkg/codec"
	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
	"github.com/ssargent/avrokit/pkg/wire"
)

// Reader iterates the objects of a container held in memory. Any error
// other than io.EOF is fatal to the Reader. A Reader is not safe for
// concurrent use.
type Reader struct {
	schema *schema.Schema
	codec  codec.Codec
	meta   map[string][]byte
	sync   SyncMarker
	config ReaderConfig
	logger *slog.Logger

	dec       *wire.Decoder
	block     *wire.Decoder
	remaining int64

	blocks  int
	objects int64
	err     error
}

// NewReader parses the container header in data. When expected is not nil
// the container schema must have the same canonical form, and decoded
// values use expected. Otherwise the schema from the header is used.
func NewReader(data []byte, expected *schema.Schema, config ReaderConfig) (*Reader, error) {
	config = config.withDefaults()

	dec := wire.NewDecoder(data)
	h, err := readHeader(dec)
	if err != nil {
		return nil, err
	}

	c, err := codec.ByName(string(h.meta[CodecKey]))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, h.meta[CodecKey])
	}

	text, ok := h.meta[SchemaKey]
	if !ok {
		return nil, ErrMissingSchema
	}
	written, err := schema.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptHeader, err)
	}

	s := written
	if expected != nil {
		if expected.Canonical() != written.Canonical() {
			return nil, fmt.Errorf("%w: container has %s", ErrSchemaMismatch, written.Canonical())
		}
		s = expected
	}

	return &Reader{
		schema: s,
		codec:  c,
		meta:   h.meta,
		sync:   h.sync,
		config: config,
		logger: config.Logger,
		dec:    dec,
	}, nil
}

// ReadNext returns the next object, or io.EOF once every block has been
// read. Empty blocks are skipped.
func (r *Reader) ReadNext() (*value.Value, error) {
	if r.err != nil {
		return nil, r.err
	}
	v, err := r.readNext()
	if err != nil {
		r.err = err
		return nil, err
	}
	return v, nil
}

func (r *Reader) readNext() (*value.Value, error) {
	for r.remaining == 0 {
		if r.block != nil && r.block.Remaining() > 0 {
			return nil, fmt.Errorf("%w: %d bytes left after block %d", ErrCorruptBlock, r.block.Remaining(), r.blocks)
		}
		r.block = nil
		if r.dec.Remaining() == 0 {
			return nil, io.EOF
		}
		if err := r.nextBlock(); err != nil {
			return nil, err
		}
	}

	v, err := r.block.Decode(r.schema)
	if err != nil {
		return nil, fmt.Errorf("%w: object %d of block %d: %w", ErrCorruptBlock, r.objects, r.blocks, err)
	}
	r.remaining--
	r.objects++
	return v, nil
}

func (r *Reader) nextBlock() error {
	start := r.dec.Offset()

	count, err := r.dec.ReadLong()
	if err != nil {
		return blockError(err)
	}
	if count < 0 {
		return fmt.Errorf("%w: object count %d at offset %d", ErrCorruptBlock, count, start)
	}
	size, err := r.dec.ReadLong()
	if err != nil {
		return blockError(err)
	}
	if size < 0 {
		return fmt.Errorf("%w: block size %d at offset %d", ErrCorruptBlock, size, start)
	}
	if size > int64(r.dec.Remaining()) {
		return fmt.Errorf("%w: block of %d bytes at offset %d, %d left", ErrTruncated, size, start, r.dec.Remaining())
	}
	body, err := r.dec.ReadFixed(int(size))
	if err != nil {
		return blockError(err)
	}
	marker, err := r.dec.ReadFixed(SyncSize)
	if err != nil {
		return blockError(err)
	}
	if !bytes.Equal(marker, r.sync[:]) {
		r.config.Observer.Desync(r.codec.Name())
		r.logger.LogAttrs(context.Background(), slog.LevelWarn, "container: sync marker mismatch",
			slog.Int("offset", start),
			slog.Int("block", r.blocks),
			slog.String("expected", r.sync.String()),
			slog.String("found", fmt.Sprintf("%x", marker)))
		return fmt.Errorf("%w: block %d at offset %d", ErrDesyncedStream, r.blocks, start)
	}

	raw, err := r.codec.Decompress(body)
	if err != nil {
		return fmt.Errorf("%w: block %d: %w", ErrCorruptBlock, r.blocks, err)
	}

	r.config.Observer.BlockRead(r.codec.Name(), int(count), len(raw), len(body))
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "container: read block",
		slog.Int("block", r.blocks),
		slog.Int64("objects", count),
		slog.Int("raw", len(raw)),
		slog.Int("compressed", len(body)))

	r.blocks++
	r.remaining = count
	r.block = wire.NewDecoder(raw)
	return nil
}

func blockError(err error) error {
	if isTruncated(err) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return fmt.Errorf("%w: %v", ErrCorruptBlock, err)
}

func isTruncated(err error) bool {
	return errors.Is(err, wire.ErrTruncated)
}

// ReadAll reads every remaining object.
func (r *Reader) ReadAll() ([]*value.Value, error) {
	var out []*value.Value
	for {
		v, err := r.ReadNext()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

func (r *Reader) Schema() *schema.Schema { return r.schema }
func (r *Reader) Codec() codec.Codec     { return r.codec }
func (r *Reader) SyncMarker() SyncMarker { return r.sync }

// Metadata returns a copy of the header metadata, reserved keys included.
func (r *Reader) Metadata() map[string][]byte {
	out := make(map[string][]byte, len(r.meta))
	for k, v := range r.meta {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// Offset returns the position in the container just past the last block
// read.
func (r *Reader) Offset() int { return r.dec.Offset() }

// Blocks returns the number of blocks read so far.
func (r *Reader) Blocks() int { return r.blocks }

// Objects returns the number of objects read so far.
func (r *Reader) Objects() int64 { return r.objects }

// Iterator wraps a Reader in a Next/Value loop:
//
//	it := r.Iterator()
//	defer it.Close()
//	for it.Next() {
//	    use(it.Value())
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
type Iterator struct {
	r   *Reader
	cur *value.Value
	err error
	end bool
}

func (r *Reader) Iterator() *Iterator {
	return &Iterator{r: r}
}

// Next advances to the next object. It returns false at the end of the
// container, after an error, or after Close.
func (it *Iterator) Next() bool {
	if it.end {
		return false
	}
	v, err := it.r.ReadNext()
	if err != nil {
		it.end = true
		it.cur = nil
		if err != io.EOF {
			it.err = err
		}
		return false
	}
	it.cur = v
	return true
}

func (it *Iterator) Value() *value.Value { return it.cur }

// Err returns the error that stopped iteration, if any. Reaching the end
// of the container is not an error.
func (it *Iterator) Err() error { return it.err }

func (it *Iterator) Close() error {
	it.end = true
	it.cur = nil
	return nil
}

// RawReader decodes bare objects written back to back, as produced by
// RawWriter.
type RawReader struct {
	schema *schema.Schema
	dec    *wire.Decoder
}

func NewRawReader(data []byte, s *schema.Schema) *RawReader {
	return &RawReader{schema: s, dec: wire.NewDecoder(data)}
}

// ReadNext returns the next object, or io.EOF when data is exhausted.
func (r *RawReader) ReadNext() (*value.Value, error) {
	if r.dec.Remaining() == 0 {
		return nil, io.EOF
	}
	return r.dec.Decode(r.schema)
}

func (r *RawReader) Offset() int { return r.dec.Offset() }
