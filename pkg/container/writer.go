package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ssargent/avrokit/pkg/codec"
	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
	"github.com/ssargent/avrokit/pkg/wire"
)

// Writer frames encoded objects into compressed, sync-marked blocks. The
// header is written when the Writer is created. A Writer is not safe for
// concurrent use.
type Writer struct {
	schema *schema.Schema
	codec  codec.Codec
	sync   SyncMarker
	config WriterConfig
	logger *slog.Logger

	out io.Writer
	mem *bytes.Buffer // set for writers that own their output

	pending []byte
	count   int

	written   int64
	blocks    int
	objects   int64
	finalized bool
}

// NewWriter returns a Writer that accumulates the container in memory.
// Use IntoData to retrieve it.
func NewWriter(s *schema.Schema, config WriterConfig) (*Writer, error) {
	mem := &bytes.Buffer{}
	w, err := newWriter(mem, s, config)
	if err != nil {
		return nil, err
	}
	w.mem = mem
	return w, nil
}

// NewStreamWriter returns a Writer that writes the header and every
// flushed block to out.
func NewStreamWriter(out io.Writer, s *schema.Schema, config WriterConfig) (*Writer, error) {
	return newWriter(out, s, config)
}

func newWriter(out io.Writer, s *schema.Schema, config WriterConfig) (*Writer, error) {
	config = config.withDefaults()

	sync := NewSyncMarker()
	if config.SyncMarker != nil {
		sync = *config.SyncMarker
	}

	head, err := appendHeader(nil, s, config.Codec.Name(), config.Metadata, sync)
	if err != nil {
		return nil, err
	}
	if _, err := out.Write(head); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &Writer{
		schema:  s,
		codec:   config.Codec,
		sync:    sync,
		config:  config,
		logger:  config.Logger,
		out:     out,
		written: int64(len(head)),
	}, nil
}

// Append copies one encoded object into the pending block and returns the
// number of objects pending afterwards. A block is flushed automatically
// once it reaches the configured size or count, in which case Append
// returns 0.
func (w *Writer) Append(encoded []byte) (int, error) {
	if w.finalized {
		return 0, ErrFinalized
	}
	w.pending = append(w.pending, encoded...)
	w.count++

	if len(w.pending) >= w.config.BlockSize || (w.config.BlockCount > 0 && w.count >= w.config.BlockCount) {
		if _, err := w.Flush(); err != nil {
			return w.count, err
		}
	}
	return w.count, nil
}

// AppendValue encodes v under the writer schema and appends it.
func (w *Writer) AppendValue(v *value.Value) (int, error) {
	if w.finalized {
		return 0, ErrFinalized
	}
	start := len(w.pending)
	pending, err := wire.AppendValueWith(w.pending, w.schema, v)
	if err != nil {
		w.pending = w.pending[:start]
		return w.count, err
	}
	w.pending = pending[:start]
	return w.Append(pending[start:])
}

// Flush writes the pending objects as one block and returns the number of
// bytes written. It does nothing when no objects are pending.
func (w *Writer) Flush() (int, error) {
	if w.finalized {
		return 0, ErrFinalized
	}
	return w.flush()
}

func (w *Writer) flush() (int, error) {
	if w.count == 0 {
		return 0, nil
	}

	compressed, err := w.codec.Compress(w.pending)
	if err != nil {
		return 0, fmt.Errorf("compress block: %w", err)
	}

	block := make([]byte, 0, 2*wire.MaxVarintLen+len(compressed)+SyncSize)
	block = wire.AppendLong(block, int64(w.count))
	block = wire.AppendLong(block, int64(len(compressed)))
	block = append(block, compressed...)
	block = append(block, w.sync[:]...)

	if _, err := w.out.Write(block); err != nil {
		return 0, fmt.Errorf("write block: %w", err)
	}

	w.config.Observer.BlockWritten(w.codec.Name(), w.count, len(w.pending), len(compressed))
	w.logger.LogAttrs(context.Background(), slog.LevelDebug, "container: flushed block",
		slog.Int("objects", w.count),
		slog.Int("raw", len(w.pending)),
		slog.Int("compressed", len(compressed)),
		slog.String("codec", w.codec.Name()))

	w.written += int64(len(block))
	w.blocks++
	w.objects += int64(w.count)
	w.pending = w.pending[:0]
	w.count = 0
	return len(block), nil
}

// IntoData flushes any pending objects, finalizes the writer and returns
// the complete container. Only writers made by NewWriter support it.
func (w *Writer) IntoData() ([]byte, error) {
	if w.mem == nil {
		return nil, ErrNotInMemory
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return w.mem.Bytes(), nil
}

// Close flushes any pending objects and finalizes the writer. It does not
// close the underlying io.Writer.
func (w *Writer) Close() error {
	if w.finalized {
		return ErrFinalized
	}
	if _, err := w.flush(); err != nil {
		return err
	}
	w.finalized = true
	w.pending = nil
	return nil
}

func (w *Writer) Schema() *schema.Schema { return w.schema }
func (w *Writer) Codec() codec.Codec     { return w.codec }
func (w *Writer) SyncMarker() SyncMarker { return w.sync }

// Pending returns the number of objects waiting for the next flush.
func (w *Writer) Pending() int { return w.count }

// Blocks returns the number of blocks written so far.
func (w *Writer) Blocks() int { return w.blocks }

// Objects returns the number of objects in written blocks.
func (w *Writer) Objects() int64 { return w.objects }

// Size returns the number of bytes written so far, header included.
func (w *Writer) Size() int64 { return w.written }

// Finalized reports whether Close or IntoData has been called.
func (w *Writer) Finalized() bool { return w.finalized }

// RawWriter concatenates bare encoded objects without a header or block
// framing, for callers that frame the stream themselves.
type RawWriter struct {
	schema *schema.Schema
	buf    []byte
	count  int
}

func NewRawWriter(s *schema.Schema) *RawWriter {
	return &RawWriter{schema: s}
}

// Append copies one encoded object and returns the object count.
func (w *RawWriter) Append(encoded []byte) int {
	w.buf = wire.AppendRaw(w.buf, encoded)
	w.count++
	return w.count
}

func (w *RawWriter) AppendValue(v *value.Value) (int, error) {
	buf, err := wire.AppendValueWith(w.buf, w.schema, v)
	if err != nil {
		return w.count, err
	}
	w.buf = buf
	w.count++
	return w.count, nil
}

// Bytes returns the objects written so far. The slice is valid until the
// next call to Append or Reset.
func (w *RawWriter) Bytes() []byte { return w.buf }

func (w *RawWriter) Len() int { return w.count }

func (w *RawWriter) Reset() {
	w.buf = w.buf[:0]
	w.count = 0
}
