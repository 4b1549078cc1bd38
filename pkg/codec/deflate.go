package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Deflate compresses blocks as raw deflate streams. Level takes the values
// of the flate package, from flate.HuffmanOnly to flate.BestCompression.
type Deflate struct {
	Level int
}

// NewDeflate returns a deflate codec after checking that level is valid.
func NewDeflate(level int) (Deflate, error) {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return Deflate{}, fmt.Errorf("%w: deflate level %d", ErrUnsupported, level)
	}
	return Deflate{Level: level}, nil
}

func (Deflate) Name() string { return DeflateName }

func (d Deflate) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, d.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: deflate level %d", ErrUnsupported, d.Level)
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Deflate) Decompress(src []byte) ([]byte, error) {
	return inflate(src, MaxDecompressedSize)
}

// inflate decompresses src, failing once the output grows past limit bytes.
func inflate(src []byte, limit int64) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: deflate: %v", ErrCorrupt, err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: deflate output exceeds %d bytes", ErrTooLarge, limit)
	}
	return out, nil
}
