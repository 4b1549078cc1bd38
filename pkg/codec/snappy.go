package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/golang/snappy"
)

// checksumSize is the length of the CRC trailer after a snappy block.
const checksumSize = 4

// Snappy compresses blocks with the snappy block format and appends the
// CRC-32 of the uncompressed data.
type Snappy struct{}

func (Snappy) Name() string { return SnappyName }

func (Snappy) Compress(src []byte) ([]byte, error) {
	out := snappy.Encode(nil, src)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(src)), nil
}

func (Snappy) Decompress(src []byte) ([]byte, error) {
	return unsnappy(src, MaxDecompressedSize)
}

// unsnappy checks the length header against limit before allocating the
// output.
func unsnappy(src []byte, limit int) ([]byte, error) {
	if len(src) < checksumSize {
		return nil, fmt.Errorf("%w: snappy block of %d bytes has no checksum", ErrCorrupt, len(src))
	}
	body, trailer := src[:len(src)-checksumSize], src[len(src)-checksumSize:]

	n, err := snappy.DecodedLen(body)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy: %v", ErrCorrupt, err)
	}
	if n > limit {
		return nil, fmt.Errorf("%w: snappy block declares %d bytes, limit %d", ErrTooLarge, n, limit)
	}

	out, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy: %v", ErrCorrupt, err)
	}

	want := binary.BigEndian.Uint32(trailer)
	if got := crc32.ChecksumIEEE(out); got != want {
		return nil, fmt.Errorf("%w: crc %08x, expected %08x", ErrChecksum, got, want)
	}
	return out, nil
}
