package codec

import (
	"fmt"

	"github.com/klauspost/compress/flate"
)

// Names of the supported codecs as they appear in the avro.codec header.
const (
	NullName    = "null"
	DeflateName = "deflate"
	SnappyName  = "snappy"
)

// MaxDecompressedSize bounds the output of decompressing a single block.
const MaxDecompressedSize = 1 << 28

// Codec compresses and decompresses whole container blocks.
type Codec interface {
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// Names returns the supported codec names.
func Names() []string {
	return []string{NullName, DeflateName, SnappyName}
}

// ByName returns the codec registered under name. The empty name means null,
// which is what a container without an avro.codec entry uses.
func ByName(name string) (Codec, error) {
	switch name {
	case "", NullName:
		return Null{}, nil
	case DeflateName:
		return Deflate{Level: flate.DefaultCompression}, nil
	case SnappyName:
		return Snappy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// Null stores blocks uncompressed.
type Null struct{}

func (Null) Name() string { return NullName }

// Compress returns src itself.
func (Null) Compress(src []byte) ([]byte, error) { return src, nil }

// Decompress returns src itself.
func (Null) Decompress(src []byte) ([]byte, error) { return src, nil }
