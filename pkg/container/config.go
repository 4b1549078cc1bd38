package container

import (
	"log/slog"
	"sort"

	"github.com/ssargent/avrokit/pkg/codec"
)

// DefaultBlockSize is the pending byte count that triggers a flush.
const DefaultBlockSize = 16000

// WriterConfig configures a Writer. The zero value writes uncompressed
// blocks of about DefaultBlockSize bytes with a random sync marker.
type WriterConfig struct {
	// Codec compresses blocks. Nil means codec.Null.
	Codec codec.Codec

	// BlockSize flushes a block once this many encoded bytes are pending.
	// Zero means DefaultBlockSize.
	BlockSize int

	// BlockCount flushes a block once this many objects are pending.
	// Zero means no limit.
	BlockCount int

	// SyncMarker pins the marker, which makes output reproducible.
	SyncMarker *SyncMarker

	// Metadata is written into the header next to avro.schema and
	// avro.codec. Keys starting with "avro." are rejected.
	Metadata map[string][]byte

	Observer Observer
	Logger   *slog.Logger
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.Codec == nil {
		c.Codec = codec.Null{}
	}
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	Observer Observer
	Logger   *slog.Logger
}

func (c ReaderConfig) withDefaults() ReaderConfig {
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Observer receives block-level events from writers and readers. Methods
// are called synchronously and must not block.
type Observer interface {
	BlockWritten(codec string, objects, rawBytes, compressedBytes int)
	BlockRead(codec string, objects, rawBytes, compressedBytes int)
	Desync(codec string)
}

type nopObserver struct{}

func (nopObserver) BlockWritten(string, int, int, int) {}
func (nopObserver) BlockRead(string, int, int, int)    {}
func (nopObserver) Desync(string)                      {}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
