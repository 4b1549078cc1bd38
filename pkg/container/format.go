package container

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
	"github.com/ssargent/avrokit/pkg/wire"
)

// Magic opens every object container.
var Magic = [4]byte{'O', 'b', 'j', 1}

// Reserved metadata keys.
const (
	SchemaKey = "avro.schema"
	CodecKey  = "avro.codec"

	reservedPrefix = "avro."
)

// SyncSize is the length of a sync marker.
const SyncSize = 16

// SyncMarker separates data blocks. Each container has its own.
type SyncMarker [SyncSize]byte

// NewSyncMarker returns a random marker built from a version 4 UUID.
func NewSyncMarker() SyncMarker {
	return SyncMarker(uuid.New())
}

func (m SyncMarker) String() string {
	return hex.EncodeToString(m[:])
}

// ParseSyncMarker decodes the hex form returned by String.
func ParseSyncMarker(text string) (SyncMarker, error) {
	var m SyncMarker
	b, err := hex.DecodeString(text)
	if err != nil || len(b) != SyncSize {
		return m, fmt.Errorf("invalid sync marker %q", text)
	}
	copy(m[:], b)
	return m, nil
}

// metadataSchema is the map<string, bytes> of the container header.
var metadataSchema = schema.MapOf(schema.Primitive(schema.Bytes))

// appendHeader writes magic, metadata and sync marker. User metadata must
// not use the avro. prefix.
func appendHeader(dst []byte, s *schema.Schema, codecName string, user map[string][]byte, sync SyncMarker) ([]byte, error) {
	meta := value.NewMap(schema.Primitive(schema.Bytes), len(user)+2)
	if err := meta.Set(SchemaKey, value.Bytes([]byte(s.Canonical()))); err != nil {
		return dst, err
	}
	if err := meta.Set(CodecKey, value.Bytes([]byte(codecName))); err != nil {
		return dst, err
	}
	for _, k := range sortedKeys(user) {
		if strings.HasPrefix(k, reservedPrefix) {
			return dst, fmt.Errorf("%w: %q", ErrReservedMetadata, k)
		}
		if err := meta.Set(k, value.Bytes(user[k])); err != nil {
			return dst, err
		}
	}

	dst = append(dst, Magic[:]...)
	dst, err := wire.AppendValue(dst, meta)
	if err != nil {
		return dst, err
	}
	return append(dst, sync[:]...), nil
}

// header is the decoded front matter of a container.
type header struct {
	meta map[string][]byte
	sync SyncMarker
}

func readHeader(d *wire.Decoder) (*header, error) {
	magic, err := d.ReadFixed(len(Magic))
	if err != nil || [4]byte(magic) != Magic {
		return nil, ErrBadMagic
	}

	m, err := d.Decode(metadataSchema)
	if err != nil {
		return nil, headerError(err)
	}
	h := &header{meta: make(map[string][]byte, m.Len())}
	for i := 0; i < m.Len(); i++ {
		k, v := m.EntryAt(i)
		b, _ := v.AsBytes()
		h.meta[k] = b
	}

	sync, err := d.ReadFixed(SyncSize)
	if err != nil {
		return nil, headerError(err)
	}
	copy(h.sync[:], sync)
	return h, nil
}

func headerError(err error) error {
	if isTruncated(err) {
		return fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	return fmt.Errorf("%w: %v", ErrCorruptHeader, err)
}
