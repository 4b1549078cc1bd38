package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	json "github.com/goccy/go-json"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/avrokit/pkg/container"
)

// Error is returned by the archive.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotContainer = &Error{"data is not a readable object container"}
	ErrNotFound     = &Error{"container not found"}
)

const (
	blobPrefix = 'c'
	infoPrefix = 'i'
)

// Info summarizes a stored container.
type Info struct {
	ID          string    `json:"id"`
	Codec       string    `json:"codec"`
	Schema      string    `json:"schema"`
	Fingerprint string    `json:"fingerprint"`
	SyncMarker  string    `json:"sync_marker"`
	Size        int       `json:"size"`
	Created     time.Time `json:"created"`
}

// Options configures an archive.
type Options struct {
	// Sync makes every write durable before returning.
	Sync bool
}

// Archive stores object containers in pebble, keyed by KSUID.
type Archive struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
}

func Open(path string, opts Options) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}
	return &Archive{db: db, writeOpts: writeOpts}, nil
}

// Create validates the container header in data and stores it under a new
// id.
func (a *Archive) Create(data []byte) (ksuid.KSUID, error) {
	r, err := container.NewReader(data, nil, container.ReaderConfig{})
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: %w", ErrNotContainer, err)
	}

	id := ksuid.New()
	info, err := json.Marshal(Info{
		ID:          id.String(),
		Codec:       r.Codec().Name(),
		Schema:      r.Schema().FullName(),
		Fingerprint: fmt.Sprintf("%016x", r.Schema().Fingerprint()),
		SyncMarker:  r.SyncMarker().String(),
		Size:        len(data),
		Created:     id.Time().UTC(),
	})
	if err != nil {
		return ksuid.Nil, err
	}

	batch := a.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(key(blobPrefix, id), data, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := batch.Set(key(infoPrefix, id), info, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := batch.Commit(a.writeOpts); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Read returns the stored container bytes.
func (a *Archive) Read(id ksuid.KSUID) ([]byte, error) {
	return a.get(key(blobPrefix, id))
}

// Info returns the summary recorded when the container was stored.
func (a *Archive) Info(id ksuid.KSUID) (*Info, error) {
	raw, err := a.get(key(infoPrefix, id))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Delete removes a container. Deleting a missing id is not an error.
func (a *Archive) Delete(id ksuid.KSUID) error {
	batch := a.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(key(blobPrefix, id), nil); err != nil {
		return err
	}
	if err := batch.Delete(key(infoPrefix, id), nil); err != nil {
		return err
	}
	return batch.Commit(a.writeOpts)
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// get copies the value out, since pebble's slice is only valid until the
// closer is closed.
func (a *Archive) get(k []byte) ([]byte, error) {
	data, closer, err := a.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), data...)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func key(prefix byte, id ksuid.KSUID) []byte {
	return append([]byte{prefix}, id.Bytes()...)
}
