// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/avrokit/pkg/storage"
)

// Archive defines the container storage operations used by the handlers
type Archive interface {
	Create(data []byte) (ksuid.KSUID, error)
	Read(id ksuid.KSUID) ([]byte, error)
	Info(id ksuid.KSUID) (*storage.Info, error)
	Delete(id ksuid.KSUID) error
}

var _ Archive = (*storage.Archive)(nil)

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, archive Archive, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
