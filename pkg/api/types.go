package api

import (
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/ssargent/avrokit/pkg/container"
	"github.com/ssargent/avrokit/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SchemaResponse describes a parsed schema
type SchemaResponse struct {
	Name        string `json:"name"`
	Canonical   string `json:"canonical"`
	Fingerprint string `json:"fingerprint"`
}

// CreateContainerRequest carries records in the Avro JSON encoding. Schema is
// the schema document itself, not a string holding it.
type CreateContainerRequest struct {
	Schema  json.RawMessage `json:"schema"`
	Codec   string          `json:"codec,omitempty"`
	Records []interface{}   `json:"records"`
}

// ContainerResponse is returned after a container is stored
type ContainerResponse struct {
	ID      string        `json:"id"`
	Objects int64         `json:"objects"`
	Blocks  int           `json:"blocks"`
	Info    *storage.Info `json:"info,omitempty"`
}

// RecordsResponse holds the decoded content of a container
type RecordsResponse struct {
	Schema     string        `json:"schema"`
	Codec      string        `json:"codec"`
	SyncMarker string        `json:"sync_marker"`
	Count      int           `json:"count"`
	Records    []interface{} `json:"records"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // empty disables authentication

	// Writer supplies defaults for containers built by the API. Its
	// Observer and Logger are replaced by the server's own.
	Writer container.WriterConfig

	Logger *slog.Logger
}
