package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/avrokit/pkg/codec"
	"github.com/ssargent/avrokit/pkg/container"
	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/storage"
	"github.com/ssargent/avrokit/pkg/value"
)

// maxBodySize caps request bodies.
const maxBodySize = 64 << 20

// ContentTypeAvro is the media type of raw container bytes.
const ContentTypeAvro = "avro/binary"

// handleHealth godoc
//
//	@Summary		Health check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleParseSchema godoc
//
//	@Summary		Parse a schema
//	@Description	Returns the full name, Parsing Canonical Form and CRC-64-AVRO fingerprint of a schema
//	@Tags			schemas
//	@Accept			json
//	@Produce		json
//	@Param			schema	body		object	true	"Schema document"
//	@Success		200		{object}	SchemaResponse
//	@Failure		400		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/schemas [post]
func (s *Server) handleParseSchema(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	sch, err := schema.Parse(string(body))
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid schema: %v", err), http.StatusBadRequest)
		return
	}

	sendSuccess(w, SchemaResponse{
		Name:        sch.FullName(),
		Canonical:   sch.Canonical(),
		Fingerprint: fmt.Sprintf("%016x", sch.Fingerprint()),
	})
}

// handleCreateContainer godoc
//
//	@Summary		Create a container
//	@Description	Encodes JSON records into an object container and stores it in the archive
//	@Tags			containers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateContainerRequest	true	"Schema, codec and records"
//	@Success		201		{object}	ContainerResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/containers [post]
func (s *Server) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	var req CreateContainerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if len(req.Schema) == 0 {
		sendError(w, "Schema is required", http.StatusBadRequest)
		return
	}

	sch, err := schema.Parse(string(req.Schema))
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid schema: %v", err), http.StatusBadRequest)
		return
	}

	writer, err := s.newWriter(sch, req.Codec)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	for i, record := range req.Records {
		v, err := value.FromNative(sch, record)
		if err != nil {
			sendError(w, fmt.Sprintf("Record %d: %v", i, err), http.StatusBadRequest)
			return
		}
		if _, err := writer.AppendValue(v); err != nil {
			sendError(w, fmt.Sprintf("Record %d: %v", i, err), http.StatusBadRequest)
			return
		}
	}
	data, err := writer.IntoData()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to finish container: %v", err), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	id, err := s.archive.Create(data)
	s.metrics.RecordArchiveOperation("create", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to store container: %v", err), http.StatusInternalServerError)
		return
	}

	info, err := s.archive.Info(id)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to read container info: %v", err), http.StatusInternalServerError)
		return
	}

	s.logger.LogAttrs(r.Context(), slog.LevelDebug, "api: stored container",
		slog.String("id", id.String()),
		slog.Int64("objects", writer.Objects()),
		slog.String("codec", writer.Codec().Name()))

	sendCreated(w, ContainerResponse{
		ID:      id.String(),
		Objects: writer.Objects(),
		Blocks:  writer.Blocks(),
		Info:    info,
	})
}

// handleGetContainer godoc
//
//	@Summary	Decode a stored container
//	@Tags		containers
//	@Produce	json
//	@Param		id	path		string	true	"Container id"
//	@Success	200	{object}	RecordsResponse
//	@Failure	404	{object}	APIResponse
//	@Security	ApiKeyAuth
//	@Router		/containers/{id} [get]
func (s *Server) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readContainer(w, r)
	if !ok {
		return
	}

	resp, err := s.decodeRecords(data)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to decode container: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, resp)
}

// handleGetRaw returns the stored container bytes unchanged
func (s *Server) handleGetRaw(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readContainer(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", ContentTypeAvro)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	info, err := s.archive.Info(id)
	s.metrics.RecordArchiveOperation("info", err == nil || errors.Is(err, storage.ErrNotFound), time.Since(start))
	if err != nil {
		sendArchiveError(w, err)
		return
	}
	sendSuccess(w, info)
}

func (s *Server) handleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	if _, err := s.archive.Info(id); err != nil {
		s.metrics.RecordArchiveOperation("delete", errors.Is(err, storage.ErrNotFound), time.Since(start))
		sendArchiveError(w, err)
		return
	}
	err := s.archive.Delete(id)
	s.metrics.RecordArchiveOperation("delete", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to delete container: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]string{"message": "Container deleted successfully"})
}

// handleDecode decodes a container posted as the request body without
// storing it.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	resp, err := s.decodeRecords(data)
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid container: %v", err), http.StatusUnprocessableEntity)
		return
	}
	sendSuccess(w, resp)
}

// newWriter returns an in-memory writer using the configured defaults, with
// the codec overridden when name is set.
func (s *Server) newWriter(sch *schema.Schema, name string) (*container.Writer, error) {
	cfg := s.config.Writer
	if name != "" {
		c, err := codec.ByName(name)
		if err != nil {
			return nil, err
		}
		cfg.Codec = c
	}
	cfg.Observer = s.metrics
	cfg.Logger = s.logger
	return container.NewWriter(sch, cfg)
}

func (s *Server) decodeRecords(data []byte) (*RecordsResponse, error) {
	reader, err := container.NewReader(data, nil, container.ReaderConfig{
		Observer: s.metrics,
		Logger:   s.logger,
	})
	if err != nil {
		return nil, err
	}
	values, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	records := make([]interface{}, len(values))
	for i, v := range values {
		records[i] = value.ToJSON(v)
	}
	return &RecordsResponse{
		Schema:     reader.Schema().Canonical(),
		Codec:      reader.Codec().Name(),
		SyncMarker: reader.SyncMarker().String(),
		Count:      len(records),
		Records:    records,
	}, nil
}

func (s *Server) readContainer(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}

	start := time.Now()
	data, err := s.archive.Read(id)
	s.metrics.RecordArchiveOperation("read", err == nil || errors.Is(err, storage.ErrNotFound), time.Since(start))
	if err != nil {
		sendArchiveError(w, err)
		return nil, false
	}
	return data, true
}

func parseID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid container id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func sendArchiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		sendError(w, "Container not found", http.StatusNotFound)
		return
	}
	sendError(w, fmt.Sprintf("Archive error: %v", err), http.StatusInternalServerError)
}
