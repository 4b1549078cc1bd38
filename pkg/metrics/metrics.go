// Package metrics exposes Prometheus metrics for container traffic and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/avrokit/pkg/container"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var _ container.Observer = (*Metrics)(nil)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Container metrics
	blocksTotal          *prometheus.CounterVec
	objectsTotal         *prometheus.CounterVec
	rawBytesTotal        *prometheus.CounterVec
	compressedBytesTotal *prometheus.CounterVec
	desyncsTotal         *prometheus.CounterVec

	// Archive metrics
	archiveOperationsTotal   *prometheus.CounterVec
	archiveOperationDuration *prometheus.HistogramVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "avrokit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "avrokit_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		blocksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_container_blocks_total",
				Help: "Container blocks written or read",
			},
			[]string{"direction", "codec"},
		),

		objectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_container_objects_total",
				Help: "Objects in container blocks written or read",
			},
			[]string{"direction", "codec"},
		),

		rawBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_container_raw_bytes_total",
				Help: "Uncompressed block bytes written or read",
			},
			[]string{"direction", "codec"},
		),

		compressedBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_container_compressed_bytes_total",
				Help: "Compressed block bytes written or read",
			},
			[]string{"direction", "codec"},
		),

		desyncsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_container_desyncs_total",
				Help: "Blocks rejected because of a sync marker mismatch",
			},
			[]string{"codec"},
		),

		archiveOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_archive_operations_total",
				Help: "Total number of archive operations",
			},
			[]string{"operation", "status"},
		),

		archiveOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "avrokit_archive_operation_duration_seconds",
				Help:    "Archive operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrokit_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),
	}
}

// BlockWritten implements container.Observer.
func (m *Metrics) BlockWritten(codec string, objects, rawBytes, compressedBytes int) {
	m.recordBlock("write", codec, objects, rawBytes, compressedBytes)
}

// BlockRead implements container.Observer.
func (m *Metrics) BlockRead(codec string, objects, rawBytes, compressedBytes int) {
	m.recordBlock("read", codec, objects, rawBytes, compressedBytes)
}

// Desync implements container.Observer.
func (m *Metrics) Desync(codec string) {
	m.desyncsTotal.WithLabelValues(codec).Inc()
}

func (m *Metrics) recordBlock(direction, codec string, objects, rawBytes, compressedBytes int) {
	m.blocksTotal.WithLabelValues(direction, codec).Inc()
	m.objectsTotal.WithLabelValues(direction, codec).Add(float64(objects))
	m.rawBytesTotal.WithLabelValues(direction, codec).Add(float64(rawBytes))
	m.compressedBytesTotal.WithLabelValues(direction, codec).Add(float64(compressedBytes))
}

// RecordArchiveOperation records a storage operation
func (m *Metrics) RecordArchiveOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.archiveOperationsTotal.WithLabelValues(operation, status).Inc()
	m.archiveOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware counts authentication outcomes of requests
// that carry an API key.
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
