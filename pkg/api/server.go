// Package api avrokit REST API
//
// @title           avrokit REST API
// @version         1.0.0
// @description     REST API for encoding, storing and decoding Avro object containers.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"github.com/ssargent/avrokit/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server holds the API server state
type Server struct {
	archive Archive
	config  ServerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(archive Archive, config ServerConfig, metrics *metrics.Metrics) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		archive: archive,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// Routes returns the router with all routes configured. gatherer backs the
// /metrics endpoint.
func (s *Server) Routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Post("/schemas", s.metrics.InstrumentHandler("POST", "/api/v1/schemas", s.handleParseSchema))
		r.Post("/decode", s.metrics.InstrumentHandler("POST", "/api/v1/decode", s.handleDecode))

		r.Post("/containers", s.metrics.InstrumentHandler("POST", "/api/v1/containers", s.handleCreateContainer))
		r.Get("/containers/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/containers/{id}", s.handleGetContainer))
		r.Get("/containers/{id}/raw", s.metrics.InstrumentHandler("GET", "/api/v1/containers/{id}/raw", s.handleGetRaw))
		r.Get("/containers/{id}/info", s.metrics.InstrumentHandler("GET", "/api/v1/containers/{id}/info", s.handleGetInfo))
		r.Delete("/containers/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/containers/{id}", s.handleDeleteContainer))
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", s.handleSwagger)

	return r
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	 <title>avrokit API Documentation</title>
	 <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	 <div id="swagger-ui"></div>
	 <script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	 <script>
	   window.onload = function() {
	     SwaggerUIBundle({
	       url: '/swagger/doc.json',
	       dom_id: '#swagger-ui',
	       presets: [
	         SwaggerUIBundle.presets.apis,
	         SwaggerUIBundle.presets.standalone
	       ]
	     });
	   };
	 </script>
</body>
</html>`

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/doc.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error("failed to generate swagger doc", slog.Any("error", err))
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, archive Archive, config ServerConfig) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	SwaggerInfo.Host = fmt.Sprintf("localhost:%d", config.Port)

	server := NewServer(archive, config, metrics.New(reg))
	srv := &http.Server{
		Addr:              net.JoinHostPort(config.Bind, strconv.Itoa(config.Port)),
		Handler:           server.Routes(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	server.logger.Info("starting avrokit REST API server",
		slog.String("addr", srv.Addr),
		slog.Bool("auth", config.APIKey != ""))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		server.logger.Info("shutting down avrokit REST API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
