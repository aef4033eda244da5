package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcastd/mrelay/pkg/config"
)

// Config configures the API server.
type Config struct {
	Addr string
	Conf *config.Configuration
}

// Server is the HTTP diagnostics server. The configuration it serves is
// immutable, so handlers read it without locking.
type Server struct {
	httpServer *http.Server
	conf       *config.Configuration
	startTime  time.Time
	checks     *prometheus.CounterVec
}

// NewServer creates a new API server over a loaded configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		conf:      cfg.Conf,
		startTime: time.Now(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mrelay_policy_checks_total",
			Help: "Policy check evaluations served over the API.",
		}, []string{"direction", "verdict"}),
	}

	mux := http.NewServeMux()

	// Health + metrics
	mux.HandleFunc("GET /health", s.healthHandler)

	// Prometheus metrics with isolated registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(s), s.checks)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// REST API v1
	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("GET /api/v1/protocol", s.protocolHandler)
	mux.HandleFunc("GET /api/v1/tables", s.tablesHandler)
	mux.HandleFunc("GET /api/v1/instances", s.instancesHandler)
	mux.HandleFunc("GET /api/v1/interfaces", s.interfacesHandler)
	mux.HandleFunc("GET /api/v1/check", s.checkHandler)
	mux.HandleFunc("GET /api/v1/config/dump", s.dumpHandler)

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	return s
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
