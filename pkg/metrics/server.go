package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadyFunc reports whether the service can answer catalog requests.
// A non-nil error is written to the /ready response body.
type ReadyFunc func() (bool, error)

// Server serves Prometheus metrics and probes over HTTP.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a new metrics HTTP server.
// It exposes /metrics, /health (liveness) and /ready. When ready is nil, /ready always
// answers 200.
func NewServer(addr string, gatherer prometheus.Gatherer, ready ReadyFunc) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck // best-effort health response
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if ready == nil {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready")) //nolint:errcheck // best-effort probe response
			return
		}
		ok, err := ready()
		switch {
		case ok:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready")) //nolint:errcheck // best-effort probe response
		case err != nil:
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(err.Error())) //nolint:errcheck // best-effort probe response
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("loading")) //nolint:errcheck // best-effort probe response
		}
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the underlying mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving metrics. This is non-blocking.
// Returns a channel that receives an error if the server fails.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the metrics server, waiting for active connections
// to complete or until the context is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
