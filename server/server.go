// Package server exposes the summarization HTTP surface: a JSON submission
// endpoint that answers with a long-lived event stream, plus health and
// metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/pithecene-io/deckbrief/adapter"
	"github.com/pithecene-io/deckbrief/config"
	"github.com/pithecene-io/deckbrief/log"
	"github.com/pithecene-io/deckbrief/metrics"
	"github.com/pithecene-io/deckbrief/runtime"
)

// Server hosts the summary stream endpoint.
type Server struct {
	orchestrator *runtime.Orchestrator
	logger       *log.Logger
	collector    *metrics.Collector
	notifier     adapter.Adapter
	httpServer   *http.Server
}

// New creates a server bound to the configured listen address.
// collector and notifier may be nil.
func New(cfg *config.Config, orch *runtime.Orchestrator, logger *log.Logger, collector *metrics.Collector, notifier adapter.Adapter) *Server {
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		orchestrator: orch,
		logger:       logger,
		collector:    collector,
		notifier:     notifier,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/summaries", s.handleSummaries)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)

	s.httpServer = &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: withRequestLogging(logger, mux),
		// No WriteTimeout: the summary stream is long-lived by design.
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests driving the server through
// httptest without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", map[string]any{"addr": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// withRequestLogging logs one structured entry per completed request.
func withRequestLogging(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("request", map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		})
	})
}
