// Package api exposes the fusion engine over HTTP. It is a thin adapter:
// decode the request payloads, run the engine, return the plain result.
// Rendering, export and auth are the caller's concern.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lhoang/fusioncore/internal/cache"
	"github.com/lhoang/fusioncore/internal/fusion"
	"github.com/lhoang/fusioncore/internal/observability"
)

// Server wires the fusion engine, result cache and telemetry behind a chi
// router.
type Server struct {
	engine    *fusion.Engine
	results   *cache.ResultCache
	telemetry *observability.Telemetry
	logger    *zap.Logger
}

// NewServer creates an API server. The cache may be nil (disabled).
func NewServer(engine *fusion.Engine, results *cache.ResultCache, telemetry *observability.Telemetry) *Server {
	logger := zap.NewNop()
	if telemetry != nil {
		logger = telemetry.Logger()
	}
	return &Server{
		engine:    engine,
		results:   results,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if s.telemetry != nil && s.telemetry.Metrics() != nil {
		r.Method(http.MethodGet, "/metrics", s.telemetry.MetricsHandler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fuse", s.handleFuse)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.results != nil {
		if err := s.results.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("readiness: result cache unreachable", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","cache":"unreachable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
