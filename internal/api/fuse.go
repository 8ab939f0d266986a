package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lhoang/fusioncore/internal/cache"
	"github.com/lhoang/fusioncore/internal/fusion"
)

// maxFuseBodySize bounds request bodies; realistic analysis payloads are
// well under this.
const maxFuseBodySize = 8 * 1024 * 1024

// FuseRequest is the request body for POST /api/v1/fuse.
type FuseRequest struct {
	Humint map[string]any `json:"humint"`
	Sigint map[string]any `json:"sigint"`
	Fusion map[string]any `json:"fusion,omitempty"`
}

// FuseResponse wraps the engine result with per-request metadata.
type FuseResponse struct {
	RunID  string          `json:"run_id"`
	Cached bool            `json:"cached"`
	Result json.RawMessage `json:"result"`
}

// handleFuse runs one fusion pass. Deterministic results for identical
// bodies are served from the cache within its TTL; the run id is minted
// per request either way.
func (s *Server) handleFuse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	runID := uuid.NewString()

	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFuseBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "error reading body")
		return
	}

	var req FuseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := cache.Key(body)
	if s.results != nil {
		if data, err := s.results.Get(ctx, key); err == nil {
			s.recordCache(true)
			s.writeJSON(w, http.StatusOK, FuseResponse{RunID: runID, Cached: true, Result: data})
			s.recordRequest(r, http.StatusOK, start)
			return
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("result cache lookup failed", zap.Error(err))
		}
		s.recordCache(false)
	}

	var result fusion.Result
	if s.telemetry != nil {
		_, span := s.telemetry.StartSpan(ctx, "fusion.fuse")
		result = s.engine.Fuse(req.Humint, req.Sigint, req.Fusion)
		span.End()
	} else {
		result = s.engine.Fuse(req.Humint, req.Sigint, req.Fusion)
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("failed to marshal fusion result", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if s.results != nil {
		if err := s.results.Set(ctx, key, data); err != nil {
			s.logger.Warn("result cache store failed", zap.Error(err))
		}
	}

	s.recordResult(result)
	s.writeJSON(w, http.StatusOK, FuseResponse{RunID: runID, Result: data})
	s.recordRequest(r, http.StatusOK, start)

	s.logger.Info("fusion run",
		zap.String("run_id", runID),
		zap.Int("entities", len(result.Entities)),
		zap.Int("correlations", len(result.Correlations)),
		zap.String("threat_level", string(result.Overview.ThreatLevel)),
		zap.Duration("duration", time.Since(start)))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) recordCache(hit bool) {
	if s.telemetry == nil || s.telemetry.Metrics() == nil {
		return
	}
	if hit {
		s.telemetry.Metrics().CacheHits.Inc()
	} else {
		s.telemetry.Metrics().CacheMisses.Inc()
	}
}

func (s *Server) recordRequest(r *http.Request, status int, start time.Time) {
	if s.telemetry == nil || s.telemetry.Metrics() == nil {
		return
	}
	m := s.telemetry.Metrics()
	m.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
}

// recordResult projects a fusion result onto the pipeline metrics.
func (s *Server) recordResult(result fusion.Result) {
	if s.telemetry == nil || s.telemetry.Metrics() == nil {
		return
	}
	m := s.telemetry.Metrics()

	method := "none"
	if len(result.Correlations) > 0 {
		method = string(result.Correlations[0].Method)
	}
	m.FusionRuns.WithLabelValues(method).Inc()
	m.FusedEntities.Observe(float64(len(result.Entities)))

	for _, c := range result.Correlations {
		m.CorrelationsFound.WithLabelValues(string(c.Type)).Inc()
		m.CorrelationStrength.Observe(c.Strength.Value)
	}

	humint, sigint, osint := 0, 0, 0
	for _, e := range result.Entities {
		humint += len(e.HumintSources)
		sigint += len(e.SigintSources)
		osint += len(e.OsintSources)
	}
	m.SourceEntities.WithLabelValues("humint").Add(float64(humint))
	m.SourceEntities.WithLabelValues("sigint").Add(float64(sigint))
	m.SourceEntities.WithLabelValues("osint").Add(float64(osint))

	for _, level := range []fusion.ThreatLevel{fusion.ThreatLow, fusion.ThreatMedium, fusion.ThreatHigh} {
		value := 0.0
		if result.Overview.ThreatLevel == level {
			value = 1
		}
		m.ThreatLevel.WithLabelValues(string(level)).Set(value)
	}
}
