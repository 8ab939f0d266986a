package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lhoang/fusioncore/internal/fusion"
	"github.com/lhoang/fusioncore/internal/geo"
)

func testServer() *Server {
	engine := fusion.NewEngine(geo.DefaultOptions(), nil)
	return NewServer(engine, nil, nil)
}

// TestHandleFuse runs the scenario request through the HTTP surface and
// checks the response envelope plus the fused result inside it.
func TestHandleFuse(t *testing.T) {
	body := map[string]any{
		"humint": map[string]any{
			"timestamp": "2026-03-01T10:00:00Z",
			"tacticalObservations": []any{
				map[string]any{
					"type":        "military_vehicle",
					"description": "armored column moving north",
					"confidence":  "high",
					"location":    map[string]any{"lat": 49.90, "lng": 36.40},
				},
			},
		},
		"sigint": map[string]any{
			"emitters": []any{
				map[string]any{
					"classification": "fire control radar",
					"confidence":     "high",
					"location":       map[string]any{"lat": 49.92, "lng": 36.42},
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}

	srv := testServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fuse", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp FuseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.RunID == "" {
		t.Error("run_id missing")
	}
	if resp.Cached {
		t.Error("uncached run flagged as cached")
	}

	var result fusion.Result
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(result.Entities) != 1 {
		t.Fatalf("fused entities = %d, want 1", len(result.Entities))
	}
	if len(result.Correlations) != 1 {
		t.Fatalf("correlations = %d, want 1", len(result.Correlations))
	}
	if result.Overview.ThreatLevel != fusion.ThreatMedium {
		t.Errorf("threat level = %q, want MEDIUM", result.Overview.ThreatLevel)
	}
}

// TestHandleFuse_MissingSources verifies the degraded path over HTTP: an
// empty request still returns 200 with an empty result.
func TestHandleFuse_MissingSources(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fuse", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp FuseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	var result fusion.Result
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(result.Entities) != 0 || len(result.Correlations) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if result.Overview.ThreatLevel != fusion.ThreatLow {
		t.Errorf("threat level = %q, want LOW", result.Overview.ThreatLevel)
	}
}

// TestHandleFuse_InvalidBody verifies the 400 path for unparseable JSON.
func TestHandleFuse_InvalidBody(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fuse", bytes.NewReader([]byte(`{not json`)))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestHealthAndReady verifies the liveness and readiness endpoints. With
// no cache configured, readiness has nothing to probe and reports ready.
func TestHealthAndReady(t *testing.T) {
	srv := testServer()
	router := srv.Router()

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
