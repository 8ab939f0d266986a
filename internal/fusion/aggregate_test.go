package fusion

import (
	"testing"

	"github.com/lhoang/fusioncore/internal/correlation"
	"github.com/lhoang/fusioncore/internal/extract"
	"github.com/lhoang/fusioncore/internal/geo"
)

func entity(id string, source extract.SourceType, typ string, lat, lng float64) extract.SourceEntity {
	return extract.SourceEntity{
		ID:         id,
		SourceType: source,
		Type:       typ,
		Confidence: extract.ConfidenceMedium,
		Location:   &geo.Coordinates{Latitude: lat, Longitude: lng},
	}
}

func corr(humintID, sigintID, osintID string, strength float64) correlation.Correlation {
	return correlation.Correlation{
		ID:       "corr-" + humintID + "-" + sigintID,
		HumintID: humintID,
		SigintID: sigintID,
		OsintID:  osintID,
		Strength: correlation.Strength{Value: strength},
		Type:     correlation.BucketType(strength),
		Method:   correlation.MethodProximity,
	}
}

// TestAggregate_ConnectedComponents verifies that correlations sharing a
// source id merge into one fused entity while disjoint correlations stay
// separate, with deterministic first-seen ids.
func TestAggregate_ConnectedComponents(t *testing.T) {
	sources := extract.NewEntitySet([]extract.SourceEntity{
		entity("humint-obs-0", extract.SourceHUMINT, "obs", 49.0, 36.0),
		entity("humint-obs-1", extract.SourceHUMINT, "obs", 48.0, 35.0),
		entity("sigint-emitter-0", extract.SourceSIGINT, "radar", 49.01, 36.01),
		entity("sigint-emitter-1", extract.SourceSIGINT, "radar", 48.01, 35.01),
	})

	// First two correlations share sigint-emitter-0, so they form one
	// component; the third stands alone.
	correlations := []correlation.Correlation{
		corr("humint-obs-0", "sigint-emitter-0", "", 0.8),
		corr("humint-obs-1", "sigint-emitter-0", "", 0.6),
		corr("humint-obs-1", "sigint-emitter-1", "", 0.5),
	}

	// humint-obs-1 bridges the second and third correlations, so all three
	// collapse into a single component here. Rebuild with a disjoint third.
	got := NewAggregator().Aggregate(correlations, sources)
	if len(got) != 1 {
		t.Fatalf("bridged graph: expected 1 fused entity, got %d", len(got))
	}
	if got[0].ID != "fused-1" {
		t.Errorf("id = %q, want fused-1", got[0].ID)
	}
	if len(got[0].Correlations) != 3 {
		t.Errorf("correlations = %d, want all 3 in the component", len(got[0].Correlations))
	}

	disjoint := []correlation.Correlation{
		corr("humint-obs-0", "sigint-emitter-0", "", 0.8),
		corr("humint-obs-1", "sigint-emitter-1", "", 0.5),
	}
	got = NewAggregator().Aggregate(disjoint, sources)
	if len(got) != 2 {
		t.Fatalf("disjoint graph: expected 2 fused entities, got %d", len(got))
	}
	if got[0].ID != "fused-1" || got[1].ID != "fused-2" {
		t.Errorf("ids = %q, %q, want fused-1, fused-2", got[0].ID, got[1].ID)
	}
}

// TestAggregate_LocationPriority verifies that a fused entity takes the
// first SIGINT location over the HUMINT one.
func TestAggregate_LocationPriority(t *testing.T) {
	sources := extract.NewEntitySet([]extract.SourceEntity{
		entity("humint-obs-0", extract.SourceHUMINT, "obs", 49.90, 36.40),
		entity("sigint-emitter-0", extract.SourceSIGINT, "radar", 49.92, 36.42),
	})

	got := NewAggregator().Aggregate([]correlation.Correlation{
		corr("humint-obs-0", "sigint-emitter-0", "", 0.72),
	}, sources)
	if len(got) != 1 {
		t.Fatalf("expected 1 fused entity, got %d", len(got))
	}
	if got[0].Location == nil {
		t.Fatal("fused entity has no location")
	}
	if got[0].Location.Latitude != 49.92 || got[0].Location.Longitude != 36.42 {
		t.Errorf("location = %+v, want the SIGINT coordinate", *got[0].Location)
	}
}

// TestAggregate_DropsUnresolvableReferences verifies that correlations
// whose HUMINT or SIGINT reference is unknown are dropped silently, while
// an unknown OSINT leg only clears that leg.
func TestAggregate_DropsUnresolvableReferences(t *testing.T) {
	sources := extract.NewEntitySet([]extract.SourceEntity{
		entity("humint-obs-0", extract.SourceHUMINT, "obs", 49.0, 36.0),
		entity("sigint-emitter-0", extract.SourceSIGINT, "radar", 49.01, 36.01),
	})

	got := NewAggregator().Aggregate([]correlation.Correlation{
		corr("humint-obs-9", "sigint-emitter-0", "", 0.8),
		corr("humint-obs-0", "sigint-emitter-9", "", 0.8),
		corr("humint-obs-0", "sigint-emitter-0", "osint-report-9", 0.8),
	}, sources)
	if len(got) != 1 {
		t.Fatalf("expected 1 fused entity from the one resolvable correlation, got %d", len(got))
	}
	if len(got[0].Correlations) != 1 {
		t.Fatalf("expected 1 surviving correlation, got %d", len(got[0].Correlations))
	}
	if got[0].Correlations[0].OsintID != "" {
		t.Errorf("unresolvable osint leg should be cleared, got %q", got[0].Correlations[0].OsintID)
	}
	if len(got[0].OsintSources) != 0 {
		t.Errorf("osint sources = %v, want none", got[0].OsintSources)
	}
}

// TestAggregate_DescriptionSynthesis verifies the humint-with-sigint
// parenthetical description pattern.
func TestAggregate_DescriptionSynthesis(t *testing.T) {
	humint := entity("humint-obs-0", extract.SourceHUMINT, "obs", 49.0, 36.0)
	humint.Description = "armored column moving north"
	sigint := entity("sigint-emitter-0", extract.SourceSIGINT, "radar", 49.01, 36.01)
	sigint.Description = "fire control radar"
	sources := extract.NewEntitySet([]extract.SourceEntity{humint, sigint})

	got := NewAggregator().Aggregate([]correlation.Correlation{
		corr("humint-obs-0", "sigint-emitter-0", "", 0.8),
	}, sources)
	if len(got) != 1 {
		t.Fatalf("expected 1 fused entity, got %d", len(got))
	}
	want := "armored column moving north (fire control radar)"
	if got[0].Description != want {
		t.Errorf("description = %q, want %q", got[0].Description, want)
	}
}

// TestAggregate_CombinedConfidence verifies the default medium combined
// confidence of derived fusion.
func TestAggregate_CombinedConfidence(t *testing.T) {
	sources := extract.NewEntitySet([]extract.SourceEntity{
		entity("humint-obs-0", extract.SourceHUMINT, "obs", 49.0, 36.0),
		entity("sigint-emitter-0", extract.SourceSIGINT, "radar", 49.01, 36.01),
	})

	got := NewAggregator().Aggregate([]correlation.Correlation{
		corr("humint-obs-0", "sigint-emitter-0", "", 0.8),
	}, sources)
	if len(got) != 1 {
		t.Fatalf("expected 1 fused entity, got %d", len(got))
	}
	if got[0].CombinedConfidence != extract.ConfidenceMedium {
		t.Errorf("combined confidence = %q, want medium", got[0].CombinedConfidence)
	}
}

// TestAggregateGroups_HonorsUpstream verifies that authoritative groupings
// keep their upstream id, type, description and confidence.
func TestAggregateGroups_HonorsUpstream(t *testing.T) {
	sources := extract.NewEntitySet([]extract.SourceEntity{
		entity("humint-obs-0", extract.SourceHUMINT, "obs", 49.0, 36.0),
		entity("sigint-emitter-0", extract.SourceSIGINT, "radar", 49.01, 36.01),
	})

	auth, err := correlation.Authoritative("humint-obs-0", "sigint-emitter-0", "",
		correlation.Strength{Value: 0.9}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := NewAggregator().AggregateGroups([]Group{{
		ID:           "fused-analyst-7",
		Type:         "sam-site",
		Description:  "confirmed SAM battery",
		Confidence:   extract.ConfidenceHigh,
		Correlations: []correlation.Correlation{auth},
	}}, sources)
	if len(got) != 1 {
		t.Fatalf("expected 1 fused entity, got %d", len(got))
	}
	e := got[0]
	if e.ID != "fused-analyst-7" {
		t.Errorf("id = %q, want upstream id preserved", e.ID)
	}
	if e.Type != "sam-site" || e.Description != "confirmed SAM battery" {
		t.Errorf("type/description = %q/%q, want upstream values", e.Type, e.Description)
	}
	if e.CombinedConfidence != extract.ConfidenceHigh {
		t.Errorf("confidence = %q, want upstream high", e.CombinedConfidence)
	}
}
