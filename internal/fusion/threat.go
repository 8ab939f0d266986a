package fusion

import (
	"strings"

	"github.com/lhoang/fusioncore/internal/extract"
	"github.com/lhoang/fusioncore/internal/geo"
)

// MinAreaPoints is the minimum number of distinct correlated coordinates
// required before a threat area is produced.
const MinAreaPoints = 3

// MinAreaRadiusM floors the synthesized radius so a tight cluster still
// renders as an area rather than a point.
const MinAreaRadiusM = 5000.0

// militaryTypeMarkers flag fused-entity types that indicate military
// composition for the threat-level rule table.
var militaryTypeMarkers = []string{"military", "force", "vehicle", "radar"}

// SynthesizeThreatAreas clusters the coordinates referenced by the fused
// entities' correlations into a single "Primary Area of Interest": the
// arithmetic centroid of the distinct points with a radius derived from
// the mean planar distance to it. Fewer than MinAreaPoints distinct points
// produce no areas; that is a normal condition, not an error.
//
// Multi-cluster synthesis is a documented extension point; the current
// contract emits exactly one area per call.
func SynthesizeThreatAreas(entities []FusedEntity, sources extract.EntitySet, timestamp string) []ThreatArea {
	points := correlatedPoints(entities, sources)
	if len(points) < MinAreaPoints {
		return nil
	}

	var centroid geo.Coordinates
	for _, p := range points {
		centroid.Latitude += p.Latitude
		centroid.Longitude += p.Longitude
	}
	centroid.Latitude /= float64(len(points))
	centroid.Longitude /= float64(len(points))

	meanDist := 0.0
	for _, p := range points {
		meanDist += geo.Distance(p, centroid)
	}
	meanDist /= float64(len(points))

	radius := meanDist * geo.MetersPerDegree
	if radius < MinAreaRadiusM {
		radius = MinAreaRadiusM
	}

	level, confidence := areaSeverity(entities)

	return []ThreatArea{{
		ID:          "area-primary",
		Name:        "Primary Area of Interest",
		Center:      centroid,
		RadiusM:     radius,
		ThreatLevel: level,
		Confidence:  confidence,
		Timestamp:   timestamp,
	}}
}

// correlatedPoints collects every distinct coordinate referenced by any
// correlation of any fused entity, resolved through the extractors' id
// scheme.
func correlatedPoints(entities []FusedEntity, sources extract.EntitySet) []geo.Coordinates {
	seen := make(map[geo.Coordinates]bool)
	var points []geo.Coordinates
	add := func(id string) {
		src, ok := sources[id]
		if !ok || src.Location == nil {
			return
		}
		if seen[*src.Location] {
			return
		}
		seen[*src.Location] = true
		points = append(points, *src.Location)
	}
	for _, e := range entities {
		for _, c := range e.Correlations {
			add(c.HumintID)
			add(c.SigintID)
			add(c.OsintID)
		}
	}
	return points
}

// areaSeverity grades the area from the mean strength of the contributing
// correlations, reusing the bucketing thresholds of the correlation
// contract.
func areaSeverity(entities []FusedEntity) (ThreatLevel, extract.Confidence) {
	total, count := 0.0, 0
	for _, e := range entities {
		for _, c := range e.Correlations {
			total += c.Strength.Value
			count++
		}
	}
	if count == 0 {
		return ThreatLow, extract.ConfidenceLow
	}
	switch mean := total / float64(count); {
	case mean > 0.7:
		return ThreatHigh, extract.ConfidenceHigh
	case mean > 0.4:
		return ThreatMedium, extract.ConfidenceMedium
	default:
		return ThreatLow, extract.ConfidenceLow
	}
}

// Classify scores overall situation severity from correlation density and
// entity-type composition. This is an explicit rule table, not a model:
// HIGH needs at least three high-confidence correlations and two
// military-typed entities; any high-confidence correlation or any
// military-typed entity yields MEDIUM; otherwise LOW.
func Classify(entities []FusedEntity) ThreatLevel {
	highConfCount := 0
	militaryCount := 0

	for _, e := range entities {
		for _, c := range e.Correlations {
			if c.Strength.Value > 0.7 {
				highConfCount++
			}
		}
		entityType := strings.ToLower(e.Type)
		for _, marker := range militaryTypeMarkers {
			if strings.Contains(entityType, marker) {
				militaryCount++
				break
			}
		}
	}

	switch {
	case highConfCount >= 3 && militaryCount >= 2:
		return ThreatHigh
	case highConfCount >= 1 || militaryCount >= 1:
		return ThreatMedium
	default:
		return ThreatLow
	}
}
