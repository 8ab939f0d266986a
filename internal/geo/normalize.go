// Package geo canonicalizes the coordinate representations found in raw
// intelligence payloads. Upstream report services disagree on field names
// (lat/lng vs latitude/longitude) and occasionally ship coordinates as a
// bare [lat, lng] pair, so everything funnels through Normalize before any
// spatial reasoning happens.
package geo

import (
	"encoding/json"
	"math"
)

// Coordinates is the canonical location representation used across the
// fusion pipeline.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Options configures normalization behavior.
type Options struct {
	// TruncationRepair enables the theatre-specific latitude repair: a
	// known upstream data-entry defect drops the leading digit of
	// latitudes in the operating theatre, so values with
	// 0 <= lat < 10 and 30 < lng < 41 get 40 added back. This is a
	// data-quality patch for one numeric window, not a geodetic
	// transform, and must never be widened.
	TruncationRepair bool
}

// DefaultOptions enables the truncation repair, matching the behavior the
// downstream consumers were built against.
func DefaultOptions() Options {
	return Options{TruncationRepair: true}
}

// Normalizer converts heterogeneous raw coordinate values into Coordinates.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer with the given options.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize resolves a raw coordinate value into Coordinates. It accepts
// {latitude, longitude} or {lat, lng} maps and 2-element [lat, lng] pairs.
// It returns nil when the value cannot be resolved to two finite numbers
// inside the valid latitude/longitude ranges.
func (n *Normalizer) Normalize(raw any) *Coordinates {
	lat, lng, ok := resolve(raw)
	if !ok {
		return nil
	}

	if !isFinite(lat) || !isFinite(lng) {
		return nil
	}

	if n.opts.TruncationRepair && lat >= 0 && lat < 10 && lng > 30 && lng < 41 {
		lat += 40
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil
	}

	return &Coordinates{Latitude: lat, Longitude: lng}
}

// Distance returns the planar degree distance between two points using the
// equirectangular approximation sqrt(dLat^2 + dLng^2). The operating
// theatre spans only a few degrees of latitude, so the error against a
// proper geodesic is negligible for correlation purposes.
func Distance(a, b Coordinates) float64 {
	dLat := a.Latitude - b.Latitude
	dLng := a.Longitude - b.Longitude
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// MetersPerDegree converts degree distances to meters (1 degree is about
// 111 km at the equator).
const MetersPerDegree = 111000.0

func resolve(raw any) (lat, lng float64, ok bool) {
	switch v := raw.(type) {
	case map[string]any:
		lat, latOK := number(v, "latitude", "lat")
		lng, lngOK := number(v, "longitude", "lng", "lon")
		return lat, lng, latOK && lngOK
	case []any:
		if len(v) != 2 {
			return 0, 0, false
		}
		lat, latOK := toFloat(v[0])
		lng, lngOK := toFloat(v[1])
		return lat, lng, latOK && lngOK
	case []float64:
		if len(v) != 2 {
			return 0, 0, false
		}
		return v[0], v[1], true
	case Coordinates:
		return v.Latitude, v.Longitude, true
	case *Coordinates:
		if v == nil {
			return 0, 0, false
		}
		return v.Latitude, v.Longitude, true
	default:
		return 0, 0, false
	}
}

func number(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if raw, exists := m[k]; exists {
			if f, ok := toFloat(raw); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
