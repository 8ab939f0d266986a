// Package extract converts raw source-analysis payloads (HUMINT, SIGINT,
// OSINT) into a uniform source-entity shape consumed by the correlation
// engine. Payloads arrive as already-decoded JSON; each extractor is a
// pure function of its input and assigns stable synthetic ids of the form
// {source}-{collection}-{index} so entities can be re-identified across
// the pipeline without relying on upstream identity.
package extract

import "github.com/lhoang/fusioncore/internal/geo"

// SourceType identifies the intelligence discipline an entity came from.
type SourceType string

const (
	SourceHUMINT SourceType = "humint"
	SourceSIGINT SourceType = "sigint"
	SourceOSINT  SourceType = "osint"
)

// Confidence is the qualitative confidence carried on source entities.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidenceFallback Confidence = "fallback"
)

// ParseConfidence normalizes a raw confidence value, defaulting to medium
// when the source data omits or mangles it.
func ParseConfidence(raw any) Confidence {
	s, _ := raw.(string)
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceFallback:
		return Confidence(s)
	default:
		return ConfidenceMedium
	}
}

// Rank orders confidence levels for tie-breaking (higher is stronger).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// SourceEntity is one extracted observation. Entities lacking a usable
// location are still emitted with a nil Location; the correlation engine
// degrades to "no spatial factor" rather than losing the observation.
type SourceEntity struct {
	ID          string           `json:"id"`
	SourceType  SourceType       `json:"source_type"`
	Type        string           `json:"type"`
	Description string           `json:"description,omitempty"`
	Location    *geo.Coordinates `json:"location,omitempty"`
	Accuracy    float64          `json:"accuracy,omitempty"`
	Confidence  Confidence       `json:"confidence"`
	Timestamp   string           `json:"timestamp,omitempty"`
}

// EntitySet indexes extracted entities by id for correlation lookups.
type EntitySet map[string]SourceEntity

// NewEntitySet builds an index over one or more entity slices.
func NewEntitySet(groups ...[]SourceEntity) EntitySet {
	set := make(EntitySet)
	for _, group := range groups {
		for _, e := range group {
			set[e.ID] = e
		}
	}
	return set
}

// payload helpers shared by the extractors

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func listField(m map[string]any, keys ...string) []any {
	for _, k := range keys {
		if l, ok := m[k].([]any); ok {
			return l
		}
	}
	return nil
}

func mapField(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if sub, ok := m[k].(map[string]any); ok {
			return sub
		}
	}
	return nil
}

func floatField(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 0
}

// timestampOr returns the record's own timestamp, falling back to the
// parent analysis timestamp when the record omits one.
func timestampOr(record map[string]any, parent string) string {
	if ts := stringField(record, "timestamp"); ts != "" {
		return ts
	}
	return parent
}

// locate resolves a record's location, trying the conventional wrapper
// fields first and finally the record itself (location-list records carry
// bare lat/lng at the top level).
func locate(n *geo.Normalizer, record map[string]any) *geo.Coordinates {
	for _, key := range []string{"location", "coordinates", "position"} {
		if raw, ok := record[key]; ok {
			if c := n.Normalize(raw); c != nil {
				return c
			}
		}
	}
	return n.Normalize(record)
}
