// Package fusion merges correlated source entities into a unified
// intelligence picture: fused entities, composite threat areas, predictive
// events and an overall situation overview. It is the top of the pipeline;
// callers hand it raw analysis payloads and receive a plain data structure
// back. Rendering and export belong to the caller.
package fusion

import (
	"github.com/lhoang/fusioncore/internal/correlation"
	"github.com/lhoang/fusioncore/internal/extract"
	"github.com/lhoang/fusioncore/internal/geo"
)

// ThreatLevel grades overall situation severity.
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "LOW"
	ThreatMedium ThreatLevel = "MEDIUM"
	ThreatHigh   ThreatLevel = "HIGH"
)

// FusedEntity aggregates one or more source entities inferred to describe
// the same real-world object. Source id sequences are in discovery order;
// the order carries no meaning.
type FusedEntity struct {
	ID                 string                    `json:"id"`
	Type               string                    `json:"type"`
	Description        string                    `json:"description,omitempty"`
	HumintSources      []string                  `json:"humint_sources"`
	SigintSources      []string                  `json:"sigint_sources"`
	OsintSources       []string                  `json:"osint_sources,omitempty"`
	CombinedConfidence extract.Confidence        `json:"combined_confidence"`
	Correlations       []correlation.Correlation `json:"correlations"`
	Location           *geo.Coordinates          `json:"location,omitempty"`
}

// ThreatArea is a geographic cluster derived from correlated entity
// locations.
type ThreatArea struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Center      geo.Coordinates    `json:"center"`
	RadiusM     float64            `json:"radius_m"`
	ThreatLevel ThreatLevel        `json:"threat_level"`
	Confidence  extract.Confidence `json:"confidence"`
	Timestamp   string             `json:"timestamp,omitempty"`
}

// Prediction is a predictive event adapted from the upstream fusion
// payload. No fusion logic is applied to predictions; they pass through
// with only shape normalization.
type Prediction struct {
	ID          string           `json:"id"`
	Event       string           `json:"event"`
	Location    *geo.Coordinates `json:"location,omitempty"`
	Probability float64          `json:"probability"`
	Timeframe   string           `json:"timeframe,omitempty"`
	Description string           `json:"description,omitempty"`
}

// Overview summarizes the situation for sidebar-style consumers.
type Overview struct {
	ThreatLevel         ThreatLevel `json:"threat_level"`
	ConfidenceLevel     string      `json:"confidence_level"`
	CorrelationStrength float64     `json:"correlation_strength"`
	Timestamp           string      `json:"timestamp,omitempty"`
}

// Result is the complete output of one fusion run.
type Result struct {
	Entities        []FusedEntity             `json:"entities"`
	Correlations    []correlation.Correlation `json:"correlations"`
	PredictedEvents []Prediction              `json:"predicted_events"`
	ThreatAreas     []ThreatArea              `json:"threat_areas"`
	Overview        Overview                  `json:"overview"`
}
