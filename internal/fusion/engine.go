package fusion

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lhoang/fusioncore/internal/correlation"
	"github.com/lhoang/fusioncore/internal/extract"
	"github.com/lhoang/fusioncore/internal/geo"
)

// Engine is the fusion entry point. It is stateless: every run is a pure
// function of the payloads passed in, so concurrent runs need no
// coordination and repeated runs over identical inputs yield identical
// results. The engine never reads the clock; every output timestamp is a
// pass-through from the inputs.
type Engine struct {
	logger     *zap.Logger
	norm       *geo.Normalizer
	humint     *extract.HUMINTExtractor
	sigint     *extract.SIGINTExtractor
	osint      *extract.OSINTExtractor
	correlator *correlation.Engine
	aggregator *Aggregator
}

// NewEngine creates a fusion engine. A nil logger disables logging.
func NewEngine(geoOpts geo.Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	norm := geo.NewNormalizer(geoOpts)
	return &Engine{
		logger:     logger,
		norm:       norm,
		humint:     extract.NewHUMINTExtractor(norm),
		sigint:     extract.NewSIGINTExtractor(norm),
		osint:      extract.NewOSINTExtractor(norm),
		correlator: correlation.NewEngine(),
		aggregator: NewAggregator(),
	}
}

// Fuse runs the full pipeline: extract, correlate, aggregate, synthesize,
// classify. A missing HUMINT or SIGINT payload is a normal operating
// condition (partial intelligence picture) and yields an empty result
// rather than an error. The optional fusion payload supplies authoritative
// correlations, predictions and overview fields; without it, correlations
// are derived from spatial proximity.
func (e *Engine) Fuse(humintPayload, sigintPayload, fusionPayload map[string]any) Result {
	if humintPayload == nil || sigintPayload == nil {
		e.logger.Debug("fusion skipped: missing source payload",
			zap.Bool("humint", humintPayload != nil),
			zap.Bool("sigint", sigintPayload != nil))
		return Result{Overview: Overview{ThreatLevel: ThreatLow, ConfidenceLevel: string(extract.ConfidenceLow)}}
	}

	humintEntities := e.humint.Extract(humintPayload)
	sigintEntities := e.sigint.Extract(sigintPayload)
	osintEntities := e.osint.Extract(osintPayload(fusionPayload))
	sources := extract.NewEntitySet(humintEntities, sigintEntities, osintEntities)

	var entities []FusedEntity
	if groups := e.parseGroups(fusionPayload); len(groups) > 0 {
		entities = e.aggregator.AggregateGroups(groups, sources)
	} else {
		correlations := e.correlator.Correlate(humintEntities, sigintEntities)
		entities = e.aggregator.Aggregate(correlations, sources)
	}

	correlations := collectCorrelations(entities)
	timestamp := passthroughTimestamp(fusionPayload, humintPayload, sigintPayload)

	result := Result{
		Entities:        entities,
		Correlations:    correlations,
		PredictedEvents: e.parsePredictions(fusionPayload),
		ThreatAreas:     SynthesizeThreatAreas(entities, sources, timestamp),
		Overview:        e.buildOverview(entities, correlations, fusionPayload, timestamp),
	}

	e.logger.Debug("fusion complete",
		zap.Int("humint_entities", len(humintEntities)),
		zap.Int("sigint_entities", len(sigintEntities)),
		zap.Int("fused_entities", len(result.Entities)),
		zap.Int("correlations", len(result.Correlations)),
		zap.Int("threat_areas", len(result.ThreatAreas)),
		zap.String("threat_level", string(result.Overview.ThreatLevel)))

	return result
}

// parseGroups extracts authoritative fused-entity groupings from the
// fusion payload. Correlations asserted upstream are trusted and passed
// through; only a missing factor breakdown is defaulted. Records that
// violate the cross-source invariant are dropped.
func (e *Engine) parseGroups(fusionPayload map[string]any) []Group {
	if fusionPayload == nil {
		return nil
	}

	var groups []Group
	for _, raw := range anyList(fusionPayload, "fusedEntities", "fused_entities", "entities") {
		record, _ := raw.(map[string]any)
		if record == nil {
			continue
		}

		group := Group{
			ID:          anyString(record, "id"),
			Type:        anyString(record, "type"),
			Description: anyString(record, "description"),
		}
		if rawConf, ok := record["confidence"]; ok {
			group.Confidence = extract.ParseConfidence(rawConf)
		}

		for _, rawCorr := range anyList(record, "correlations") {
			corrRecord, _ := rawCorr.(map[string]any)
			if corrRecord == nil {
				continue
			}
			strength, hasFactors := parseStrength(corrRecord["strength"])
			corr, err := correlation.Authoritative(
				anyString(corrRecord, "humintSourceId", "humint_source_id", "humintId", "humint_id"),
				anyString(corrRecord, "sigintSourceId", "sigint_source_id", "sigintId", "sigint_id"),
				anyString(corrRecord, "osintSourceId", "osint_source_id", "osintId", "osint_id"),
				strength, hasFactors)
			if err != nil {
				e.logger.Debug("dropping invalid authoritative correlation", zap.Error(err))
				continue
			}
			group.Correlations = append(group.Correlations, corr)
		}

		if len(group.Correlations) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// parseStrength accepts either a bare number or a {value, factors} object.
func parseStrength(raw any) (correlation.Strength, bool) {
	switch v := raw.(type) {
	case float64:
		return correlation.Strength{Value: v}, false
	case int:
		return correlation.Strength{Value: float64(v)}, false
	case map[string]any:
		s := correlation.Strength{Value: anyFloat(v, "value")}
		factors, ok := v["factors"].(map[string]any)
		if !ok {
			return s, false
		}
		s.Factors = correlation.Factors{
			Spatial:  anyFloat(factors, "spatial"),
			Temporal: anyFloat(factors, "temporal"),
			Semantic: anyFloat(factors, "semantic"),
		}
		return s, true
	default:
		return correlation.Strength{}, false
	}
}

// parsePredictions adapts upstream predicted events; no fusion logic is
// applied beyond coordinate normalization and defaulting.
func (e *Engine) parsePredictions(fusionPayload map[string]any) []Prediction {
	if fusionPayload == nil {
		return nil
	}

	var out []Prediction
	for i, raw := range anyList(fusionPayload, "predictedEvents", "predicted_events", "predictions") {
		record, _ := raw.(map[string]any)
		if record == nil {
			continue
		}

		p := Prediction{
			ID:          anyString(record, "id"),
			Event:       anyString(record, "event", "type"),
			Timeframe:   anyString(record, "timeframe", "timeWindow"),
			Description: anyString(record, "description"),
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("prediction-%d", i)
		}
		// An asserted probability of zero is meaningful; only an absent
		// field gets the default.
		if v, ok := lookupFloat(record, "probability", "likelihood"); ok {
			p.Probability = v
		} else {
			p.Probability = 0.5
		}
		if rawLoc, ok := record["location"]; ok {
			p.Location = e.norm.Normalize(rawLoc)
		}
		out = append(out, p)
	}
	return out
}

func (e *Engine) buildOverview(entities []FusedEntity, correlations []correlation.Correlation, fusionPayload map[string]any, timestamp string) Overview {
	o := Overview{
		ThreatLevel: Classify(entities),
		Timestamp:   timestamp,
	}

	o.ConfidenceLevel = anyString(fusionPayload, "confidenceLevel", "confidence_level", "confidence")
	if o.ConfidenceLevel == "" {
		o.ConfidenceLevel = string(extract.ConfidenceMedium)
	}

	if fusionPayload != nil {
		if v, ok := fusionPayload["correlationStrength"].(float64); ok {
			o.CorrelationStrength = v
			return o
		}
	}
	if len(correlations) > 0 {
		total := 0.0
		for _, c := range correlations {
			total += c.Strength.Value
		}
		o.CorrelationStrength = total / float64(len(correlations))
	}
	return o
}

// osintPayload digs the optional open-source analysis out of the fusion
// payload; OSINT rides along with the fusion product upstream rather than
// arriving as its own top-level document.
func osintPayload(fusionPayload map[string]any) map[string]any {
	if fusionPayload == nil {
		return nil
	}
	osint, _ := fusionPayload["osint"].(map[string]any)
	return osint
}

func collectCorrelations(entities []FusedEntity) []correlation.Correlation {
	var out []correlation.Correlation
	for _, e := range entities {
		out = append(out, e.Correlations...)
	}
	return out
}

// passthroughTimestamp picks the result timestamp from the inputs, never
// the clock: fusion payload first, then HUMINT, then SIGINT.
func passthroughTimestamp(payloads ...map[string]any) string {
	for _, p := range payloads {
		if p == nil {
			continue
		}
		if ts, ok := p["timestamp"].(string); ok && ts != "" {
			return ts
		}
	}
	return ""
}

// loose-map helpers local to payload parsing

func anyString(m map[string]any, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func anyList(m map[string]any, keys ...string) []any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if l, ok := m[k].([]any); ok {
			return l
		}
	}
	return nil
}

func anyFloat(m map[string]any, keys ...string) float64 {
	v, _ := lookupFloat(m, keys...)
	return v
}

func lookupFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
	}
	return 0, false
}
