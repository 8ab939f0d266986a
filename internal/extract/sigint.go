package extract

import (
	"fmt"
	"time"

	"github.com/lhoang/fusioncore/internal/geo"
)

// eobClasses enumerates the electronic-order-of-battle element classes and
// the default location accuracy (meters) assigned when an element reports
// none. Looser defaults for faster platforms.
var eobClasses = []struct {
	keys            []string
	collection      string
	defaultAccuracy float64
}{
	{[]string{"airDefense", "air_defense", "airDefenseElements"}, "airdefense", 100},
	{[]string{"ground", "groundElements"}, "ground", 200},
	{[]string{"naval", "navalElements"}, "naval", 500},
	{[]string{"air", "airElements"}, "air", 1000},
	{[]string{"unknown", "unknownElements"}, "unknown", 0},
}

// SIGINTExtractor converts signals/emitter analysis payloads into source
// entities.
type SIGINTExtractor struct {
	norm *geo.Normalizer
}

// NewSIGINTExtractor creates a SIGINT extractor using the given coordinate
// normalizer.
func NewSIGINTExtractor(norm *geo.Normalizer) *SIGINTExtractor {
	if norm == nil {
		norm = geo.NewNormalizer(geo.DefaultOptions())
	}
	return &SIGINTExtractor{norm: norm}
}

// Extract walks the emitter list and the optional electronic order of
// battle. Each emitter contributes one entity located at its most recently
// timestamped location record; each EOB element contributes its own entity
// with a class-default accuracy.
func (x *SIGINTExtractor) Extract(payload map[string]any) []SourceEntity {
	if payload == nil {
		return nil
	}

	parentTS := stringField(payload, "timestamp")
	var entities []SourceEntity

	for i, raw := range listField(payload, "emitters", "detectedEmitters", "detected_emitters") {
		record, _ := raw.(map[string]any)
		if record == nil {
			record = map[string]any{}
		}

		entityType := stringField(record, "type", "classification")
		if entityType == "" {
			entityType = "emitter"
		}

		entity := SourceEntity{
			ID:          fmt.Sprintf("sigint-emitter-%d", i),
			SourceType:  SourceSIGINT,
			Type:        entityType,
			Description: stringField(record, "classification", "description"),
			Confidence:  ParseConfidence(record["confidence"]),
			Timestamp:   timestampOr(record, parentTS),
		}

		if loc, accuracy, ok := x.latestLocation(record); ok {
			entity.Location = loc
			entity.Accuracy = accuracy
		}

		entities = append(entities, entity)
	}

	if eob := mapField(payload, "electronicOrderOfBattle", "electronic_order_of_battle", "eob"); eob != nil {
		for _, class := range eobClasses {
			for i, raw := range listField(eob, class.keys...) {
				record, _ := raw.(map[string]any)
				if record == nil {
					record = map[string]any{}
				}

				entityType := stringField(record, "type")
				if entityType == "" {
					entityType = class.collection
				}

				accuracy := floatField(record, "accuracy")
				if accuracy == 0 {
					accuracy = class.defaultAccuracy
				}

				entities = append(entities, SourceEntity{
					ID:          fmt.Sprintf("sigint-%s-%d", class.collection, i),
					SourceType:  SourceSIGINT,
					Type:        entityType,
					Description: stringField(record, "description"),
					Location:    locate(x.norm, record),
					Accuracy:    accuracy,
					Confidence:  ParseConfidence(record["confidence"]),
					Timestamp:   timestampOr(record, parentTS),
				})
			}
		}
	}

	return entities
}

// latestLocation selects the emitter's most recently timestamped location
// record. Records without a parseable timestamp sort as the zero time;
// ties keep the earliest record in original array order.
func (x *SIGINTExtractor) latestLocation(emitter map[string]any) (*geo.Coordinates, float64, bool) {
	records := listField(emitter, "locations", "locationHistory", "location_history")
	if records == nil {
		// No history list: try a single location on the emitter itself.
		if loc := locate(x.norm, emitter); loc != nil {
			return loc, floatField(emitter, "accuracy"), true
		}
		return nil, 0, false
	}

	var (
		best     map[string]any
		bestTime time.Time
		found    bool
	)
	for _, raw := range records {
		record, _ := raw.(map[string]any)
		if record == nil {
			continue
		}
		ts := parseTime(stringField(record, "timestamp"))
		if !found || ts.After(bestTime) {
			best = record
			bestTime = ts
			found = true
		}
	}
	if !found {
		return nil, 0, false
	}

	loc := locate(x.norm, best)
	if loc == nil {
		return nil, 0, false
	}
	return loc, floatField(best, "accuracy"), true
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
