package extract

import (
	"fmt"

	"github.com/lhoang/fusioncore/internal/geo"
)

// humintCollections maps the four independent lists of a HUMINT analysis
// payload to the collection tag used in synthetic ids and the entity type
// assigned to members.
var humintCollections = []struct {
	keys       []string
	collection string
	entityType string
}{
	{[]string{"enemyForces", "enemy_forces"}, "force", "force"},
	{[]string{"tacticalObservations", "tactical_observations", "observations"}, "obs", "observation"},
	{[]string{"threats"}, "threat", "threat"},
	{[]string{"locations"}, "loc", "location"},
}

// HUMINTExtractor converts human-reporting analysis payloads into source
// entities.
type HUMINTExtractor struct {
	norm *geo.Normalizer
}

// NewHUMINTExtractor creates a HUMINT extractor using the given coordinate
// normalizer.
func NewHUMINTExtractor(norm *geo.Normalizer) *HUMINTExtractor {
	if norm == nil {
		norm = geo.NewNormalizer(geo.DefaultOptions())
	}
	return &HUMINTExtractor{norm: norm}
}

// Extract walks the enemy-forces, tactical-observations, threats and
// locations lists of the payload. Ids follow humint-{collection}-{index}
// with index being the position in the original list; that position is the
// only identity these records carry.
func (x *HUMINTExtractor) Extract(payload map[string]any) []SourceEntity {
	if payload == nil {
		return nil
	}

	parentTS := stringField(payload, "timestamp")
	var entities []SourceEntity

	for _, col := range humintCollections {
		for i, raw := range listField(payload, col.keys...) {
			record, _ := raw.(map[string]any)
			if record == nil {
				record = map[string]any{}
			}

			entityType := stringField(record, "type")
			if entityType == "" {
				entityType = col.entityType
			}

			entity := SourceEntity{
				ID:          fmt.Sprintf("humint-%s-%d", col.collection, i),
				SourceType:  SourceHUMINT,
				Type:        entityType,
				Description: stringField(record, "description", "summary"),
				Location:    locate(x.norm, record),
				Accuracy:    floatField(record, "accuracy"),
				Confidence:  ParseConfidence(record["confidence"]),
				Timestamp:   timestampOr(record, parentTS),
			}
			entities = append(entities, entity)
		}
	}

	return entities
}
