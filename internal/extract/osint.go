package extract

import (
	"fmt"

	"github.com/lhoang/fusioncore/internal/geo"
)

// OSINTExtractor converts open-source analysis payloads into source
// entities. OSINT is the optional third leg of a correlation; its records
// are sparser than HUMINT or SIGINT and frequently carry no location.
type OSINTExtractor struct {
	norm *geo.Normalizer
}

// NewOSINTExtractor creates an OSINT extractor using the given coordinate
// normalizer.
func NewOSINTExtractor(norm *geo.Normalizer) *OSINTExtractor {
	if norm == nil {
		norm = geo.NewNormalizer(geo.DefaultOptions())
	}
	return &OSINTExtractor{norm: norm}
}

// Extract walks the payload's report/item list producing
// osint-report-{index} entities.
func (x *OSINTExtractor) Extract(payload map[string]any) []SourceEntity {
	if payload == nil {
		return nil
	}

	parentTS := stringField(payload, "timestamp")
	var entities []SourceEntity

	for i, raw := range listField(payload, "reports", "items", "observations") {
		record, _ := raw.(map[string]any)
		if record == nil {
			record = map[string]any{}
		}

		entityType := stringField(record, "type", "category")
		if entityType == "" {
			entityType = "observation"
		}

		entities = append(entities, SourceEntity{
			ID:          fmt.Sprintf("osint-report-%d", i),
			SourceType:  SourceOSINT,
			Type:        entityType,
			Description: stringField(record, "description", "summary", "title"),
			Location:    locate(x.norm, record),
			Accuracy:    floatField(record, "accuracy"),
			Confidence:  ParseConfidence(record["confidence"]),
			Timestamp:   timestampOr(record, parentTS),
		})
	}

	return entities
}
