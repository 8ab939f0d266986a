// Package correlation scores cross-source entity pairings. Given the
// uniform source entities produced by the extractors it computes, for each
// HUMINT/SIGINT pair (optionally with an OSINT leg), how strongly the two
// observations describe the same real-world entity.
package correlation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lhoang/fusioncore/internal/extract"
	"github.com/lhoang/fusioncore/internal/geo"
)

// Type buckets correlation strength into analyst-facing categories.
type Type string

const (
	TypeConfirmed Type = "confirmed"
	TypeProbable  Type = "probable"
	TypePossible  Type = "possible"
)

// Method records how a correlation was produced.
type Method string

const (
	// MethodAuthoritative marks correlations asserted upstream by an
	// analyst or external process and passed through unchanged.
	MethodAuthoritative Method = "authoritative"
	// MethodProximity marks correlations derived from spatial proximity
	// alone. They assert co-location, never corroborating intent.
	MethodProximity Method = "proximity"
)

// Factors breaks a correlation strength into its contributing dimensions.
// Each factor is in [0,1].
type Factors struct {
	Spatial  float64 `json:"spatial"`
	Temporal float64 `json:"temporal"`
	Semantic float64 `json:"semantic"`
}

// DefaultFactors are substituted when an authoritative correlation omits
// its factor breakdown.
func DefaultFactors() Factors {
	return Factors{Spatial: 0.5, Temporal: 0.5, Semantic: 0.5}
}

// Strength is a scored correlation in [0,1] with its factor breakdown.
type Strength struct {
	Value   float64 `json:"value"`
	Factors Factors `json:"factors"`
}

// Correlation links one HUMINT-origin entity to one SIGINT-origin entity,
// optionally with an OSINT third leg.
type Correlation struct {
	ID       string   `json:"id"`
	HumintID string   `json:"humint_id"`
	SigintID string   `json:"sigint_id"`
	OsintID  string   `json:"osint_id,omitempty"`
	Strength Strength `json:"strength"`
	Type     Type     `json:"correlation_type"`
	Method   Method   `json:"method"`
}

// ErrSameSource rejects correlations whose references do not span two
// distinct source disciplines.
var ErrSameSource = errors.New("correlation must reference two distinct sources")

// Proximity-derived mode constants. The 0.1 degree window is roughly
// 10 km at mid-latitudes.
const (
	ProximityWindow      = 0.1
	ProximityMinStrength = 0.1
	proximityTemporal    = 0.5
	proximitySemantic    = 0.3
)

// BucketType derives the analyst-facing category from a strength value:
// above 0.7 confirmed, above 0.4 up to and including 0.7 probable,
// otherwise possible. Boundary values belong to the lower bucket.
func BucketType(value float64) Type {
	switch {
	case value > 0.7:
		return TypeConfirmed
	case value > 0.4:
		return TypeProbable
	default:
		return TypePossible
	}
}

// Engine computes correlations between source-entity sets.
type Engine struct{}

// NewEngine creates a correlation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Correlate derives proximity correlations for every HUMINT x SIGINT pair
// with resolvable coordinates. Pairs missing a coordinate on either side
// are skipped, not reported. Pairs at or beyond the proximity window yield
// no correlation.
func (e *Engine) Correlate(humint, sigint []extract.SourceEntity) []Correlation {
	var out []Correlation
	for _, h := range humint {
		if h.Location == nil {
			continue
		}
		for _, s := range sigint {
			if s.Location == nil {
				continue
			}
			d := distance(h, s)
			if d >= ProximityWindow {
				continue
			}
			strength := 1 - d/ProximityWindow
			if strength < ProximityMinStrength {
				strength = ProximityMinStrength
			}
			out = append(out, Correlation{
				ID:       fmt.Sprintf("corr-%s-%s", h.ID, s.ID),
				HumintID: h.ID,
				SigintID: s.ID,
				Strength: Strength{
					Value: strength,
					Factors: Factors{
						Spatial:  strength,
						Temporal: proximityTemporal,
						Semantic: proximitySemantic,
					},
				},
				Type:   BucketType(strength),
				Method: MethodProximity,
			})
		}
	}
	return out
}

// Authoritative validates and normalizes an upstream-asserted correlation.
// The strength is trusted and passed through unchanged; only a missing
// factor breakdown is defaulted. Same-source references are rejected.
func Authoritative(humintID, sigintID, osintID string, strength Strength, hasFactors bool) (Correlation, error) {
	if humintID == "" || sigintID == "" {
		return Correlation{}, fmt.Errorf("%w: humint=%q sigint=%q", ErrSameSource, humintID, sigintID)
	}
	if sourcePrefix(humintID) == sourcePrefix(sigintID) {
		return Correlation{}, fmt.Errorf("%w: %q and %q", ErrSameSource, humintID, sigintID)
	}
	if !hasFactors {
		strength.Factors = DefaultFactors()
	}
	return Correlation{
		ID:       fmt.Sprintf("corr-%s-%s", humintID, sigintID),
		HumintID: humintID,
		SigintID: sigintID,
		OsintID:  osintID,
		Strength: strength,
		Type:     BucketType(strength.Value),
		Method:   MethodAuthoritative,
	}, nil
}

func sourcePrefix(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func distance(a, b extract.SourceEntity) float64 {
	return geo.Distance(*a.Location, *b.Location)
}
