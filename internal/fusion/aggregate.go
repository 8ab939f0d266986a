package fusion

import (
	"fmt"

	"github.com/lhoang/fusioncore/internal/correlation"
	"github.com/lhoang/fusioncore/internal/extract"
	"github.com/lhoang/fusioncore/internal/geo"
)

// Group is an upstream-asserted fused-entity grouping from an
// authoritative fusion payload.
type Group struct {
	ID           string
	Type         string
	Description  string
	Confidence   extract.Confidence
	Correlations []correlation.Correlation
}

// Aggregator builds fused entities from correlations and the entity set
// they reference.
type Aggregator struct{}

// NewAggregator creates a fusion aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate synthesizes one fused entity per connected component of the
// correlation graph: two correlations sharing a source id belong to the
// same fused entity. Correlations whose HUMINT or SIGINT reference cannot
// be resolved in the entity set are dropped silently; an unresolvable
// OSINT leg is cleared but the correlation survives.
func (a *Aggregator) Aggregate(correlations []correlation.Correlation, entities extract.EntitySet) []FusedEntity {
	resolved := resolveReferences(correlations, entities)
	if len(resolved) == 0 {
		return nil
	}

	// Union-find over source ids, keeping component order deterministic
	// by first-seen correlation index.
	parent := make(map[string]string)
	var find func(string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(x, y string) {
		parent[find(x)] = find(y)
	}

	for _, c := range resolved {
		for _, id := range c.refs() {
			if _, ok := parent[id]; !ok {
				parent[id] = id
			}
		}
		union(c.c.HumintID, c.c.SigintID)
		if c.c.OsintID != "" {
			union(c.c.HumintID, c.c.OsintID)
		}
	}

	// Group correlations by component root in first-seen order.
	var roots []string
	byRoot := make(map[string][]correlation.Correlation)
	for _, c := range resolved {
		root := find(c.c.HumintID)
		if _, seen := byRoot[root]; !seen {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], c.c)
	}

	out := make([]FusedEntity, 0, len(roots))
	for i, root := range roots {
		entity := a.build(fmt.Sprintf("fused-%d", i+1), byRoot[root], entities)
		entity.CombinedConfidence = extract.ConfidenceMedium
		out = append(out, entity)
	}
	return out
}

// AggregateGroups builds fused entities from authoritative groupings,
// honoring the upstream ids, types and confidence where supplied.
func (a *Aggregator) AggregateGroups(groups []Group, entities extract.EntitySet) []FusedEntity {
	var out []FusedEntity
	for i, g := range groups {
		resolved := resolveReferences(g.Correlations, entities)
		if len(resolved) == 0 {
			continue
		}
		kept := make([]correlation.Correlation, 0, len(resolved))
		for _, r := range resolved {
			kept = append(kept, r.c)
		}

		id := g.ID
		if id == "" {
			id = fmt.Sprintf("fused-%d", i+1)
		}
		entity := a.build(id, kept, entities)
		if g.Type != "" {
			entity.Type = g.Type
		}
		if g.Description != "" {
			entity.Description = g.Description
		}
		entity.CombinedConfidence = g.Confidence
		if entity.CombinedConfidence == "" {
			entity.CombinedConfidence = extract.ConfidenceMedium
		}
		out = append(out, entity)
	}
	return out
}

// build assembles a fused entity from its correlation subset.
func (a *Aggregator) build(id string, correlations []correlation.Correlation, entities extract.EntitySet) FusedEntity {
	entity := FusedEntity{
		ID:           id,
		Correlations: correlations,
	}

	seen := make(map[string]bool)
	var members []extract.SourceEntity
	appendID := func(rawID string) {
		if rawID == "" || seen[rawID] {
			return
		}
		seen[rawID] = true
		src, ok := entities[rawID]
		if !ok {
			return
		}
		members = append(members, src)
		switch src.SourceType {
		case extract.SourceHUMINT:
			entity.HumintSources = append(entity.HumintSources, rawID)
		case extract.SourceSIGINT:
			entity.SigintSources = append(entity.SigintSources, rawID)
		case extract.SourceOSINT:
			entity.OsintSources = append(entity.OsintSources, rawID)
		}
	}
	for _, c := range correlations {
		appendID(c.HumintID)
		appendID(c.SigintID)
		appendID(c.OsintID)
	}

	entity.Type = inheritType(members)
	entity.Location = resolveLocation(entity, entities)
	entity.Description = synthesizeDescription(entity, entities)
	return entity
}

// inheritType picks the type of the strongest contributing entity:
// confidence rank first, then source priority (sigint over humint over
// osint), then discovery order.
func inheritType(members []extract.SourceEntity) string {
	best := -1
	bestScore := -1
	for i, m := range members {
		score := m.Confidence.Rank()*10 + sourcePriority(m.SourceType)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return ""
	}
	return members[best].Type
}

// resolveLocation applies the source-priority rule: first SIGINT source
// with a location, else first HUMINT, else nil. SIGINT wins because its
// location accuracy is typically tighter.
func resolveLocation(entity FusedEntity, entities extract.EntitySet) *geo.Coordinates {
	for _, lists := range [][]string{entity.SigintSources, entity.HumintSources, entity.OsintSources} {
		for _, id := range lists {
			if src, ok := entities[id]; ok && src.Location != nil {
				loc := *src.Location
				return &loc
			}
		}
	}
	return nil
}

// synthesizeDescription concatenates the first HUMINT description with the
// first SIGINT classification in parentheses when both exist, else uses
// whichever is present.
func synthesizeDescription(entity FusedEntity, entities extract.EntitySet) string {
	humint := firstDescription(entity.HumintSources, entities)
	sigint := firstDescription(entity.SigintSources, entities)
	switch {
	case humint != "" && sigint != "":
		return fmt.Sprintf("%s (%s)", humint, sigint)
	case humint != "":
		return humint
	default:
		return sigint
	}
}

func firstDescription(ids []string, entities extract.EntitySet) string {
	for _, id := range ids {
		if src, ok := entities[id]; ok && src.Description != "" {
			return src.Description
		}
	}
	return ""
}

func sourcePriority(s extract.SourceType) int {
	switch s {
	case extract.SourceSIGINT:
		return 3
	case extract.SourceHUMINT:
		return 2
	default:
		return 1
	}
}

type resolvedCorrelation struct {
	c correlation.Correlation
}

func (r resolvedCorrelation) refs() []string {
	refs := []string{r.c.HumintID, r.c.SigintID}
	if r.c.OsintID != "" {
		refs = append(refs, r.c.OsintID)
	}
	return refs
}

// resolveReferences drops correlations with unresolvable HUMINT or SIGINT
// references and clears unresolvable OSINT legs. Id-not-found is expected
// when upstream data is asynchronous or partial, so nothing is reported.
func resolveReferences(correlations []correlation.Correlation, entities extract.EntitySet) []resolvedCorrelation {
	out := make([]resolvedCorrelation, 0, len(correlations))
	for _, c := range correlations {
		if _, ok := entities[c.HumintID]; !ok {
			continue
		}
		if _, ok := entities[c.SigintID]; !ok {
			continue
		}
		if c.OsintID != "" {
			if _, ok := entities[c.OsintID]; !ok {
				c.OsintID = ""
			}
		}
		out = append(out, resolvedCorrelation{c: c})
	}
	return out
}
