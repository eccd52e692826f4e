package todds

import "sort"

// oneHotEncoder maps categorical (surface, level) pairs onto fixed-width
// feature vectors. Column order is fixed at construction so that query
// vectors always line up with the training matrix.
type oneHotEncoder struct {
	surfaces map[string]int
	levels   map[string]int
	width    int
}

// newOneHotEncoder builds an encoder over the categories observed in the
// given matches
func newOneHotEncoder(matches []*MatchRecord) *oneHotEncoder {
	surfaceSet := make(map[string]bool)
	levelSet := make(map[string]bool)
	for _, m := range matches {
		surfaceSet[m.Surface] = true
		levelSet[m.TourneyLevel] = true
	}

	e := &oneHotEncoder{
		surfaces: indexOf(surfaceSet),
		levels:   indexOf(levelSet),
	}
	// Level columns follow the surface columns
	for k, v := range e.levels {
		e.levels[k] = v + len(e.surfaces)
	}
	e.width = len(e.surfaces) + len(e.levels)
	return e
}

// indexOf assigns deterministic column indexes to a category set
func indexOf(set map[string]bool) map[string]int {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	return index
}

// Encode produces a feature vector for one (surface, level) pair.
// Categories never seen in training contribute nothing, the
// corresponding columns stay zero rather than erroring.
func (e *oneHotEncoder) Encode(surface, level string) []float64 {
	v := make([]float64, e.width)
	if i, ok := e.surfaces[surface]; ok {
		v[i] = 1.0
	}
	if i, ok := e.levels[level]; ok {
		v[i] = 1.0
	}
	return v
}
