package patent

import (
	"sort"

	"github.com/turtacn/bref-insight/internal/domain/bref"
)

// DefaultLimit is the number of patents shown when a query sets none.
const DefaultLimit = 5

// State distinguishes an empty ranking caused by a section without any
// reliable patent from an ordinary result.
type State int

const (
	// StateRanked is a normal result, possibly empty.
	StateRanked State = iota
	// StateNoRelevantPatents means the selected section has no patent scoring
	// at or above the threshold.
	StateNoRelevantPatents
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateNoRelevantPatents:
		return "no_relevant_patents"
	default:
		return "ranked"
	}
}

// Query carries the inputs of one ranking.
type Query struct {
	// Top is the pre-ranked candidate list of the pollutant.
	Top []Patent
	// Matrix is the full patent × section score matrix of the pollutant.
	Matrix *bref.RelevanceMatrix
	// Index hydrates matrix-only patents.
	Index Index

	Pollutant string
	// NodeID is the selected BREF section; empty when none is selected.
	NodeID string

	// Threshold is the minimum RelevanceScore kept.  Nil means
	// bref.DefaultThreshold; any explicit value, zero included, is used as is.
	Threshold *float64
	Limit     int
}

// Threshold returns a Query threshold of v.
func Threshold(v float64) *float64 {
	return &v
}

// Result is the outcome of Rank.
type Result struct {
	Patents []Patent
	State   State
	// RelevantCount is how many matrix entries reach the threshold for the
	// selected section.  Zero without a selection.
	RelevantCount int
}

// Rank selects at most q.Limit patents whose RelevanceScore reaches
// q.Threshold, highest first, ties kept in encounter order, ids unique.
//
// Without a section the candidates are q.Top scored by their base score.
// With a section, the candidates are q.Top scored against the section
// (inline score, else matrix score, else zero) followed by every other
// matrix patent reaching the threshold, hydrated from q.Index.
func Rank(q Query) Result {
	threshold := bref.DefaultThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	if q.NodeID == "" {
		var candidates []Patent
		for _, p := range q.Top {
			p.RelevanceScore = p.Score
			if p.RelevanceScore >= threshold {
				candidates = append(candidates, p)
			}
		}
		return Result{Patents: finish(candidates, limit), State: StateRanked}
	}

	relevant := q.Matrix.CountAtOrAbove(q.NodeID, threshold)
	if relevant == 0 {
		return Result{Patents: []Patent{}, State: StateNoRelevantPatents}
	}

	var candidates []Patent
	for _, p := range q.Top {
		p.RelevanceScore = sectionScore(p, q.Matrix, q.NodeID)
		if p.RelevanceScore >= threshold {
			candidates = append(candidates, p)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, p := range candidates {
		seen[p.ID] = struct{}{}
	}
	for _, pid := range q.Matrix.Patents() {
		if _, dup := seen[pid]; dup {
			continue
		}
		score, ok := q.Matrix.Score(pid, q.NodeID)
		if !ok || score < threshold {
			continue
		}
		p := Patent{ID: pid}
		if meta, ok := q.Index.Lookup(pid); ok {
			p = meta
			p.ID = pid
		}
		p.Score = 0
		p.RelevanceScore = score
		candidates = append(candidates, p)
		seen[pid] = struct{}{}
	}

	return Result{Patents: finish(candidates, limit), State: StateRanked, RelevantCount: relevant}
}

// RankPatents is Rank returning the list only.
func RankPatents(top []Patent, m *bref.RelevanceMatrix, ix Index, pollutant, nodeID string, threshold float64, limit int) []Patent {
	return Rank(Query{
		Top:       top,
		Matrix:    m,
		Index:     ix,
		Pollutant: pollutant,
		NodeID:    nodeID,
		Threshold: Threshold(threshold),
		Limit:     limit,
	}).Patents
}

func sectionScore(p Patent, m *bref.RelevanceMatrix, nodeID string) float64 {
	if s, ok := p.InlineScore(nodeID); ok {
		return s
	}
	if s, ok := m.Score(p.ID, nodeID); ok {
		return s
	}
	return 0
}

// finish de-duplicates by id (first wins), sorts stably by RelevanceScore
// descending and truncates.
func finish(candidates []Patent, limit int) []Patent {
	out := make([]Patent, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, p := range candidates {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

//Personal.AI order the ending
