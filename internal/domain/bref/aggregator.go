package bref

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Counts bundles the derived tables of one (pollutant, hierarchy, matrix)
// combination.  Counts are shared between callers and must not be mutated.
type Counts struct {
	Pollutant  string
	Relevant   NodeSet
	Direct     CountTable
	Cumulative CountTable
}

// Badge returns the cumulative count of id and whether a badge may be shown
// for it: only relevant nodes carry a badge.
func (c *Counts) Badge(id string) (int, bool) {
	if c == nil || !c.Relevant.Has(id) {
		return 0, false
	}
	return c.Cumulative[id], true
}

type memoKey struct {
	pollutant string
	hierarchy uint64
	matrix    uint64
	threshold float64
}

// Aggregator memoizes Counts per (pollutant, hierarchy, matrix).  Inputs
// built in code (zero fingerprints) are computed without memoization.
type Aggregator struct {
	threshold float64
	memo      *lru.Cache[memoKey, *Counts]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewAggregator returns an Aggregator holding up to size memoized results.
func NewAggregator(size int, threshold float64) (*Aggregator, error) {
	if size < 1 {
		size = 1
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	memo, err := lru.New[memoKey, *Counts](size)
	if err != nil {
		return nil, err
	}
	return &Aggregator{threshold: threshold, memo: memo}, nil
}

// Threshold returns the reliability cutoff in use.
func (a *Aggregator) Threshold() float64 {
	return a.threshold
}

// Aggregate returns the relevant-node set and count tables for the inputs.
// A nil or empty matrix yields empty count tables.
func (a *Aggregator) Aggregate(pollutant string, h *Hierarchy, m *RelevanceMatrix) *Counts {
	var key memoKey
	memoizable := h != nil && h.Fingerprint != 0 && (m == nil || m.Version != 0)
	if memoizable {
		key = memoKey{pollutant: pollutant, hierarchy: h.Fingerprint, threshold: a.threshold}
		if m != nil {
			key.matrix = m.Version
		}
		if c, ok := a.memo.Get(key); ok {
			a.hits.Add(1)
			return c
		}
	}
	a.misses.Add(1)

	relevant := ComputeRelevantNodes(h)
	direct := ComputeDirectMatchCounts(m, relevant, a.threshold)
	c := &Counts{
		Pollutant:  pollutant,
		Relevant:   relevant,
		Direct:     direct,
		Cumulative: ComputeCumulativeCounts(h, direct, relevant),
	}
	if memoizable {
		a.memo.Add(key, c)
	}
	return c
}

// Purge drops every memoized result.
func (a *Aggregator) Purge() {
	a.memo.Purge()
}

// Stats returns memo hits and misses since construction.
func (a *Aggregator) Stats() (hits, misses int64) {
	return a.hits.Load(), a.misses.Load()
}

//Personal.AI order the ending
