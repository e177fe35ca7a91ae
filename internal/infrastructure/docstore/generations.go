package docstore

import "sync"

// Generations hands out monotonically increasing request generations per
// slot.  A response is applied only when its generation is still the latest
// issued for its slot.
type Generations struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewGenerations returns an empty tracker.
func NewGenerations() *Generations {
	return &Generations{latest: make(map[string]uint64)}
}

// Begin issues the next generation for slot.
func (g *Generations) Begin(slot string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[slot]++
	return g.latest[slot]
}

// IsLatest reports whether gen is the most recent generation of slot.
func (g *Generations) IsLatest(slot string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[slot] == gen
}

// Latest returns the most recent generation of slot, zero if none.
func (g *Generations) Latest(slot string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[slot]
}

//Personal.AI order the ending
