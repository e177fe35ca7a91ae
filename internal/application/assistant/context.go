package assistant

import (
	"sync"

	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/internal/domain/sdg"
)

// Section is a BREF section added to the chat context.
type Section struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// Label returns the name, falling back to the id.
func (s Section) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// ContextSet is the accreted selection fed to the assistant: patents and
// sections unique by id in insertion order, the active pollutant and its
// SDG entries.  Every effective mutation bumps Version.
type ContextSet struct {
	mu sync.RWMutex

	patents  []patent.Patent
	sections []Section

	pollutant string
	sdgs      []sdg.SDG

	version uint64
}

// NewContextSet returns an empty context.
func NewContextSet() *ContextSet {
	return &ContextSet{}
}

// AddPatent appends p unless its id is already present.
func (c *ContextSet) AddPatent(p patent.Patent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.patents {
		if existing.ID == p.ID {
			return false
		}
	}
	c.patents = append(c.patents, p)
	c.version++
	return true
}

// RemovePatent drops id; removing a non-member is a no-op.
func (c *ContextSet) RemovePatent(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.patents {
		if p.ID == id {
			c.patents = append(c.patents[:i:i], c.patents[i+1:]...)
			c.version++
			return true
		}
	}
	return false
}

// HasPatent reports membership.
func (c *ContextSet) HasPatent(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.patents {
		if p.ID == id {
			return true
		}
	}
	return false
}

// AddSection appends s unless its id is already present.
func (c *ContextSet) AddSection(s Section) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.sections {
		if existing.ID == s.ID {
			return false
		}
	}
	c.sections = append(c.sections, s)
	c.version++
	return true
}

// RemoveSection drops id; removing a non-member is a no-op.
func (c *ContextSet) RemoveSection(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.sections {
		if s.ID == id {
			c.sections = append(c.sections[:i:i], c.sections[i+1:]...)
			c.version++
			return true
		}
	}
	return false
}

// HasSection reports membership.
func (c *ContextSet) HasSection(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SetPollutant records the active pollutant and its SDG entries.
func (c *ContextSet) SetPollutant(pollutant string, sdgs []sdg.SDG) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollutant = pollutant
	c.sdgs = append([]sdg.SDG(nil), sdgs...)
	c.version++
}

// Clear empties the patent and section sets.
func (c *ContextSet) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.patents) == 0 && len(c.sections) == 0 {
		return
	}
	c.patents, c.sections = nil, nil
	c.version++
}

// IsEmpty reports whether neither patents nor sections are selected.
func (c *ContextSet) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patents) == 0 && len(c.sections) == 0
}

// Version changes whenever the context does.
func (c *ContextSet) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Snapshot is an immutable copy of a ContextSet.
type Snapshot struct {
	Patents   []patent.Patent
	Sections  []Section
	Pollutant string
	SDGs      []sdg.SDG
	Version   uint64
}

// Snapshot copies the current context.
func (c *ContextSet) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Patents:   append([]patent.Patent(nil), c.patents...),
		Sections:  append([]Section(nil), c.sections...),
		Pollutant: c.pollutant,
		SDGs:      append([]sdg.SDG(nil), c.sdgs...),
		Version:   c.version,
	}
}

//Personal.AI order the ending
