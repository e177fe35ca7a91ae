// Package bref models the BREF section hierarchy and the relevance
// aggregation over it: which sections matter for a pollutant and how many
// reliable patents back each section.
package bref

// DefaultThreshold is the reliability cutoff above which a relevance score
// is counted.
const DefaultThreshold = 0.68

// DefaultMaxDepth bounds every recursive traversal of a hierarchy.
const DefaultMaxDepth = 64

// ─────────────────────────────────────────────────────────────────────────────
// Node
// ─────────────────────────────────────────────────────────────────────────────

// Node is one section of a BREF document.  A node without children is a leaf.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Children []*Node `json:"children,omitempty"`

	// DirectMatch is set when the section itself matches the pollutant.
	DirectMatch bool `json:"hasMatchForPollutant"`

	// DescendantMatch is set when some descendant matches.  Always false on
	// leaves after Parse.
	DescendantMatch bool `json:"hasChildrenWithMatchForPollutant"`
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// IsRelevant reports whether n is flagged relevant to the active pollutant.
func (n *Node) IsRelevant() bool {
	return n.DirectMatch || n.DescendantMatch
}

// DisplayName falls back to the id when the node has no name.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Crumb is one entry of a root-first path.
type Crumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Hierarchy
// ─────────────────────────────────────────────────────────────────────────────

// Hierarchy is the normalized form of a BREF hierarchy document.  It is
// immutable once returned by Parse.
type Hierarchy struct {
	// Documents are the top-level BREF documents in source order.
	Documents []*Node

	// Fingerprint identifies the source bytes; equal fingerprints mean equal
	// trees.
	Fingerprint uint64

	// Warnings lists data-integrity problems found during normalization.
	Warnings []Warning

	index map[string][]*Node
}

// Warning describes a skipped or corrected part of the source document.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// NewHierarchy builds a Hierarchy from already-normalized documents.  The
// fingerprint is left zero; callers that need memoization set it.
func NewHierarchy(docs ...*Node) *Hierarchy {
	h := &Hierarchy{Documents: docs}
	h.buildIndex()
	return h
}

// buildIndex records the root-first path of every identified node.  The
// first occurrence of a duplicated id wins.
func (h *Hierarchy) buildIndex() {
	h.index = make(map[string][]*Node)
	var walk func(n *Node, path []*Node, depth int)
	walk = func(n *Node, path []*Node, depth int) {
		if n == nil || depth > DefaultMaxDepth {
			return
		}
		path = append(path, n)
		if n.ID != "" {
			if _, dup := h.index[n.ID]; !dup {
				p := make([]*Node, len(path))
				copy(p, path)
				h.index[n.ID] = p
			}
		}
		for _, c := range n.Children {
			walk(c, path, depth+1)
		}
	}
	for _, d := range h.Documents {
		walk(d, nil, 1)
	}
}

// Find returns the node with the given id.
func (h *Hierarchy) Find(id string) (*Node, bool) {
	if h == nil {
		return nil, false
	}
	p, ok := h.index[id]
	if !ok {
		return nil, false
	}
	return p[len(p)-1], true
}

// PathTo returns the root-first chain of nodes ending at id, inclusive.
func (h *Hierarchy) PathTo(id string) ([]*Node, bool) {
	if h == nil {
		return nil, false
	}
	p, ok := h.index[id]
	if !ok {
		return nil, false
	}
	out := make([]*Node, len(p))
	copy(out, p)
	return out, true
}

// Len returns the number of identified nodes.
func (h *Hierarchy) Len() int {
	if h == nil {
		return 0
	}
	return len(h.index)
}

// Walk visits every node in pre-order up to DefaultMaxDepth.  Returning false
// from fn skips the node's subtree.
func (h *Hierarchy) Walk(fn func(n *Node, depth int) bool) {
	if h == nil {
		return
	}
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n == nil || depth > DefaultMaxDepth {
			return
		}
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, d := range h.Documents {
		walk(d, 1)
	}
}

// SubtreeHasRelevant reports whether n or any node below it is relevant.
func SubtreeHasRelevant(n *Node) bool {
	return subtreeHasRelevant(n, 1)
}

func subtreeHasRelevant(n *Node, depth int) bool {
	if n == nil || depth > DefaultMaxDepth {
		return false
	}
	if n.IsRelevant() {
		return true
	}
	for _, c := range n.Children {
		if subtreeHasRelevant(c, depth+1) {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// NodeSet / CountTable
// ─────────────────────────────────────────────────────────────────────────────

// NodeSet is a set of node ids.
type NodeSet map[string]struct{}

// NewNodeSet builds a set from ids.
func NewNodeSet(ids ...string) NodeSet {
	s := make(NodeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s NodeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// CountTable maps node ids to patent counts.
type CountTable map[string]int

// Get returns the count for id, zero when absent.
func (c CountTable) Get(id string) int {
	return c[id]
}

//Personal.AI order the ending
