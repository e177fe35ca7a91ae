// Package navigator keeps the interactive state of the BREF tree: which
// sections are expanded, whether only relevant documents are shown, and
// which leaf is the active selection.
package navigator

import (
	"strings"
	"sync"

	"github.com/turtacn/bref-insight/internal/domain/bref"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// Row is one visible line of the tree.
type Row struct {
	Node       *bref.Node
	Depth      int
	Expanded   bool
	Selectable bool
	Selected   bool
	Badge      int
	HasBadge   bool
}

// Navigator is safe for concurrent use.
type Navigator struct {
	mu sync.RWMutex

	pollutant string
	hierarchy *bref.Hierarchy
	counts    *bref.Counts

	expanded     map[string]bool
	onlyRelevant bool

	active *bref.Node
	path   []bref.Crumb

	logger logging.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithShowOnlyRelevant sets the initial filter mode.
func WithShowOnlyRelevant(on bool) Option {
	return func(n *Navigator) { n.onlyRelevant = on }
}

// New returns a Navigator over an empty hierarchy.
func New(logger logging.Logger, opts ...Option) *Navigator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	n := &Navigator{
		hierarchy: bref.NewHierarchy(),
		expanded:  make(map[string]bool),
		logger:    logger.Named("navigator"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Context
// ─────────────────────────────────────────────────────────────────────────────

// SetContext installs the hierarchy and counts of a pollutant.  An empty
// pollutant means none is active.  Expansion state is kept; the selection is
// kept only if it is still selectable in the new context.
func (n *Navigator) SetContext(pollutant string, h *bref.Hierarchy, counts *bref.Counts) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if h == nil {
		h = bref.NewHierarchy()
	}
	n.pollutant = pollutant
	n.hierarchy = h
	n.counts = counts

	if n.active == nil {
		return
	}
	id := n.active.ID
	node, ok := h.Find(id)
	if !ok || n.checkSelectable(node) != nil {
		n.logger.Debug("selection dropped on context change",
			logging.String("node_id", id),
			logging.String("pollutant", pollutant))
		n.active, n.path = nil, nil
		return
	}
	n.active = node
	n.path = crumbs(h, id)
}

// Pollutant returns the active pollutant, empty when none.
func (n *Navigator) Pollutant() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.pollutant
}

// Hierarchy returns the canonical hierarchy.
func (n *Navigator) Hierarchy() *bref.Hierarchy {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.hierarchy
}

// ─────────────────────────────────────────────────────────────────────────────
// Expansion
// ─────────────────────────────────────────────────────────────────────────────

// Toggle flips the expansion of id and returns the new state.
func (n *Navigator) Toggle(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expanded[id] = !n.expanded[id]
	if !n.expanded[id] {
		delete(n.expanded, id)
		return false
	}
	return true
}

// Expand marks id expanded.
func (n *Navigator) Expand(id string) {
	n.mu.Lock()
	n.expanded[id] = true
	n.mu.Unlock()
}

// Collapse marks id collapsed.
func (n *Navigator) Collapse(id string) {
	n.mu.Lock()
	delete(n.expanded, id)
	n.mu.Unlock()
}

// IsExpanded reports the expansion of id; unknown ids are collapsed.
func (n *Navigator) IsExpanded(id string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.expanded[id]
}

// ExpandAll expands every inner node of the current hierarchy.
func (n *Navigator) ExpandAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hierarchy.Walk(func(node *bref.Node, _ int) bool {
		if !node.IsLeaf() && node.ID != "" {
			n.expanded[node.ID] = true
		}
		return true
	})
}

// CollapseAll resets every node to collapsed.
func (n *Navigator) CollapseAll() {
	n.mu.Lock()
	n.expanded = make(map[string]bool)
	n.mu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────────
// Filtering
// ─────────────────────────────────────────────────────────────────────────────

// SetShowOnlyRelevant switches between the full tree and the relevant-only
// view.
func (n *Navigator) SetShowOnlyRelevant(on bool) {
	n.mu.Lock()
	n.onlyRelevant = on
	n.mu.Unlock()
}

// ShowOnlyRelevant returns the filter mode as set.
func (n *Navigator) ShowOnlyRelevant() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.onlyRelevant
}

// FilteredHierarchy returns the top-level documents to display.  With the
// relevant-only mode and an active pollutant, documents without any
// relevant node are pruned.  The canonical hierarchy is never modified.
func (n *Navigator) FilteredHierarchy() []*bref.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.filtered()
}

func (n *Navigator) filtered() []*bref.Node {
	docs := n.hierarchy.Documents
	if !n.onlyRelevant || n.pollutant == "" {
		out := make([]*bref.Node, len(docs))
		copy(out, docs)
		return out
	}
	out := make([]*bref.Node, 0, len(docs))
	for _, d := range docs {
		if bref.SubtreeHasRelevant(d) {
			out = append(out, d)
		}
	}
	return out
}

// Badge returns the count to display next to id.  Only relevant nodes carry a
// badge, and only while a pollutant is active.
func (n *Navigator) Badge(id string) (int, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.badge(id)
}

func (n *Navigator) badge(id string) (int, bool) {
	if n.pollutant == "" {
		return 0, false
	}
	return n.counts.Badge(id)
}

// VisibleRows flattens the filtered tree in display order, descending only
// into expanded nodes.
func (n *Navigator) VisibleRows() []Row {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var rows []Row
	var walk func(node *bref.Node, depth int)
	walk = func(node *bref.Node, depth int) {
		if depth > bref.DefaultMaxDepth {
			return
		}
		row := Row{
			Node:       node,
			Depth:      depth,
			Expanded:   n.expanded[node.ID],
			Selectable: n.checkSelectable(node) == nil,
			Selected:   n.active != nil && n.active.ID == node.ID,
		}
		row.Badge, row.HasBadge = n.badge(node.ID)
		rows = append(rows, row)
		if !row.Expanded {
			return
		}
		for _, c := range node.Children {
			walk(c, depth+1)
		}
	}
	for _, d := range n.filtered() {
		walk(d, 0)
	}
	return rows
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection
// ─────────────────────────────────────────────────────────────────────────────

// Select makes id the active section.  Only leaves are selectable and, with
// an active pollutant, only relevant ones.  A rejected selection leaves the
// state unchanged.
func (n *Navigator) Select(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	node, ok := n.hierarchy.Find(id)
	if !ok {
		n.logger.Warn("selection rejected: unknown node", logging.String("node_id", id))
		return apperrors.New(apperrors.CodeNodeNotFound, "node not found").WithDetail(id)
	}
	if err := n.checkSelectable(node); err != nil {
		n.logger.Warn("selection rejected",
			logging.String("node_id", id),
			logging.String("pollutant", n.pollutant),
			logging.Err(err))
		return err
	}
	n.active = node
	n.path = crumbs(n.hierarchy, id)
	return nil
}

// Selectable reports whether id may become the active selection.
func (n *Navigator) Selectable(id string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	node, ok := n.hierarchy.Find(id)
	return ok && n.checkSelectable(node) == nil
}

// checkSelectable treats DescendantMatch on a leaf as false.
func (n *Navigator) checkSelectable(node *bref.Node) error {
	if !node.IsLeaf() {
		return apperrors.New(apperrors.CodeNodeNotSelectable, "only leaf sections can be selected").WithDetail(node.ID)
	}
	if n.pollutant != "" && !node.DirectMatch {
		return apperrors.New(apperrors.CodeNodeNotRelevant, "section is not relevant to the active pollutant").WithDetail(node.ID)
	}
	return nil
}

// ClearSelection drops the active section.
func (n *Navigator) ClearSelection() {
	n.mu.Lock()
	n.active, n.path = nil, nil
	n.mu.Unlock()
}

// Active returns the selected node, nil when none.
func (n *Navigator) Active() *bref.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// Breadcrumbs returns the root-first path of the selection, empty when none.
func (n *Navigator) Breadcrumbs() []bref.Crumb {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]bref.Crumb, len(n.path))
	copy(out, n.path)
	return out
}

// BreadcrumbString joins the path names with sep.
func (n *Navigator) BreadcrumbString(sep string) string {
	path := n.Breadcrumbs()
	names := make([]string, len(path))
	for i, c := range path {
		names[i] = c.Name
	}
	return strings.Join(names, sep)
}

func crumbs(h *bref.Hierarchy, id string) []bref.Crumb {
	nodes, ok := h.PathTo(id)
	if !ok {
		return nil
	}
	out := make([]bref.Crumb, len(nodes))
	for i, node := range nodes {
		out[i] = bref.Crumb{ID: node.ID, Name: node.DisplayName()}
	}
	return out
}

//Personal.AI order the ending
