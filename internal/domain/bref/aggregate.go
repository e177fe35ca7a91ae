package bref

// ComputeRelevantNodes returns the ids of every node flagged DirectMatch or
// DescendantMatch.
func ComputeRelevantNodes(h *Hierarchy) NodeSet {
	out := make(NodeSet)
	h.Walk(func(n *Node, _ int) bool {
		if n.ID != "" && n.IsRelevant() {
			out[n.ID] = struct{}{}
		}
		return true
	})
	return out
}

// ComputeDirectMatchCounts counts, per node, the matrix entries scoring at
// or above threshold.  Nodes outside relevant never accumulate a count.
func ComputeDirectMatchCounts(m *RelevanceMatrix, relevant NodeSet, threshold float64) CountTable {
	out := make(CountTable)
	m.Each(func(_, nodeID string, score float64) {
		if score >= threshold && relevant.Has(nodeID) {
			out[nodeID]++
		}
	})
	return out
}

// ComputeCumulativeCounts folds direct counts bottom-up.  A node's total is
// its own direct count plus the totals of those children that are in
// relevant; other children never contribute, whatever their counts.  Every
// identified node within DefaultMaxDepth gets an entry.
func ComputeCumulativeCounts(h *Hierarchy, direct CountTable, relevant NodeSet) CountTable {
	acc := make(CountTable)
	if h == nil {
		return acc
	}
	for _, doc := range h.Documents {
		acc, _ = foldCumulative(doc, direct, relevant, acc, 1)
	}
	return acc
}

// foldCumulative is the post-order step.  The accumulator is threaded
// through explicitly and returned with the subtree total of n.
func foldCumulative(n *Node, direct CountTable, relevant NodeSet, acc CountTable, depth int) (CountTable, int) {
	if n == nil || depth > DefaultMaxDepth {
		return acc, 0
	}
	total := direct[n.ID]
	for _, child := range n.Children {
		var sub int
		acc, sub = foldCumulative(child, direct, relevant, acc, depth+1)
		if relevant.Has(child.ID) {
			total += sub
		}
	}
	if n.ID != "" {
		acc[n.ID] = total
	}
	return acc, total
}

//Personal.AI order the ending
