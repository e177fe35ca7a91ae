package bref

import (
	"fmt"
	"math/rand"
)

// randomFixture builds a tree, a relevant set and a matrix from seed.
func randomFixture(seed int64) (*Hierarchy, NodeSet, *RelevanceMatrix) {
	r := rand.New(rand.NewSource(seed))
	var ids []string
	next := 0

	var build func(depth int) *Node
	build = func(depth int) *Node {
		n := &Node{ID: fmt.Sprintf("n%d", next)}
		next++
		ids = append(ids, n.ID)
		if depth < 5 {
			for i := r.Intn(4); i > 0; i-- {
				n.Children = append(n.Children, build(depth+1))
			}
		}
		return n
	}

	var docs []*Node
	for i := r.Intn(3) + 1; i > 0; i-- {
		docs = append(docs, build(1))
	}

	relevant := NewNodeSet()
	for _, id := range ids {
		if r.Intn(3) > 0 {
			relevant[id] = struct{}{}
		}
	}

	scores := map[string]map[string]float64{}
	for p := r.Intn(8); p > 0; p-- {
		row := map[string]float64{}
		for _, id := range ids {
			if r.Intn(4) == 0 {
				row[id] = r.Float64()
			}
		}
		scores[fmt.Sprintf("p%d", p)] = row
	}
	return NewHierarchy(docs...), relevant, NewRelevanceMatrix(scores)
}

//Personal.AI order the ending
