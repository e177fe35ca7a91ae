package navigator

import (
	"fmt"
	"math/rand"

	"github.com/turtacn/bref-insight/internal/domain/bref"
)

// randomHierarchy builds two documents with random direct matches.
func randomHierarchy(seed int64) (*bref.Hierarchy, []string) {
	r := rand.New(rand.NewSource(seed))
	var ids []string
	next := 0
	var build func(depth int) *bref.Node
	build = func(depth int) *bref.Node {
		n := &bref.Node{ID: fmt.Sprintf("n%d", next), DirectMatch: r.Intn(2) == 0}
		next++
		ids = append(ids, n.ID)
		if depth < 4 {
			for i := r.Intn(3); i > 0; i-- {
				n.Children = append(n.Children, build(depth+1))
			}
		}
		return n
	}
	return bref.NewHierarchy(build(1), build(1)), ids
}

//Personal.AI order the ending
