package patent

import (
	"fmt"
	"math/rand"

	"github.com/turtacn/bref-insight/internal/domain/bref"
)

// randomQuery builds a ranking query from seed.
func randomQuery(seed int64, withNode bool, limit int) Query {
	r := rand.New(rand.NewSource(seed))
	nodes := []string{"A", "B", "C"}

	var top []Patent
	for i := r.Intn(10); i > 0; i-- {
		p := Patent{ID: fmt.Sprintf("p%d", r.Intn(12)), Score: r.Float64()}
		if r.Intn(2) == 0 {
			p.BrefRelevance = map[string]float64{nodes[r.Intn(len(nodes))]: r.Float64()}
		}
		top = append(top, p)
	}

	scores := map[string]map[string]float64{}
	for i := r.Intn(12); i > 0; i-- {
		pid := fmt.Sprintf("p%d", r.Intn(12))
		if scores[pid] == nil {
			scores[pid] = map[string]float64{}
		}
		scores[pid][nodes[r.Intn(len(nodes))]] = r.Float64()
	}

	q := Query{Top: top, Matrix: bref.NewRelevanceMatrix(scores), Threshold: Threshold(0.68), Limit: limit}
	if withNode {
		q.NodeID = nodes[r.Intn(len(nodes))]
	}
	return q
}

//Personal.AI order the ending
