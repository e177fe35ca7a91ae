package bref

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// Cell is one (node, score) pair of a matrix row.
type Cell struct {
	NodeID string
	Score  float64
}

// RelevanceMatrix maps patent id → node id → relevance score.  Patents and
// cells keep source order so that every traversal is deterministic.  A nil
// matrix behaves as empty.
type RelevanceMatrix struct {
	order []string
	rows  map[string][]Cell
	index map[string]map[string]float64

	// Version identifies the source bytes; zero for matrices built in code.
	Version uint64
}

// ParseMatrix decodes {"patentId": {"nodeId": score}}.  Non-numeric scores
// and non-object rows are ignored.  Empty input yields an empty matrix.
func ParseMatrix(data []byte) (*RelevanceMatrix, error) {
	m := newMatrix()
	if len(data) == 0 {
		return m, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "relevance matrix is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "relevance matrix must be a JSON object")
	}
	root.ForEach(func(pid, row gjson.Result) bool {
		if !row.IsObject() {
			return true
		}
		row.ForEach(func(nid, score gjson.Result) bool {
			if score.Type == gjson.Number {
				m.add(pid.String(), nid.String(), score.Float())
			}
			return true
		})
		return true
	})
	m.Version = xxhash.Sum64(data)
	return m, nil
}

// NewRelevanceMatrix builds a matrix from a plain map.  Patents and nodes are
// ordered by id.
func NewRelevanceMatrix(scores map[string]map[string]float64) *RelevanceMatrix {
	m := newMatrix()
	pids := make([]string, 0, len(scores))
	for pid := range scores {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	for _, pid := range pids {
		nids := make([]string, 0, len(scores[pid]))
		for nid := range scores[pid] {
			nids = append(nids, nid)
		}
		sort.Strings(nids)
		for _, nid := range nids {
			m.add(pid, nid, scores[pid][nid])
		}
	}
	return m
}

func newMatrix() *RelevanceMatrix {
	return &RelevanceMatrix{
		rows:  make(map[string][]Cell),
		index: make(map[string]map[string]float64),
	}
}

func (m *RelevanceMatrix) add(pid, nid string, score float64) {
	if _, ok := m.index[pid]; !ok {
		m.order = append(m.order, pid)
		m.index[pid] = make(map[string]float64)
	}
	if _, dup := m.index[pid][nid]; dup {
		return
	}
	m.index[pid][nid] = score
	m.rows[pid] = append(m.rows[pid], Cell{NodeID: nid, Score: score})
}

// Patents returns patent ids in source order.
func (m *RelevanceMatrix) Patents() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Row returns the cells of a patent in source order.
func (m *RelevanceMatrix) Row(patentID string) []Cell {
	if m == nil {
		return nil
	}
	return m.rows[patentID]
}

// Score returns the score of (patentID, nodeID).
func (m *RelevanceMatrix) Score(patentID, nodeID string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	s, ok := m.index[patentID][nodeID]
	return s, ok
}

// ScoredNodes returns how many nodes carry a score for patentID.
func (m *RelevanceMatrix) ScoredNodes(patentID string) int {
	if m == nil {
		return 0
	}
	return len(m.rows[patentID])
}

// Each visits every (patent, node, score) triple in source order.
func (m *RelevanceMatrix) Each(fn func(patentID, nodeID string, score float64)) {
	if m == nil {
		return
	}
	for _, pid := range m.order {
		for _, c := range m.rows[pid] {
			fn(pid, c.NodeID, c.Score)
		}
	}
}

// CountAtOrAbove returns how many patents score ≥ threshold for nodeID.
func (m *RelevanceMatrix) CountAtOrAbove(nodeID string, threshold float64) int {
	n := 0
	m.Each(func(_, nid string, score float64) {
		if nid == nodeID && score >= threshold {
			n++
		}
	})
	return n
}

// Len returns the number of patents.
func (m *RelevanceMatrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// IsEmpty reports whether the matrix has no rows.
func (m *RelevanceMatrix) IsEmpty() bool {
	return m.Len() == 0
}

//Personal.AI order the ending
