package bref

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// Source keys understood on node objects.
const (
	keyID              = "id"
	keyName            = "name"
	keyTitle           = "title"
	keyChildren        = "children"
	keyDirectMatch     = "hasMatchForPollutant"
	keyDescendantMatch = "hasChildrenWithMatchForPollutant"
)

var nodeKeys = []string{keyID, keyName, keyTitle, keyChildren, keyDirectMatch, keyDescendantMatch}

// Document is a parsed hierarchy file: the tree plus the optional flat map
// of section metadata.
type Document struct {
	Hierarchy *Hierarchy
	FlatMap   FlatMap
}

// FlatEntry is the metadata of one section in the flat map.
type FlatEntry struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Text               string   `json:"text,omitempty"`
	MatchingPollutants []string `json:"matchingPollutants,omitempty"`
}

// FlatMap indexes FlatEntry by node id.
type FlatMap map[string]FlatEntry

// ParseOption tunes Parse.
type ParseOption func(*parser)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) ParseOption {
	return func(p *parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

type parser struct {
	maxDepth int
	warnings []Warning
}

func (p *parser) warn(path, format string, args ...interface{}) {
	p.warnings = append(p.warnings, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Parse normalizes a hierarchy document into a Hierarchy.
//
// The input is either the generic file ({"hierarchy": …, "flatMap": …}) or
// a pollutant-specialized tree.  Children may be arrays, objects keyed by id
// or numerically keyed maps; all three become ordered Children slices.
// Members of an id-keyed object take their key as id when they carry none;
// other objects without an id are transparent containers whose children
// fold into the parent.  Scalars in child position are skipped with a warning.
// Empty input yields an empty hierarchy.
func Parse(data []byte, opts ...ParseOption) (*Document, error) {
	p := &parser{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}

	if len(data) == 0 {
		return &Document{Hierarchy: NewHierarchy(), FlatMap: FlatMap{}}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.CodeHierarchyMalformed, "hierarchy document is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	tree := root
	flat := FlatMap{}
	if root.IsObject() && !root.Get(keyChildren).Exists() && root.Get("hierarchy").Exists() {
		tree = root.Get("hierarchy")
		flat = parseFlatMap(root.Get("flatMap"))
	}

	docs := p.collect(tree, "", 1, "")

	h := NewHierarchy(docs...)
	h.Fingerprint = xxhash.Sum64(data)
	h.Warnings = p.warnings
	return &Document{Hierarchy: h, FlatMap: flat}, nil
}

// collect returns the nodes contributed by v to its parent's child list.
// memberKey is the key of v when it sits in an id-keyed object.
func (p *parser) collect(v gjson.Result, path string, depth int, memberKey string) []*Node {
	if depth > p.maxDepth {
		p.warn(path, "depth limit %d exceeded; subtree dropped", p.maxDepth)
		return nil
	}

	switch {
	case v.IsArray():
		var out []*Node
		for i, item := range v.Array() {
			out = append(out, p.collect(item, fmt.Sprintf("%s[%d]", path, i), depth, "")...)
		}
		return out

	case v.IsObject():
		if isNodeLike(v) {
			return p.node(v, path, depth, memberKey)
		}
		members, numeric := orderedMembers(v)
		var out []*Node
		for _, kv := range members {
			id := kv.key
			if numeric {
				id = ""
			}
			mp := path + "/" + kv.key
			if kv.value.IsObject() && isNodeLike(kv.value) && (id != "" || kv.value.Get(keyID).String() != "") {
				// node appends its own id
				mp = path
			}
			out = append(out, p.collect(kv.value, mp, depth, id)...)
		}
		return out

	case v.Type == gjson.Null || !v.Exists():
		return nil

	default:
		p.warn(path, "unrecognised %s value skipped", v.Type.String())
		return nil
	}
}

// node handles an object that carries node keys.
func (p *parser) node(v gjson.Result, path string, depth int, fallbackID string) []*Node {
	id := v.Get(keyID).String()
	if id == "" {
		id = fallbackID
	}
	childPath := path
	if id != "" {
		childPath = path + "/" + id
	}

	var children []*Node
	if c := v.Get(keyChildren); c.Exists() {
		children = p.collect(c, childPath, depth+1, "")
	}

	if id == "" {
		return children
	}

	n := &Node{
		ID:              id,
		Name:            v.Get(keyName).String(),
		Children:        children,
		DirectMatch:     v.Get(keyDirectMatch).Bool(),
		DescendantMatch: v.Get(keyDescendantMatch).Bool(),
	}
	if n.Name == "" {
		n.Name = v.Get(keyTitle).String()
	}
	if n.IsLeaf() && n.DescendantMatch {
		p.warn(childPath, "leaf flagged with descendant match; flag cleared")
		n.DescendantMatch = false
	}
	return []*Node{n}
}

func isNodeLike(v gjson.Result) bool {
	for _, k := range nodeKeys {
		if v.Get(k).Exists() {
			return true
		}
	}
	return false
}

type member struct {
	key   string
	value gjson.Result
}

// orderedMembers returns object members in document order, or in numeric
// order when every key is an integer.
func orderedMembers(v gjson.Result) ([]member, bool) {
	var out []member
	numeric := true
	v.ForEach(func(k, val gjson.Result) bool {
		key := k.String()
		if _, err := strconv.Atoi(key); err != nil {
			numeric = false
		}
		out = append(out, member{key: key, value: val})
		return true
	})
	if len(out) == 0 {
		return out, false
	}
	if numeric {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := strconv.Atoi(out[i].key)
			b, _ := strconv.Atoi(out[j].key)
			return a < b
		})
	}
	return out, numeric
}

func parseFlatMap(v gjson.Result) FlatMap {
	flat := FlatMap{}
	if !v.IsObject() {
		return flat
	}
	v.ForEach(func(k, entry gjson.Result) bool {
		id := k.String()
		fe := FlatEntry{ID: id, Name: entry.Get(keyName).String()}
		if fe.Name == "" {
			fe.Name = entry.Get(keyTitle).String()
		}
		for _, key := range []string{"content", "text", "summary"} {
			if t := entry.Get(key); t.Type == gjson.String && t.String() != "" {
				fe.Text = t.String()
				break
			}
		}
		for _, p := range entry.Get("matchingPollutants").Array() {
			fe.MatchingPollutants = append(fe.MatchingPollutants, p.String())
		}
		flat[id] = fe
		return true
	})
	return flat
}

//Personal.AI order the ending
