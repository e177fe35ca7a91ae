package preprocess

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// Flags written on every node object.
const (
	FlagDirectMatch     = "hasMatchForPollutant"
	FlagDescendantMatch = "hasChildrenWithMatchForPollutant"
)

// AnnotateStats summarizes one annotation pass.
type AnnotateStats struct {
	Documents        int
	MatchedDocuments int
	MatchedNodes     int
}

// annotator rewrites a hierarchy, keeping member order, so every node
// object carries both match flags.
type annotator struct {
	has   func(code string) bool
	stats AnnotateStats
}

// Annotate returns a copy of the hierarchy JSON in which every node object
// reachable through "children" carries FlagDirectMatch (its id is in the
// match set) and FlagDescendantMatch (some child subtree matched).  The
// top level may be an object of documents or an array; a document may
// itself be a node object or a list of node objects.  Other values are
// copied unchanged.  A top-level object with id or children is a single
// document.
func Annotate(hierarchy []byte, has func(code string) bool) ([]byte, AnnotateStats) {
	a := &annotator{has: has}
	root := gjson.ParseBytes(hierarchy)
	var buf bytes.Buffer

	switch {
	case root.IsObject() && (root.Get("id").Exists() || root.Get("children").Exists()):
		a.document(&buf, root)
	case root.IsObject():
		buf.WriteByte('{')
		first := true
		root.ForEach(func(k, v gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.WriteString(k.Raw)
			buf.WriteByte(':')
			a.document(&buf, v)
			return true
		})
		buf.WriteByte('}')
	case root.IsArray():
		buf.WriteByte('[')
		for i, v := range root.Array() {
			if i > 0 {
				buf.WriteByte(',')
			}
			a.document(&buf, v)
		}
		buf.WriteByte(']')
	default:
		buf.WriteString(root.Raw)
	}
	return buf.Bytes(), a.stats
}

// document handles one top-level entry.
func (a *annotator) document(buf *bytes.Buffer, v gjson.Result) {
	switch {
	case v.IsObject():
		a.stats.Documents++
		if a.node(buf, v) {
			a.stats.MatchedDocuments++
		}
	case v.IsArray():
		a.stats.Documents++
		matched := false
		buf.WriteByte('[')
		for i, item := range v.Array() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if item.IsObject() {
				matched = a.node(buf, item) || matched
			} else {
				buf.WriteString(item.Raw)
			}
		}
		buf.WriteByte(']')
		if matched {
			a.stats.MatchedDocuments++
		}
	default:
		buf.WriteString(v.Raw)
	}
}

// node writes v with both flags and reports whether it or a descendant
// matched.
func (a *annotator) node(buf *bytes.Buffer, v gjson.Result) bool {
	id := v.Get("id")
	direct := id.Exists() && id.String() != "" && a.has(id.String())
	if direct {
		a.stats.MatchedNodes++
	}

	descendant := false
	buf.WriteByte('{')
	first := true
	v.ForEach(func(k, val gjson.Result) bool {
		key := k.String()
		if key == FlagDirectMatch || key == FlagDescendantMatch {
			return true
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(k.Raw)
		buf.WriteByte(':')
		if key == "children" {
			descendant = a.children(buf, val)
		} else {
			buf.WriteString(val.Raw)
		}
		return true
	})
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(strconv.Quote(FlagDirectMatch) + ":" + strconv.FormatBool(direct) + ",")
	buf.WriteString(strconv.Quote(FlagDescendantMatch) + ":" + strconv.FormatBool(descendant))
	buf.WriteByte('}')
	return direct || descendant
}

// children writes a list- or object-shaped child collection.
func (a *annotator) children(buf *bytes.Buffer, v gjson.Result) bool {
	matched := false
	switch {
	case v.IsArray():
		buf.WriteByte('[')
		for i, c := range v.Array() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if c.IsObject() {
				matched = a.node(buf, c) || matched
			} else {
				buf.WriteString(c.Raw)
			}
		}
		buf.WriteByte(']')
	case v.IsObject():
		buf.WriteByte('{')
		first := true
		v.ForEach(func(k, c gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.WriteString(k.Raw)
			buf.WriteByte(':')
			if c.IsObject() {
				matched = a.node(buf, c) || matched
			} else {
				buf.WriteString(c.Raw)
			}
			return true
		})
		buf.WriteByte('}')
	default:
		buf.WriteString(v.Raw)
	}
	return matched
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate returns the paths of node objects lacking either flag.
func Validate(hierarchy []byte) []string {
	var missing []string
	root := gjson.ParseBytes(hierarchy)
	visitDoc := func(path string, v gjson.Result) {
		switch {
		case v.IsObject():
			missing = validateNode(v, path, missing)
		case v.IsArray():
			for i, item := range v.Array() {
				if item.IsObject() {
					missing = validateNode(item, path+"/["+strconv.Itoa(i)+"]", missing)
				}
			}
		}
	}
	switch {
	case root.IsObject() && (root.Get("id").Exists() || root.Get("children").Exists()):
		visitDoc("", root)
	case root.IsObject():
		root.ForEach(func(k, v gjson.Result) bool {
			visitDoc(k.String(), v)
			return true
		})
	case root.IsArray():
		for i, v := range root.Array() {
			visitDoc("["+strconv.Itoa(i)+"]", v)
		}
	}
	return missing
}

func validateNode(v gjson.Result, path string, missing []string) []string {
	id := v.Get("id").String()
	if id == "" {
		id = "root"
	}
	if !v.Get(FlagDirectMatch).Exists() || !v.Get(FlagDescendantMatch).Exists() {
		missing = append(missing, path+"/"+id)
	}
	children := v.Get("children")
	switch {
	case children.IsArray():
		for i, c := range children.Array() {
			if c.IsObject() {
				missing = validateNode(c, path+"/"+id+"/["+strconv.Itoa(i)+"]", missing)
			}
		}
	case children.IsObject():
		children.ForEach(func(k, c gjson.Result) bool {
			if c.IsObject() {
				missing = validateNode(c, path+"/"+id+"/"+k.String(), missing)
			}
			return true
		})
	}
	return missing
}

// ─────────────────────────────────────────────────────────────────────────────
// Flat map
// ─────────────────────────────────────────────────────────────────────────────

// TagFlatMap rewrites the main hierarchy document so that every flatMap
// entry matched by at least one pollutant carries matchingPollutants.  It
// returns the new document and the number of tagged entries.
func TagFlatMap(main []byte, pollutantsFor func(code string) []string) ([]byte, int) {
	root := gjson.ParseBytes(main)
	if !root.IsObject() {
		return main, 0
	}
	tagged := 0
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	root.ForEach(func(k, v gjson.Result) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(k.Raw)
		buf.WriteByte(':')
		if k.String() != "flatMap" || !v.IsObject() {
			buf.WriteString(v.Raw)
			return true
		}

		buf.WriteByte('{')
		firstEntry := true
		v.ForEach(func(code, entry gjson.Result) bool {
			if !firstEntry {
				buf.WriteByte(',')
			}
			firstEntry = false
			buf.WriteString(code.Raw)
			buf.WriteByte(':')
			ps := pollutantsFor(code.String())
			if len(ps) == 0 || !entry.IsObject() {
				buf.WriteString(entry.Raw)
				return true
			}
			tagged++
			writeWithMember(&buf, entry, "matchingPollutants", ps)
			return true
		})
		buf.WriteByte('}')
		return true
	})
	buf.WriteByte('}')
	return buf.Bytes(), tagged
}

// writeWithMember writes object v with key set to value, replacing an
// existing member in place or appending it.
func writeWithMember(buf *bytes.Buffer, v gjson.Result, key string, value interface{}) {
	encoded, _ := json.Marshal(value)
	replaced := false
	buf.WriteByte('{')
	first := true
	v.ForEach(func(k, val gjson.Result) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(k.Raw)
		buf.WriteByte(':')
		if k.String() == key {
			buf.Write(encoded)
			replaced = true
		} else {
			buf.WriteString(val.Raw)
		}
		return true
	})
	if !replaced {
		if !first {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(key) + ":")
		buf.Write(encoded)
	}
	buf.WriteByte('}')
}

//Personal.AI order the ending
