package preprocess

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func matchSet(codes ...string) func(string) bool {
	set := map[string]bool{}
	for _, c := range codes {
		set[c] = true
	}
	return func(c string) bool { return set[c] }
}

func TestAnnotate_ObjectOfDocuments(t *testing.T) {
	in := `{"CWW":{"id":"CWW","name":"Waste water","children":[{"id":"CWW_1","name":"Scrubbing"},{"id":"CWW_2","name":"Filters"}]},` +
		`"LCP":[{"id":"LCP","children":{"a":{"id":"LCP_1"}}}]}`

	out, stats := Annotate([]byte(in), matchSet("CWW_1"))
	require.True(t, json.Valid(out), string(out))

	doc := gjson.ParseBytes(out)
	assert.False(t, doc.Get("CWW.hasMatchForPollutant").Bool())
	assert.True(t, doc.Get("CWW.hasChildrenWithMatchForPollutant").Bool())
	assert.True(t, doc.Get("CWW.children.0.hasMatchForPollutant").Bool())
	assert.False(t, doc.Get("CWW.children.0.hasChildrenWithMatchForPollutant").Bool())
	assert.False(t, doc.Get("CWW.children.1.hasMatchForPollutant").Bool())
	assert.False(t, doc.Get("LCP.0.hasChildrenWithMatchForPollutant").Bool())
	assert.True(t, doc.Get("LCP.0.children.a.hasMatchForPollutant").Exists())

	assert.Equal(t, AnnotateStats{Documents: 2, MatchedDocuments: 1, MatchedNodes: 1}, stats)
	assert.Empty(t, Validate(out))
}

func TestAnnotate_KeepsMemberOrderAndReplacesFlags(t *testing.T) {
	in := `[{"name":"B","hasMatchForPollutant":true,"id":"X","extra":[1,2]}]`

	out, _ := Annotate([]byte(in), matchSet())
	assert.Equal(t,
		`[{"name":"B","id":"X","extra":[1,2],"hasMatchForPollutant":false,"hasChildrenWithMatchForPollutant":false}]`,
		string(out))
}

func TestAnnotate_SingleRootNode(t *testing.T) {
	out, stats := Annotate([]byte(`{"id":"R","children":[{"id":"A"}]}`), matchSet("A"))

	doc := gjson.ParseBytes(out)
	assert.True(t, doc.Get("hasChildrenWithMatchForPollutant").Bool())
	assert.True(t, doc.Get("children.0.hasMatchForPollutant").Bool())
	assert.Equal(t, 1, stats.MatchedDocuments)
}

func TestAnnotate_DeepDescendantPropagates(t *testing.T) {
	in := `[{"id":"A","children":[{"id":"B","children":[{"id":"C"}]}]}]`

	out, _ := Annotate([]byte(in), matchSet("C"))
	doc := gjson.ParseBytes(out)
	assert.True(t, doc.Get("0.hasChildrenWithMatchForPollutant").Bool())
	assert.True(t, doc.Get("0.children.0.hasChildrenWithMatchForPollutant").Bool())
	assert.False(t, doc.Get("0.children.0.hasMatchForPollutant").Bool())
}

func TestValidate_ReportsMissingFlags(t *testing.T) {
	in := `{"CWW":{"id":"CWW","hasMatchForPollutant":false,"hasChildrenWithMatchForPollutant":false,` +
		`"children":[{"id":"CWW_1","hasMatchForPollutant":true}]}}`

	assert.Equal(t, []string{"CWW/CWW/[0]/CWW_1"}, Validate([]byte(in)))
}

func TestTagFlatMap(t *testing.T) {
	in := `{"hierarchy":[],"flatMap":{"A":{"name":"a"},"B":{"name":"b","matchingPollutants":["Old"]},"C":{"name":"c"}}}`
	pollutants := map[string][]string{"A": {"NOx", "Dust"}, "B": {"NOx"}}

	out, n := TagFlatMap([]byte(in), func(code string) []string { return pollutants[code] })
	assert.Equal(t, 2, n)
	assert.Equal(t,
		`{"hierarchy":[],"flatMap":{"A":{"name":"a","matchingPollutants":["NOx","Dust"]},"B":{"name":"b","matchingPollutants":["NOx"]},"C":{"name":"c"}}}`,
		string(out))

	raw, n := TagFlatMap([]byte(`[1]`), func(string) []string { return nil })
	assert.Equal(t, `[1]`, string(raw))
	assert.Zero(t, n)
}

//Personal.AI order the ending
