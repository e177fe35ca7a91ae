package bref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestParse_GenericDocumentWithFlatMap(t *testing.T) {
	data := []byte(`{
		"hierarchy": {
			"CWW": {"id": "CWW", "name": "Common Waste Water", "children": [
				{"id": "CWW_1", "name": "General", "children": [{"id": "CWW_1.1", "name": "Scope"}]},
				{"id": "CWW_2", "name": "Techniques"}
			]},
			"LCP": {"id": "LCP", "name": "Large Combustion Plants"}
		},
		"flatMap": {
			"CWW_1.1": {"name": "Scope", "content": "This document covers...", "matchingPollutants": ["Mercury"]}
		}
	}`)

	doc, err := Parse(data)
	require.NoError(t, err)

	h := doc.Hierarchy
	assert.Equal(t, []string{"CWW", "LCP"}, ids(h.Documents))
	assert.Equal(t, []string{"CWW_1", "CWW_2"}, ids(h.Documents[0].Children))
	assert.NotZero(t, h.Fingerprint)
	assert.Equal(t, 5, h.Len())

	leaf, ok := h.Find("CWW_1.1")
	require.True(t, ok)
	assert.True(t, leaf.IsLeaf())
	assert.Equal(t, "Scope", leaf.Name)

	path, ok := h.PathTo("CWW_1.1")
	require.True(t, ok)
	assert.Equal(t, []string{"CWW", "CWW_1", "CWW_1.1"}, ids(path))

	require.Contains(t, doc.FlatMap, "CWW_1.1")
	assert.Equal(t, "This document covers...", doc.FlatMap["CWW_1.1"].Text)
	assert.Equal(t, []string{"Mercury"}, doc.FlatMap["CWW_1.1"].MatchingPollutants)
}

func TestParse_ChildrenShapesAreEquivalent(t *testing.T) {
	shapes := map[string]string{
		"array":   `[{"id":"D","children":[{"id":"x"},{"id":"y"}]}]`,
		"keyed":   `[{"id":"D","children":{"x":{"name":"x"},"y":{"name":"y"}}}]`,
		"numeric": `[{"id":"D","children":{"1":{"id":"y"},"0":{"id":"x"}}}]`,
	}
	for name, src := range shapes {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(src))
			require.NoError(t, err)
			require.Len(t, doc.Hierarchy.Documents, 1)
			assert.Equal(t, []string{"x", "y"}, ids(doc.Hierarchy.Documents[0].Children))
		})
	}
}

func TestParse_NumericKeysSortNumerically(t *testing.T) {
	doc, err := Parse([]byte(`{"10":{"id":"c"},"2":{"id":"b"},"1":{"id":"a"}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(doc.Hierarchy.Documents))
}

func TestParse_TransparentContainerFoldsChildren(t *testing.T) {
	doc, err := Parse([]byte(`[{"id":"D","children":[
		{"name":"group without id","children":[{"id":"g1"},{"id":"g2"}]},
		{"id":"d3"}
	]}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "d3"}, ids(doc.Hierarchy.Documents[0].Children))
}

func TestParse_ScalarsAreSkippedWithWarning(t *testing.T) {
	doc, err := Parse([]byte(`[{"id":"D","children":[{"id":"a"}, 42, "junk", null]}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(doc.Hierarchy.Documents[0].Children))
	assert.Len(t, doc.Hierarchy.Warnings, 2)
}

func TestParse_FlagsAndLeafInvariant(t *testing.T) {
	doc, err := Parse([]byte(`{"D":{"id":"D","hasMatchForPollutant":false,"hasChildrenWithMatchForPollutant":true,"children":[
		{"id":"a","hasMatchForPollutant":true},
		{"id":"b","hasChildrenWithMatchForPollutant":true}
	]}}`))
	require.NoError(t, err)
	h := doc.Hierarchy

	d, _ := h.Find("D")
	assert.True(t, d.DescendantMatch)
	a, _ := h.Find("a")
	assert.True(t, a.DirectMatch)

	b, _ := h.Find("b")
	assert.False(t, b.DescendantMatch, "a leaf cannot have matching descendants")
	require.Len(t, h.Warnings, 1)
	assert.Contains(t, h.Warnings[0].Message, "leaf")
	assert.Equal(t, "/D[1]/b", h.Warnings[0].Path)
}

func TestParse_WarningPathsForKeyedMembers(t *testing.T) {
	doc, err := Parse([]byte(`{"D":{"name":"Doc","children":[
		{"id":"x","hasChildrenWithMatchForPollutant":true}
	]},"2":{"id":"E","children":[{"id":"y","hasChildrenWithMatchForPollutant":true}]}}`))
	require.NoError(t, err)

	require.Len(t, doc.Hierarchy.Warnings, 2)
	assert.Equal(t, "/D[0]/x", doc.Hierarchy.Warnings[0].Path)
	assert.Equal(t, "/E[0]/y", doc.Hierarchy.Warnings[1].Path)
}

func TestParse_DepthLimit(t *testing.T) {
	doc, err := Parse([]byte(`[{"id":"a","children":[{"id":"b","children":[{"id":"c"}]}]}]`), WithMaxDepth(2))
	require.NoError(t, err)

	_, ok := doc.Hierarchy.Find("c")
	assert.False(t, ok)
	_, ok = doc.Hierarchy.Find("b")
	assert.True(t, ok)
	assert.NotEmpty(t, doc.Hierarchy.Warnings)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"hierarchy": [`))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeHierarchyMalformed))
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Hierarchy.Documents)
	assert.Empty(t, doc.FlatMap)
}

func TestParse_NumericIDsAndTitleFallback(t *testing.T) {
	doc, err := Parse([]byte(`[{"id":17,"title":"Titled"}]`))
	require.NoError(t, err)
	n, ok := doc.Hierarchy.Find("17")
	require.True(t, ok)
	assert.Equal(t, "Titled", n.DisplayName())
}

//Personal.AI order the ending
