package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout_Path(t *testing.T) {
	l := DefaultLayout()
	tests := []struct {
		key  Key
		want string
	}{
		{SummaryKey{}, "summary.json"},
		{HierarchyKey{}, "bref_hierarchy_optimized.json"},
		{HierarchyKey{Slug: "nox"}, "pollutant_bref_hierarchies/nox_bref_hierarchy.json"},
		{FilenamesKey{}, "pollutant_filenames.json"},
		{PatentIndexKey{}, "patent_index.json"},
		{TopPatentsKey{Slug: "nox"}, "pollutants/nox_top.json"},
		{ScoresKey{Slug: "nox"}, "pollutants/nox_scores.json"},
		{BrefRelevanceKey{Slug: "nox"}, "bref_relevance/nox_bref_relevance.json"},
		{SDGKey{Slug: "nox"}, "sdgs/nox_sdg_data.json"},
		{BrefTextKey{}, "bref_sections.csv"},
		{FileKey{Path: "pollutants/nox_top.json"}, "pollutants/nox_top.json"},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, l.Path(tt.key))
		})
	}
}

func TestLayout_WithDefaults(t *testing.T) {
	l := Layout{Summary: "meta/summary.json"}.withDefaults()
	assert.Equal(t, "meta/summary.json", l.Path(SummaryKey{}))
	assert.Equal(t, "patent_index.json", l.Path(PatentIndexKey{}))
}

func TestKey_StringsAreDistinct(t *testing.T) {
	keys := []Key{
		SummaryKey{}, HierarchyKey{}, HierarchyKey{Slug: "a"}, FilenamesKey{}, PatentIndexKey{},
		TopPatentsKey{Slug: "a"}, ScoresKey{Slug: "a"}, BrefRelevanceKey{Slug: "a"}, SDGKey{Slug: "a"},
		BrefTextKey{},
	}
	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k.String()], "duplicate key string %q", k.String())
		seen[k.String()] = true
	}
	assert.Equal(t, "hierarchy", HierarchyKey{}.String())
	assert.Equal(t, "scores:a", ScoresKey{Slug: "a"}.String())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "nitrogen_oxides_nox", Slugify("Nitrogen oxides (NOx)"))
	assert.Equal(t, "lead_and_compounds", Slugify("Lead, and compounds"))
	assert.Equal(t, "", Slugify(""))
}

//Personal.AI order the ending
