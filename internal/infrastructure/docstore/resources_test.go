package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

const genericHierarchy = `{
  "hierarchy": [
    {"id": "D", "name": "Document", "children": [{"id": "a", "name": "Leaf a"}]}
  ],
  "flatMap": {"a": {"name": "Leaf a", "content": "text of a"}}
}`

const noxHierarchy = `[
  {"id": "D", "name": "Document", "hasChildrenWithMatchForPollutant": true,
   "children": [{"id": "a", "name": "Leaf a", "hasMatchForPollutant": true}]}
]`

func fixtureStore(t *testing.T, files map[string]string) *Store {
	t.Helper()
	root := writeFixtures(t, files)
	s, err := NewStore(NewDirSource(root), logging.NewNopLogger())
	require.NoError(t, err)
	return s
}

func TestParseSummary_PollutantUnion(t *testing.T) {
	sum, err := ParseSummary([]byte(`{
		"pollutants": ["NOx", {"name": "Lead"}, {"other": 1}, ""],
		"totalPatents": 120, "totalPollutants": 2,
		"creation_date": "2024-01-31", "relevanceThreshold": 0.68, "totalChunks": 9
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"NOx", "Lead"}, sum.Pollutants)
	assert.Equal(t, 120, sum.TotalPatents)
	assert.Equal(t, 2, sum.TotalPollutants)
	assert.Equal(t, "2024-01-31", sum.CreationDate)
	assert.InDelta(t, 0.68, sum.RelevanceThreshold, 1e-9)
	assert.Equal(t, 9, sum.TotalChunks)

	_, err = ParseSummary([]byte(`{`))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDecodeFailed))
}

func TestStore_SummaryMissingReturnsEmptyDefault(t *testing.T) {
	s := fixtureStore(t, nil)
	sum, err := s.Summary(context.Background())
	assert.Error(t, err)
	assert.NotNil(t, sum.Pollutants)
	assert.Empty(t, sum.Pollutants)
}

func TestStore_SlugUsesFilenamesThenFallback(t *testing.T) {
	s := fixtureStore(t, map[string]string{
		"pollutant_filenames.json": `{"Nitrogen oxides (NOx)": "nox"}`,
	})
	ctx := context.Background()
	assert.Equal(t, "nox", s.Slug(ctx, "Nitrogen oxides (NOx)"))
	assert.Equal(t, "sulphur_dioxide", s.Slug(ctx, "Sulphur dioxide"))

	noNames := fixtureStore(t, nil)
	assert.Equal(t, "lead_pb", noNames.Slug(ctx, "Lead (Pb)"))
}

func TestStore_HierarchySpecializedAndFallback(t *testing.T) {
	s := fixtureStore(t, map[string]string{
		"bref_hierarchy_optimized.json":                     genericHierarchy,
		"pollutant_bref_hierarchies/nox_bref_hierarchy.json": noxHierarchy,
	})
	ctx := context.Background()

	doc, err := s.Hierarchy(ctx, "nox")
	require.NoError(t, err)
	a, ok := doc.Hierarchy.Find("a")
	require.True(t, ok)
	assert.True(t, a.DirectMatch)

	doc, err = s.Hierarchy(ctx, "lead")
	require.NoError(t, err)
	a, ok = doc.Hierarchy.Find("a")
	require.True(t, ok)
	assert.False(t, a.DirectMatch)
	assert.Equal(t, "text of a", doc.FlatMap["a"].Text)
}

func TestStore_HierarchyAllMissing(t *testing.T) {
	s := fixtureStore(t, nil)
	doc, err := s.Hierarchy(context.Background(), "nox")
	assert.Error(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.Hierarchy.Len())
}

func TestStore_PollutantResources(t *testing.T) {
	s := fixtureStore(t, map[string]string{
		"patent_index.json":                      `{"p1": {"title": "Scrubber", "year": 2019}}`,
		"pollutants/nox_top.json":                `[{"id": "p1", "title": "Scrubber", "score": 0.8}]`,
		"pollutants/nox_scores.json":             `{"p1": 0.8, "p2": 0.4}`,
		"bref_relevance/nox_bref_relevance.json": `{"p1": {"a": 0.9}}`,
		"sdgs/nox_sdg_data.json":                 `{"3": "Good health", "13": {"name": "Climate action"}}`,
	})
	ctx := context.Background()

	ix, err := s.PatentIndex(ctx)
	require.NoError(t, err)
	p, ok := ix.Lookup("p1")
	require.True(t, ok)
	assert.Equal(t, "Scrubber", p.Title)

	top, err := s.TopPatents(ctx, "nox")
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "p1", top[0].ID)

	sc, err := s.Scores(ctx, "nox")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, sc["p2"], 1e-9)

	m, err := s.BrefRelevance(ctx, "nox")
	require.NoError(t, err)
	score, ok := m.Score("p1", "a")
	require.True(t, ok)
	assert.InDelta(t, 0.9, score, 1e-9)

	goals, err := s.SDGs(ctx, "nox")
	require.NoError(t, err)
	assert.Len(t, goals, 2)
}

func TestStore_PollutantResourcesMissing(t *testing.T) {
	s := fixtureStore(t, nil)
	ctx := context.Background()

	top, err := s.TopPatents(ctx, "nox")
	assert.Error(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)

	sc, err := s.Scores(ctx, "nox")
	assert.Error(t, err)
	assert.NotNil(t, sc)

	m, err := s.BrefRelevance(ctx, "nox")
	assert.Error(t, err)
	assert.True(t, m.IsEmpty())

	goals, err := s.SDGs(ctx, "nox")
	assert.Error(t, err)
	assert.NotNil(t, goals)
}

func TestStore_BrefTextBuiltOnce(t *testing.T) {
	root := writeFixtures(t, map[string]string{
		"bref_sections.csv": "code,title,text\na,Leaf a,Body of a\nb,Leaf b,Body of b\n",
	})
	var calls int
	dir := NewDirSource(root)
	src := SourceFunc(func(ctx context.Context, p string) ([]byte, error) {
		calls++
		return dir.Fetch(ctx, p)
	})
	s, err := NewStore(src, logging.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()

	tbl, err := s.BrefText(ctx)
	require.NoError(t, err)
	row, ok := tbl.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "Body of b", row.Text())

	again, err := s.BrefText(ctx)
	require.NoError(t, err)
	assert.Same(t, tbl, again)
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Invalidate(ctx, BrefTextKey{}))
	_, err = s.BrefText(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

//Personal.AI order the ending
