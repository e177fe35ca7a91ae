// Package docstore is the Document Store: typed key-value access to the
// dashboard fixtures with per-key fetch dedup, time-bounded caching and
// last-known-good fallback when the source fails.
package docstore

import (
	"fmt"
	"path"
	"strings"
)

// Kind names a resource family.  It labels metrics and log lines.
type Kind string

const (
	KindSummary       Kind = "summary"
	KindHierarchy     Kind = "hierarchy"
	KindFilenames     Kind = "filenames"
	KindPatentIndex   Kind = "patent_index"
	KindTopPatents    Kind = "top_patents"
	KindScores        Kind = "scores"
	KindBrefRelevance Kind = "bref_relevance"
	KindSDG           Kind = "sdg"
	KindBrefText      Kind = "bref_text"
	KindFile          Kind = "file"
)

// ─────────────────────────────────────────────────────────────────────────────
// Key sum type
// ─────────────────────────────────────────────────────────────────────────────

// Key identifies one fixture resource.  The set of implementations is closed.
type Key interface {
	Kind() Kind
	fmt.Stringer
	sealed()
}

// SummaryKey is the dataset summary.
type SummaryKey struct{}

// HierarchyKey is the generic hierarchy when Slug is empty, otherwise the
// pollutant-specialized one.
type HierarchyKey struct{ Slug string }

// FilenamesKey is the pollutant display name → slug map.
type FilenamesKey struct{}

// PatentIndexKey is the patent metadata index.
type PatentIndexKey struct{}

// TopPatentsKey is the pre-ranked candidate list of a pollutant.
type TopPatentsKey struct{ Slug string }

// ScoresKey is the patent → score map of a pollutant.
type ScoresKey struct{ Slug string }

// BrefRelevanceKey is the patent → node → score matrix of a pollutant.
type BrefRelevanceKey struct{ Slug string }

// SDGKey is the sustainable development goal descriptors of a pollutant.
type SDGKey struct{ Slug string }

// BrefTextKey is the BREF full-text table.
type BrefTextKey struct{}

// FileKey is an arbitrary fixture addressed by its cleaned relative path.
// The /data file server reads through it.
type FileKey struct{ Path string }

func (SummaryKey) Kind() Kind       { return KindSummary }
func (HierarchyKey) Kind() Kind     { return KindHierarchy }
func (FilenamesKey) Kind() Kind     { return KindFilenames }
func (PatentIndexKey) Kind() Kind   { return KindPatentIndex }
func (TopPatentsKey) Kind() Kind    { return KindTopPatents }
func (ScoresKey) Kind() Kind        { return KindScores }
func (BrefRelevanceKey) Kind() Kind { return KindBrefRelevance }
func (SDGKey) Kind() Kind           { return KindSDG }
func (BrefTextKey) Kind() Kind      { return KindBrefText }
func (FileKey) Kind() Kind          { return KindFile }

func (SummaryKey) String() string         { return string(KindSummary) }
func (FilenamesKey) String() string       { return string(KindFilenames) }
func (PatentIndexKey) String() string     { return string(KindPatentIndex) }
func (BrefTextKey) String() string        { return string(KindBrefText) }
func (k TopPatentsKey) String() string    { return slugged(KindTopPatents, k.Slug) }
func (k ScoresKey) String() string        { return slugged(KindScores, k.Slug) }
func (k SDGKey) String() string           { return slugged(KindSDG, k.Slug) }
func (k BrefRelevanceKey) String() string { return slugged(KindBrefRelevance, k.Slug) }
func (k HierarchyKey) String() string     { return slugged(KindHierarchy, k.Slug) }
func (k FileKey) String() string          { return slugged(KindFile, k.Path) }

func (SummaryKey) sealed()       {}
func (HierarchyKey) sealed()     {}
func (FilenamesKey) sealed()     {}
func (PatentIndexKey) sealed()   {}
func (TopPatentsKey) sealed()    {}
func (ScoresKey) sealed()        {}
func (BrefRelevanceKey) sealed() {}
func (SDGKey) sealed()           {}
func (BrefTextKey) sealed()      {}
func (FileKey) sealed()          {}

func slugged(k Kind, slug string) string {
	if slug == "" {
		return string(k)
	}
	return string(k) + ":" + slug
}

// ─────────────────────────────────────────────────────────────────────────────
// Layout
// ─────────────────────────────────────────────────────────────────────────────

// Layout maps keys to source-relative paths.  The fixed files are
// configurable; the per-pollutant directories follow the fixture convention.
type Layout struct {
	Summary     string
	Hierarchy   string
	Filenames   string
	PatentIndex string
	BrefText    string
}

// DefaultLayout returns the stock fixture file names.
func DefaultLayout() Layout {
	return Layout{
		Summary:     "summary.json",
		Hierarchy:   "bref_hierarchy_optimized.json",
		Filenames:   "pollutant_filenames.json",
		PatentIndex: "patent_index.json",
		BrefText:    "bref_sections.csv",
	}
}

// withDefaults fills empty paths from DefaultLayout.
func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.Summary == "" {
		l.Summary = d.Summary
	}
	if l.Hierarchy == "" {
		l.Hierarchy = d.Hierarchy
	}
	if l.Filenames == "" {
		l.Filenames = d.Filenames
	}
	if l.PatentIndex == "" {
		l.PatentIndex = d.PatentIndex
	}
	if l.BrefText == "" {
		l.BrefText = d.BrefText
	}
	return l
}

// Path returns the source-relative path of k.
func (l Layout) Path(k Key) string {
	switch k := k.(type) {
	case SummaryKey:
		return l.Summary
	case HierarchyKey:
		if k.Slug == "" {
			return l.Hierarchy
		}
		return path.Join("pollutant_bref_hierarchies", k.Slug+"_bref_hierarchy.json")
	case FilenamesKey:
		return l.Filenames
	case PatentIndexKey:
		return l.PatentIndex
	case TopPatentsKey:
		return path.Join("pollutants", k.Slug+"_top.json")
	case ScoresKey:
		return path.Join("pollutants", k.Slug+"_scores.json")
	case BrefRelevanceKey:
		return path.Join("bref_relevance", k.Slug+"_bref_relevance.json")
	case SDGKey:
		return path.Join("sdgs", k.Slug+"_sdg_data.json")
	case BrefTextKey:
		return l.BrefText
	case FileKey:
		return k.Path
	}
	return ""
}

// Slugify is the fallback used when a pollutant is missing from the
// filenames map: lower-case, spaces become underscores, commas and
// parentheses are dropped.
func Slugify(name string) string {
	r := strings.NewReplacer(" ", "_", ",", "", "(", "", ")", "")
	return r.Replace(strings.ToLower(name))
}

//Personal.AI order the ending
