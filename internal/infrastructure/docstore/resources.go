package docstore

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/turtacn/bref-insight/internal/domain/bref"
	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/internal/domain/sdg"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// Typed accessors never return nil collections: on failure they return an
// empty default together with the error so callers can degrade to "no data".

// Summary is the dataset overview.
type Summary struct {
	Pollutants         []string `json:"pollutants"`
	TotalPatents       int      `json:"totalPatents"`
	TotalPollutants    int      `json:"totalPollutants"`
	CreationDate       string   `json:"creation_date"`
	RelevanceThreshold float64  `json:"relevanceThreshold"`
	TotalChunks        int      `json:"totalChunks"`
}

// ParseSummary decodes the summary document.  Pollutant entries may be
// plain strings or objects carrying a name.
func ParseSummary(data []byte) (Summary, error) {
	out := Summary{Pollutants: []string{}}
	if len(data) == 0 {
		return out, nil
	}
	if !gjson.ValidBytes(data) {
		return out, apperrors.New(apperrors.ErrCodeDecodeFailed, "summary is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	for _, p := range root.Get("pollutants").Array() {
		name := p.String()
		if p.IsObject() {
			name = p.Get("name").String()
		}
		if name != "" {
			out.Pollutants = append(out.Pollutants, name)
		}
	}
	out.TotalPatents = int(root.Get("totalPatents").Int())
	out.TotalPollutants = int(root.Get("totalPollutants").Int())
	out.CreationDate = root.Get("creation_date").String()
	out.RelevanceThreshold = root.Get("relevanceThreshold").Float()
	out.TotalChunks = int(root.Get("totalChunks").Int())
	return out, nil
}

// Summary returns the dataset summary.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	data, err := s.Fetch(ctx, SummaryKey{})
	if err != nil {
		return Summary{Pollutants: []string{}}, err
	}
	return ParseSummary(data)
}

// Filenames returns the pollutant display name → slug map.
func (s *Store) Filenames(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	data, err := s.Fetch(ctx, FilenamesKey{})
	if err != nil {
		return out, err
	}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]string{}, apperrors.Wrap(err, apperrors.ErrCodeDecodeFailed, "decode pollutant filenames")
	}
	return out, nil
}

// Slug resolves the file-safe name of pollutant, falling back to Slugify
// when the filenames map is unavailable or lacks the entry.
func (s *Store) Slug(ctx context.Context, pollutant string) string {
	names, err := s.Filenames(ctx)
	if err != nil {
		s.logger.Debug("filenames unavailable, using fallback slug", logging.String("pollutant", pollutant), logging.Err(err))
	}
	if slug, ok := names[pollutant]; ok && slug != "" {
		return slug
	}
	return Slugify(pollutant)
}

// GenericHierarchy returns the pollutant-independent hierarchy document.
func (s *Store) GenericHierarchy(ctx context.Context) (*bref.Document, error) {
	return s.hierarchy(ctx, HierarchyKey{})
}

// Hierarchy returns the hierarchy specialized for slug, falling back to the
// generic one when the specialized document cannot be fetched.
func (s *Store) Hierarchy(ctx context.Context, slug string) (*bref.Document, error) {
	if slug == "" {
		return s.GenericHierarchy(ctx)
	}
	doc, err := s.hierarchy(ctx, HierarchyKey{Slug: slug})
	if err == nil {
		return doc, nil
	}
	s.logger.Warn("specialized hierarchy unavailable, using generic",
		logging.String("slug", slug), logging.Err(err))
	return s.GenericHierarchy(ctx)
}

func (s *Store) hierarchy(ctx context.Context, key HierarchyKey) (*bref.Document, error) {
	empty := &bref.Document{Hierarchy: bref.NewHierarchy(), FlatMap: bref.FlatMap{}}
	data, err := s.Fetch(ctx, key)
	if err != nil {
		return empty, err
	}
	var opts []bref.ParseOption
	if s.maxDepth > 0 {
		opts = append(opts, bref.WithMaxDepth(s.maxDepth))
	}
	doc, err := bref.Parse(data, opts...)
	if err != nil {
		return empty, err
	}
	for _, w := range doc.Hierarchy.Warnings {
		s.logger.Warn("hierarchy normalized",
			logging.String("key", key.String()),
			logging.String("path", w.Path),
			logging.String("problem", w.Message))
	}
	return doc, nil
}

// PatentIndex returns patent metadata by id.
func (s *Store) PatentIndex(ctx context.Context) (patent.Index, error) {
	data, err := s.Fetch(ctx, PatentIndexKey{})
	if err != nil {
		return patent.Index{}, err
	}
	ix, err := patent.ParseIndex(data)
	if err != nil {
		return patent.Index{}, err
	}
	return ix, nil
}

// TopPatents returns the pre-ranked candidates of slug.
func (s *Store) TopPatents(ctx context.Context, slug string) ([]patent.Patent, error) {
	data, err := s.Fetch(ctx, TopPatentsKey{Slug: slug})
	if err != nil {
		return []patent.Patent{}, err
	}
	top, err := patent.ParseTop(data)
	if err != nil {
		return []patent.Patent{}, err
	}
	return top, nil
}

// Scores returns patent → score for slug.
func (s *Store) Scores(ctx context.Context, slug string) (patent.Scores, error) {
	data, err := s.Fetch(ctx, ScoresKey{Slug: slug})
	if err != nil {
		return patent.Scores{}, err
	}
	sc, err := patent.ParseScores(data)
	if err != nil {
		return patent.Scores{}, err
	}
	return sc, nil
}

// BrefRelevance returns the patent → node score matrix of slug.
func (s *Store) BrefRelevance(ctx context.Context, slug string) (*bref.RelevanceMatrix, error) {
	empty := bref.NewRelevanceMatrix(nil)
	data, err := s.Fetch(ctx, BrefRelevanceKey{Slug: slug})
	if err != nil {
		return empty, err
	}
	m, err := bref.ParseMatrix(data)
	if err != nil {
		return empty, err
	}
	return m, nil
}

// SDGs returns the goal descriptors of slug.
func (s *Store) SDGs(ctx context.Context, slug string) ([]sdg.SDG, error) {
	data, err := s.Fetch(ctx, SDGKey{Slug: slug})
	if err != nil {
		return []sdg.SDG{}, err
	}
	goals, err := sdg.Parse(data)
	if err != nil {
		return []sdg.SDG{}, err
	}
	return goals, nil
}

// BrefText returns the section text table, building it on first access.
// The table is kept until the underlying resource is invalidated.
func (s *Store) BrefText(ctx context.Context) (*TextTable, error) {
	s.mu.Lock()
	t := s.text
	s.mu.Unlock()
	if t != nil {
		return t, nil
	}

	data, err := s.Fetch(ctx, BrefTextKey{})
	if err != nil {
		return emptyTextTable(), err
	}
	t, err = ParseTextTable(data)
	if err != nil {
		return emptyTextTable(), err
	}
	s.mu.Lock()
	s.text = t
	s.mu.Unlock()
	s.logger.Info("bref text table built", logging.Int("rows", t.Len()))
	return t, nil
}

//Personal.AI order the ending
