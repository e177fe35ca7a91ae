// Package dashboard drives one user's exploration session: it loads the
// dataset, switches pollutants, keeps the navigator and the chat context in
// step and ranks the patents shown for the current selection.
package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/bref-insight/internal/application/assistant"
	"github.com/turtacn/bref-insight/internal/application/navigator"
	"github.com/turtacn/bref-insight/internal/domain/bref"
	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/internal/domain/sdg"
	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// pollutantSlot is the generation slot of pollutant switches.
const pollutantSlot = "pollutant"

// Documents is the read side of the document store.  *docstore.Store
// satisfies it.  Accessors return an empty default together with any error.
type Documents interface {
	Summary(ctx context.Context) (docstore.Summary, error)
	Slug(ctx context.Context, pollutant string) string
	GenericHierarchy(ctx context.Context) (*bref.Document, error)
	Hierarchy(ctx context.Context, slug string) (*bref.Document, error)
	PatentIndex(ctx context.Context) (patent.Index, error)
	TopPatents(ctx context.Context, slug string) ([]patent.Patent, error)
	Scores(ctx context.Context, slug string) (patent.Scores, error)
	BrefRelevance(ctx context.Context, slug string) (*bref.RelevanceMatrix, error)
	SDGs(ctx context.Context, slug string) ([]sdg.SDG, error)
	BrefText(ctx context.Context) (*docstore.TextTable, error)
}

// Metrics receives aggregation observations.
type Metrics interface {
	ObserveAggregation(memoHit bool, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAggregation(bool, time.Duration) {}

// Config tunes a Session.
type Config struct {
	Threshold float64
	RankLimit int
	MemoSize  int
	// OnlyRelevant starts the navigator in relevant-only mode.
	OnlyRelevant bool
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = bref.DefaultThreshold
	}
	if c.RankLimit <= 0 {
		c.RankLimit = patent.DefaultLimit
	}
	if c.MemoSize <= 0 {
		c.MemoSize = 32
	}
	return c
}

// pollutantData is everything fetched and derived for one pollutant.
type pollutantData struct {
	name   string
	slug   string
	doc    *bref.Document
	top    []patent.Patent
	matrix *bref.RelevanceMatrix
	sdgs   []sdg.SDG
	counts *bref.Counts
}

// Session is safe for concurrent use.
type Session struct {
	docs       Documents
	aggregator *bref.Aggregator
	navigator  *navigator.Navigator
	assistant  *assistant.Assistant
	gens       *docstore.Generations
	cfg        Config
	logger     logging.Logger
	metrics    Metrics

	// install serializes writes of the active pollutant to the session,
	// the navigator and the chat context.
	install       sync.Mutex
	beforeInstall func(pollutant string)

	mu      sync.RWMutex
	summary docstore.Summary
	index   patent.Index
	generic *bref.Document
	current *pollutantData
}

// Option configures a Session.
type Option func(*Session)

// WithMetrics attaches an aggregation metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithAssistant replaces the default assistant, which has no completer.
func WithAssistant(a *assistant.Assistant) Option {
	return func(s *Session) {
		if a != nil {
			s.assistant = a
		}
	}
}

// NewSession builds a session over docs.  Call Start before use.
func NewSession(docs Documents, cfg Config, logger logging.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	cfg = cfg.withDefaults()
	agg, err := bref.NewAggregator(cfg.MemoSize, cfg.Threshold)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create aggregator")
	}
	s := &Session{
		docs:       docs,
		aggregator: agg,
		navigator:  navigator.New(logger, navigator.WithShowOnlyRelevant(cfg.OnlyRelevant)),
		assistant:  assistant.New(nil, assistant.Options{}, logger),
		gens:       docstore.NewGenerations(),
		cfg:        cfg,
		logger:     logger.Named("dashboard"),
		metrics:    nopMetrics{},
		summary:    docstore.Summary{Pollutants: []string{}},
		index:      patent.Index{},
		generic:    &bref.Document{Hierarchy: bref.NewHierarchy(), FlatMap: bref.FlatMap{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Navigator returns the tree state.
func (s *Session) Navigator() *navigator.Navigator { return s.navigator }

// Assistant returns the chat assistant.
func (s *Session) Assistant() *assistant.Assistant { return s.assistant }

// ─────────────────────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────────────────────

// Start loads the summary, the generic hierarchy and the patent index in
// parallel.  Failed fetches degrade to empty data and are logged; only a
// cancelled ctx is returned as an error.
func (s *Session) Start(ctx context.Context) error {
	var (
		summary docstore.Summary
		generic *bref.Document
		index   patent.Index
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.docs.Summary(gctx)
		s.degraded("summary", err)
		return nil
	})
	g.Go(func() error {
		var err error
		generic, err = s.docs.GenericHierarchy(gctx)
		s.degraded("hierarchy", err)
		return nil
	})
	g.Go(func() error {
		var err error
		index, err = s.docs.PatentIndex(gctx)
		s.degraded("patent_index", err)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeFetchTimeout, "session start interrupted")
	}

	s.mu.Lock()
	s.summary = summary
	s.index = index
	s.generic = generic
	s.mu.Unlock()

	s.navigator.SetContext("", generic.Hierarchy, nil)
	s.logger.Info("session started",
		logging.Int("pollutants", len(summary.Pollutants)),
		logging.Int("nodes", generic.Hierarchy.Len()),
		logging.Int("indexed_patents", len(index)))
	return nil
}

func (s *Session) degraded(resource string, err error) {
	if err != nil {
		s.logger.Warn("resource unavailable, continuing without it",
			logging.String("resource", resource),
			logging.Err(err))
	}
}

// Summary returns the dataset summary loaded by Start.
func (s *Session) Summary() docstore.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Pollutants returns the selectable pollutants.
func (s *Session) Pollutants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.summary.Pollutants...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Pollutant switching
// ─────────────────────────────────────────────────────────────────────────────

// SelectPollutant fetches the pollutant's resources in parallel, aggregates
// counts and installs the result.  When a newer switch started meanwhile the
// result is dropped and ErrCodeStaleGeneration returned.  An empty name
// clears the active pollutant.
func (s *Session) SelectPollutant(ctx context.Context, name string) error {
	gen := s.gens.Begin(pollutantSlot)
	if name == "" {
		s.clearPollutant(gen)
		return nil
	}

	slug := s.docs.Slug(ctx, name)
	data := &pollutantData{name: name, slug: slug}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.doc, err = s.docs.Hierarchy(gctx, slug)
		s.degraded("hierarchy:"+slug, err)
		return nil
	})
	g.Go(func() error {
		top, err := s.docs.TopPatents(gctx, slug)
		s.degraded("top:"+slug, err)
		scores, err := s.docs.Scores(gctx, slug)
		s.degraded("scores:"+slug, err)
		data.top = applyScores(top, scores)
		return nil
	})
	g.Go(func() error {
		var err error
		data.matrix, err = s.docs.BrefRelevance(gctx, slug)
		s.degraded("bref_relevance:"+slug, err)
		return nil
	})
	g.Go(func() error {
		var err error
		data.sdgs, err = s.docs.SDGs(gctx, slug)
		s.degraded("sdgs:"+slug, err)
		return nil
	})
	_ = g.Wait()

	if !s.gens.IsLatest(pollutantSlot, gen) {
		s.logger.Debug("pollutant result superseded",
			logging.String("pollutant", name),
			logging.Uint64("generation", gen))
		return apperrors.New(apperrors.ErrCodeStaleGeneration, "superseded by a newer pollutant selection").WithDetail(name)
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeFetchTimeout, "pollutant switch interrupted").WithDetail(name)
	}

	start := time.Now()
	hitsBefore, _ := s.aggregator.Stats()
	data.counts = s.aggregator.Aggregate(name, data.doc.Hierarchy, data.matrix)
	hitsAfter, _ := s.aggregator.Stats()
	s.metrics.ObserveAggregation(hitsAfter > hitsBefore, time.Since(start))

	s.install.Lock()
	defer s.install.Unlock()
	if !s.gens.IsLatest(pollutantSlot, gen) {
		return apperrors.New(apperrors.ErrCodeStaleGeneration, "superseded by a newer pollutant selection").WithDetail(name)
	}
	if s.beforeInstall != nil {
		s.beforeInstall(name)
	}
	s.mu.Lock()
	s.current = data
	s.mu.Unlock()

	s.navigator.SetContext(name, data.doc.Hierarchy, data.counts)
	s.assistant.Context().SetPollutant(name, data.sdgs)
	s.logger.Info("pollutant selected",
		logging.String("pollutant", name),
		logging.String("slug", slug),
		logging.Int("relevant_nodes", len(data.counts.Relevant)),
		logging.Int("top_patents", len(data.top)),
		logging.Int("matrix_entries", data.matrix.Len()))
	return nil
}

// ClearPollutant returns to the generic hierarchy without a pollutant.
func (s *Session) ClearPollutant() {
	s.clearPollutant(s.gens.Begin(pollutantSlot))
}

func (s *Session) clearPollutant(gen uint64) {
	s.install.Lock()
	defer s.install.Unlock()
	if !s.gens.IsLatest(pollutantSlot, gen) {
		return
	}
	s.mu.Lock()
	s.current = nil
	generic := s.generic
	s.mu.Unlock()

	s.navigator.SetContext("", generic.Hierarchy, nil)
	s.assistant.Context().SetPollutant("", nil)
}

// applyScores replaces the base score of every listed patent with its entry
// in the pollutant's score table.
func applyScores(top []patent.Patent, scores patent.Scores) []patent.Patent {
	if len(scores) == 0 {
		return top
	}
	out := make([]patent.Patent, len(top))
	for i, p := range top {
		if sc, ok := scores[p.ID]; ok {
			p.Score = sc
		}
		out[i] = p
	}
	return out
}

// Pollutant returns the active pollutant, empty when none.
func (s *Session) Pollutant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.name
}

// Counts returns the aggregation of the active pollutant, nil when none.
func (s *Session) Counts() *bref.Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.counts
}

// SDGs returns the goal descriptors of the active pollutant.
func (s *Session) SDGs() []sdg.SDG {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return append([]sdg.SDG(nil), s.current.sdgs...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection and ranking
// ─────────────────────────────────────────────────────────────────────────────

// SelectSection makes id the active BREF section.
func (s *Session) SelectSection(id string) error {
	return s.navigator.Select(id)
}

// ClearSection drops the active section.  The chat context is untouched.
func (s *Session) ClearSection() {
	s.navigator.ClearSelection()
}

// RankedPatents ranks the patents of the active pollutant for the current
// section selection.  Without a pollutant the result is empty.
func (s *Session) RankedPatents() patent.Result {
	s.mu.RLock()
	cur, index := s.current, s.index
	s.mu.RUnlock()
	if cur == nil {
		return patent.Result{Patents: []patent.Patent{}}
	}

	q := patent.Query{
		Top:       cur.top,
		Matrix:    cur.matrix,
		Index:     index,
		Pollutant: cur.name,
		Threshold: patent.Threshold(s.cfg.Threshold),
		Limit:     s.cfg.RankLimit,
	}
	if active := s.navigator.Active(); active != nil {
		q.NodeID = active.ID
	}
	return patent.Rank(q)
}

// State is a read-only copy of the session's selections.
type State struct {
	Pollutant    string
	ActiveNode   *bref.Node
	Path         []bref.Crumb
	ChatPatents  []patent.Patent
	ChatSections []assistant.Section
}

// State copies the current selections.
func (s *Session) State() State {
	snap := s.assistant.Context().Snapshot()
	return State{
		Pollutant:    s.Pollutant(),
		ActiveNode:   s.navigator.Active(),
		Path:         s.navigator.Breadcrumbs(),
		ChatPatents:  snap.Patents,
		ChatSections: snap.Sections,
	}
}

//Personal.AI order the ending
