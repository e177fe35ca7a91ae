package dashboard

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/application/assistant"
	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/internal/testutil"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

var fixtures = map[string]string{
	"summary.json":             `{"pollutants":["NOx","Mercury"],"totalPatents":5}`,
	"pollutant_filenames.json": `{"NOx":"nox","Mercury":"mercury"}`,
	"bref_hierarchy_optimized.json": `{"hierarchy":[
		{"id":"CWW","name":"Common Waste Water","children":[{"id":"CWW_1","name":"Scrubbing"},{"id":"CWW_2","name":"Filters"}]},
		{"id":"LCP","name":"Large Combustion","children":[{"id":"LCP_1","name":"Boilers"}]}
	]}`,
	"pollutant_bref_hierarchies/nox_bref_hierarchy.json": `{"hierarchy":[
		{"id":"CWW","name":"Common Waste Water","hasChildrenWithMatchForPollutant":true,"children":[
			{"id":"CWW_1","name":"Scrubbing","hasMatchForPollutant":true},
			{"id":"CWW_2","name":"Filters"}]},
		{"id":"LCP","name":"Large Combustion","children":[{"id":"LCP_1","name":"Boilers"}]}
	]}`,
	"patent_index.json":                      `{"P2":{"title":"Catalyst","year":2020,"abstract":"SCR"}}`,
	"pollutants/nox_top.json":                `[{"id":"P1","title":"Scrubber","score":0.9},{"id":"P4","title":"Old","score":0.5},{"id":"P5","title":"Unscored"}]`,
	"pollutants/nox_scores.json":             `{"P5":0.8}`,
	"bref_relevance/nox_bref_relevance.json": `{"P1":{"CWW_1":0.9,"CWW_2":0.95},"P2":{"CWW_1":0.7},"P3":{"CWW_1":0.5}}`,
	"sdgs/nox_sdg_data.json":                 `{"3":{"name":"Good Health","score":0.7}}`,
	"bref_sections.csv":                      "code,text\nCWW_1,Wet scrubbing removes NOx\n",
}

type aggregationRecorder struct {
	mu   sync.Mutex
	hits []bool
}

func (r *aggregationRecorder) ObserveAggregation(hit bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, hit)
}

func fixtureSource(files map[string]string) docstore.Source {
	return docstore.SourceFunc(func(_ context.Context, p string) ([]byte, error) {
		d, ok := files[p]
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeResourceNotFound, "resource not found").WithDetail(p)
		}
		return []byte(d), nil
	})
}

func newTestSession(t *testing.T, src docstore.Source, opts ...Option) *Session {
	t.Helper()
	store, err := docstore.NewStore(src, logging.NewNopLogger())
	require.NoError(t, err)
	s, err := NewSession(store, Config{}, logging.NewNopLogger(), opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func TestSession_Start(t *testing.T) {
	s := newTestSession(t, fixtureSource(fixtures))

	assert.Equal(t, []string{"NOx", "Mercury"}, s.Pollutants())
	assert.Equal(t, 5, s.Summary().TotalPatents)
	assert.Equal(t, "", s.Pollutant())
	assert.Nil(t, s.Counts())
	assert.Equal(t, 5, s.Navigator().Hierarchy().Len())
	assert.Empty(t, s.RankedPatents().Patents)
}

func TestSession_StartDegradesOnMissingResources(t *testing.T) {
	logger := testutil.NewMockLogger()
	store, err := docstore.NewStore(fixtureSource(map[string]string{}), logging.NewNopLogger())
	require.NoError(t, err)
	s, err := NewSession(store, Config{}, logger)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	assert.Empty(t, s.Pollutants())
	assert.Zero(t, s.Navigator().Hierarchy().Len())

	var degraded []interface{}
	for _, m := range logger.GetMessages() {
		if m.Level == "warn" && m.Message == "resource unavailable, continuing without it" {
			v, _ := m.Field("resource")
			degraded = append(degraded, v)
		}
	}
	assert.Contains(t, degraded, "summary")
	assert.Contains(t, degraded, "hierarchy")
}

func TestSession_SelectPollutantAggregates(t *testing.T) {
	rec := &aggregationRecorder{}
	s := newTestSession(t, fixtureSource(fixtures), WithMetrics(rec))
	ctx := context.Background()

	require.NoError(t, s.SelectPollutant(ctx, "NOx"))
	assert.Equal(t, "NOx", s.Pollutant())

	counts := s.Counts()
	require.NotNil(t, counts)
	assert.True(t, counts.Relevant.Has("CWW"))
	assert.True(t, counts.Relevant.Has("CWW_1"))
	assert.False(t, counts.Relevant.Has("CWW_2"))
	assert.Equal(t, 2, counts.Direct.Get("CWW_1"))
	assert.Equal(t, 0, counts.Direct.Get("CWW_2"))
	assert.Equal(t, 2, counts.Cumulative.Get("CWW"))

	badge, ok := s.Navigator().Badge("CWW")
	assert.True(t, ok)
	assert.Equal(t, 2, badge)
	_, ok = s.Navigator().Badge("LCP")
	assert.False(t, ok)

	require.Len(t, s.SDGs(), 1)
	assert.Equal(t, "NOx", s.Assistant().Context().Snapshot().Pollutant)

	require.NoError(t, s.SelectPollutant(ctx, "NOx"))
	assert.Equal(t, []bool{false, true}, rec.hits)
}

func TestSession_RankingFollowsSelection(t *testing.T) {
	s := newTestSession(t, fixtureSource(fixtures))
	ctx := context.Background()
	require.NoError(t, s.SelectPollutant(ctx, "NOx"))

	res := s.RankedPatents()
	require.Len(t, res.Patents, 2)
	assert.Equal(t, "P1", res.Patents[0].ID)
	assert.Equal(t, "P5", res.Patents[1].ID)
	assert.InDelta(t, 0.8, res.Patents[1].RelevanceScore, 1e-9)

	require.NoError(t, s.SelectSection("CWW_1"))
	res = s.RankedPatents()
	require.Len(t, res.Patents, 2)
	assert.Equal(t, "P1", res.Patents[0].ID)
	assert.Equal(t, "P2", res.Patents[1].ID)
	assert.Equal(t, "Catalyst", res.Patents[1].Title)
	assert.Equal(t, 2, res.RelevantCount)

	st := s.State()
	require.NotNil(t, st.ActiveNode)
	assert.Equal(t, "CWW_1", st.ActiveNode.ID)
	require.Len(t, st.Path, 2)
	assert.Equal(t, "CWW", st.Path[0].ID)
}

func TestSession_SelectSectionRules(t *testing.T) {
	s := newTestSession(t, fixtureSource(fixtures))
	require.NoError(t, s.SelectPollutant(context.Background(), "NOx"))

	err := s.SelectSection("CWW")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNodeNotSelectable))
	err = s.SelectSection("CWW_2")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNodeNotRelevant))
	assert.Nil(t, s.State().ActiveNode)

	require.NoError(t, s.SelectSection("CWW_1"))
	s.ClearSection()
	assert.Nil(t, s.State().ActiveNode)
	assert.Empty(t, s.State().Path)
}

func TestSession_ClearPollutantRestoresGeneric(t *testing.T) {
	s := newTestSession(t, fixtureSource(fixtures))
	require.NoError(t, s.SelectPollutant(context.Background(), "NOx"))
	require.NoError(t, s.SelectSection("CWW_1"))

	s.ClearPollutant()
	assert.Equal(t, "", s.Pollutant())
	assert.Equal(t, "", s.Navigator().Pollutant())
	assert.Nil(t, s.Counts())
	// Leaves stay selectable without a pollutant.
	require.NotNil(t, s.State().ActiveNode)
	assert.True(t, s.Navigator().Selectable("CWW_2"))

	require.NoError(t, s.SelectPollutant(context.Background(), ""))
	assert.Equal(t, "", s.Pollutant())
}

func TestSession_MissingPollutantDataDegrades(t *testing.T) {
	s := newTestSession(t, fixtureSource(fixtures))
	require.NoError(t, s.SelectPollutant(context.Background(), "Mercury"))

	assert.Equal(t, "Mercury", s.Pollutant())
	counts := s.Counts()
	require.NotNil(t, counts)
	assert.Empty(t, counts.Relevant)
	assert.Empty(t, s.RankedPatents().Patents)
	// The generic hierarchy stands in for the missing specialized one.
	assert.Equal(t, 5, s.Navigator().Hierarchy().Len())
}

// gatedSource blocks fetches of one path until released.
type gatedSource struct {
	files   map[string]string
	gated   string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	if p == g.gated {
		g.entered <- struct{}{}
		<-g.release
	}
	return fixtureSource(g.files).Fetch(ctx, p)
}

func TestSession_LatestPollutantWins(t *testing.T) {
	files := map[string]string{}
	for k, v := range fixtures {
		files[k] = v
	}
	files["pollutant_bref_hierarchies/mercury_bref_hierarchy.json"] = fixtures["bref_hierarchy_optimized.json"]

	src := &gatedSource{
		files:   files,
		gated:   "bref_relevance/nox_bref_relevance.json",
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestSession(t, src)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() { errCh <- s.SelectPollutant(ctx, "NOx") }()
	<-src.entered

	require.NoError(t, s.SelectPollutant(ctx, "Mercury"))
	close(src.release)

	err := <-errCh
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStaleGeneration))
	assert.Equal(t, "Mercury", s.Pollutant())
	assert.Equal(t, "Mercury", s.Navigator().Pollutant())
}

func TestSession_OlderSwitchCannotOverwriteNewerInstall(t *testing.T) {
	files := map[string]string{}
	for k, v := range fixtures {
		files[k] = v
	}
	files["pollutant_bref_hierarchies/mercury_bref_hierarchy.json"] = fixtures["bref_hierarchy_optimized.json"]
	s := newTestSession(t, fixtureSource(files))
	ctx := context.Background()

	reached := make(chan struct{})
	release := make(chan struct{})
	s.beforeInstall = func(name string) {
		if name == "NOx" {
			close(reached)
			<-release
		}
	}

	noxDone := make(chan error, 1)
	go func() { noxDone <- s.SelectPollutant(ctx, "NOx") }()
	<-reached
	stalledGen := s.gens.Latest(pollutantSlot)

	mercuryDone := make(chan error, 1)
	go func() { mercuryDone <- s.SelectPollutant(ctx, "Mercury") }()
	require.Eventually(t, func() bool {
		return s.gens.Latest(pollutantSlot) > stalledGen
	}, time.Second, 5*time.Millisecond)

	select {
	case err := <-mercuryDone:
		t.Fatalf("newer switch finished while an older install was in progress: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-noxDone)
	require.NoError(t, <-mercuryDone)

	assert.Equal(t, "Mercury", s.Pollutant())
	assert.Equal(t, "Mercury", s.Navigator().Pollutant())
	assert.Equal(t, "Mercury", s.Assistant().Context().Snapshot().Pollutant)
}

func TestSession_StaleClearIsDropped(t *testing.T) {
	s := newTestSession(t, fixtureSource(fixtures))
	ctx := context.Background()

	stale := s.gens.Begin(pollutantSlot)
	require.NoError(t, s.SelectPollutant(ctx, "NOx"))
	s.clearPollutant(stale)

	assert.Equal(t, "NOx", s.Pollutant())
	assert.Equal(t, "NOx", s.Navigator().Pollutant())
}

type stubCompleter struct {
	mock.Mock
}

func (m *stubCompleter) Complete(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*chat.Response)
	return resp, args.Error(1)
}

func TestSession_ChatContext(t *testing.T) {
	c := new(stubCompleter)
	a := assistant.New(c, assistant.Options{Model: "gpt-4o-mini"}, logging.NewNopLogger())
	s := newTestSession(t, fixtureSource(fixtures), WithAssistant(a))
	ctx := context.Background()
	require.NoError(t, s.SelectPollutant(ctx, "NOx"))

	msg, err := s.Ask(ctx, "Which techniques apply?")
	require.NoError(t, err)
	assert.Equal(t, assistant.EmptyContextMessage, msg.Content)
	c.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)

	added, err := s.AddSectionToChat(ctx, "CWW_1")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddSectionToChat(ctx, "CWW_1")
	require.NoError(t, err)
	assert.False(t, added)
	_, err = s.AddSectionToChat(ctx, "NOPE")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNodeNotFound))

	added, err = s.AddPatentToChat("P2")
	require.NoError(t, err)
	assert.True(t, added)
	_, err = s.AddPatentToChat("P99")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	st := s.State()
	require.Len(t, st.ChatSections, 1)
	assert.Equal(t, "Wet scrubbing removes NOx", st.ChatSections[0].Content)
	assert.Equal(t, "Scrubbing", st.ChatSections[0].Name)
	require.Len(t, st.ChatPatents, 1)
	assert.Equal(t, "Catalyst", st.ChatPatents[0].Title)

	c.On("Complete", mock.Anything, mock.MatchedBy(func(req *chat.Request) bool {
		prompt := req.Input[0].Text()
		return req.Model == "gpt-4o-mini" &&
			strings.Contains(prompt, "Wet scrubbing removes NOx") &&
			strings.Contains(prompt, "Catalyst")
	})).Return(&chat.Response{Text: "Use SCR."}, nil).Once()

	msg, err = s.Ask(ctx, "Which techniques apply?")
	require.NoError(t, err)
	assert.Equal(t, chat.RoleAssistant, msg.Role)
	assert.Equal(t, "Use SCR.", msg.Content)
	c.AssertExpectations(t)

	assert.True(t, s.RemovePatentFromChat("P2"))
	assert.False(t, s.RemovePatentFromChat("P2"))
	assert.True(t, s.RemoveSectionFromChat("CWW_1"))
}

func TestApplyScores(t *testing.T) {
	top := []patent.Patent{{ID: "a", Score: 0.5}, {ID: "b"}, {ID: "c", Score: 0.3}}
	out := applyScores(top, patent.Scores{"a": 0.9, "b": 0.7})
	assert.Equal(t, 0.9, out[0].Score, "score table overrides the listed score")
	assert.Equal(t, 0.7, out[1].Score)
	assert.Equal(t, 0.3, out[2].Score)
	assert.Equal(t, 0.5, top[0].Score)
	assert.Equal(t, 0.0, top[1].Score)
}

//Personal.AI order the ending
