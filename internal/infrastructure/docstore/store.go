package docstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// DefaultFetchTimeout bounds a single source fetch.
const DefaultFetchTimeout = 15 * time.Second

// Fetch outcomes reported to Metrics.
const (
	OutcomeOK      = "ok"
	OutcomeStale   = "stale"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Metrics receives fetch and cache observations.  *prometheus.AppMetrics
// satisfies it.
type Metrics interface {
	ObserveFetch(resource, outcome string, duration time.Duration)
	ObserveCache(resource, result string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveFetch(string, string, time.Duration) {}
func (nopMetrics) ObserveCache(string, string)                {}

// ─────────────────────────────────────────────────────────────────────────────
// Store
// ─────────────────────────────────────────────────────────────────────────────

// Store resolves typed keys against a Source through a Cache.  Concurrent
// fetches of one key share a single source call.
type Store struct {
	source   Source
	cache    Cache
	layout   Layout
	timeout  time.Duration
	maxDepth int
	logger   logging.Logger
	metrics  Metrics

	group singleflight.Group

	mu    sync.Mutex
	paths map[string]map[string]struct{} // source path → cache keys
	text  *TextTable
}

// Option tunes NewStore.
type Option func(*Store)

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithLayout overrides fixture file names.
func WithLayout(l Layout) Option {
	return func(s *Store) { s.layout = l.withDefaults() }
}

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHierarchyDepth caps hierarchy normalization depth.
func WithHierarchyDepth(depth int) Option {
	return func(s *Store) { s.maxDepth = depth }
}

// NewStore builds a Store over source.  Without WithCache it uses a
// 256-entry memory cache with a one hour TTL.
func NewStore(source Source, logger logging.Logger, opts ...Option) (*Store, error) {
	if source == nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceMisconfig, "document source is nil")
	}
	s := &Store{
		source:  source,
		layout:  DefaultLayout(),
		timeout: DefaultFetchTimeout,
		logger:  logger,
		metrics: nopMetrics{},
		paths:   make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		c, err := NewMemoryCache(256, time.Hour)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

// Layout returns the path layout in use.
func (s *Store) Layout() Layout {
	return s.layout
}

// Fetch returns the raw bytes of key.  A fresh cache entry is returned
// directly.  Otherwise the source is consulted; when it fails or times out
// the last cached entry is returned if one survives, else the error.
func (s *Store) Fetch(ctx context.Context, key Key) ([]byte, error) {
	ck := key.String()
	resource := string(key.Kind())

	cached, fresh, ok := s.cache.Get(ctx, ck)
	if ok && fresh {
		s.metrics.ObserveCache(resource, "hit")
		return cached.Data, nil
	}
	if ok {
		s.metrics.ObserveCache(resource, "expired")
	} else {
		s.metrics.ObserveCache(resource, "miss")
	}

	p := s.layout.Path(key)
	ch := s.group.DoChan(ck, func() (interface{}, error) {
		return s.load(ctx, key, ck, p)
	})

	var err error
	select {
	case <-ctx.Done():
		err = apperrors.Wrap(ctx.Err(), apperrors.ErrCodeFetchTimeout, "fetch abandoned").WithDetail(p)
	case res := <-ch:
		if res.Err == nil {
			return res.Val.([]byte), nil
		}
		err = res.Err
	}

	if ok {
		s.logger.Warn("serving stale resource",
			logging.String("key", ck),
			logging.Duration("age", time.Since(cached.FetchedAt)),
			logging.Err(err))
		s.metrics.ObserveFetch(resource, OutcomeStale, 0)
		return cached.Data, nil
	}
	return nil, err
}

// load runs one source fetch detached from the caller's cancellation so that
// other waiters on the same key still receive the result.
func (s *Store) load(ctx context.Context, key Key, ck, p string) ([]byte, error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	data, err := s.source.Fetch(fctx, p)
	elapsed := time.Since(start)
	resource := string(key.Kind())

	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(fctx.Err(), context.DeadlineExceeded) {
			outcome = OutcomeTimeout
			if !apperrors.IsCode(err, apperrors.ErrCodeFetchTimeout) {
				err = apperrors.Wrap(err, apperrors.ErrCodeFetchTimeout, "fetch timed out").WithDetail(p)
			}
		}
		s.metrics.ObserveFetch(resource, outcome, elapsed)
		s.logger.Warn("fetch failed",
			logging.String("key", ck),
			logging.String("path", p),
			logging.String("outcome", outcome),
			logging.Err(err))
		return nil, err
	}

	s.metrics.ObserveFetch(resource, OutcomeOK, elapsed)
	if err := s.cache.Put(ctx, ck, data); err != nil {
		s.logger.Warn("cache put failed", logging.String("key", ck), logging.Err(err))
	} else {
		s.track(p, ck)
	}
	s.logger.Debug("fetched resource",
		logging.String("key", ck),
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", elapsed))
	return data, nil
}

// track records that cache key ck was filled from source path p.
func (s *Store) track(p, ck string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paths[p] == nil {
		s.paths[p] = make(map[string]struct{}, 1)
	}
	s.paths[p][ck] = struct{}{}
}

// Invalidate drops the cached entries of keys.
func (s *Store) Invalidate(ctx context.Context, keys ...Key) error {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
		if _, ok := k.(BrefTextKey); ok {
			s.resetText()
		}
	}
	return s.cache.Invalidate(ctx, names...)
}

// InvalidatePath drops every key fetched from source path p.
func (s *Store) InvalidatePath(ctx context.Context, p string) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.paths[p]))
	for ck := range s.paths[p] {
		keys = append(keys, ck)
	}
	s.mu.Unlock()
	if p == s.layout.BrefText {
		s.resetText()
	}
	if len(keys) == 0 {
		return nil
	}
	s.logger.Info("invalidating resource", logging.Strings("keys", keys), logging.String("path", p))
	return s.cache.Invalidate(ctx, keys...)
}

func (s *Store) resetText() {
	s.mu.Lock()
	s.text = nil
	s.mu.Unlock()
}

//Personal.AI order the ending
