package docstore

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry is a cached raw resource.
type Entry struct {
	Data      []byte    `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Age returns how long ago the entry was fetched.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Cache stores raw resources by key string.  Entries outlive their TTL until
// evicted so that the store can fall back to them; Get reports whether the
// returned entry is still fresh.
type Cache interface {
	Get(ctx context.Context, key string) (entry Entry, fresh bool, ok bool)
	Put(ctx context.Context, key string, data []byte) error
	Invalidate(ctx context.Context, keys ...string) error
}

// ─────────────────────────────────────────────────────────────────────────────
// In-process LRU
// ─────────────────────────────────────────────────────────────────────────────

type memoryCache struct {
	entries *lru.Cache[string, Entry]
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption tunes NewMemoryCache.
type MemoryOption func(*memoryCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryCache) { c.now = now }
}

// NewMemoryCache returns an LRU cache holding up to capacity entries that
// stay fresh for ttl.  A non-positive ttl keeps entries fresh forever.
func NewMemoryCache(capacity int, ttl time.Duration, opts ...MemoryOption) (Cache, error) {
	if capacity < 1 {
		capacity = 1
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, err
	}
	c := &memoryCache{entries: entries, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *memoryCache) Get(_ context.Context, key string) (Entry, bool, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false, false
	}
	return e, c.ttl <= 0 || e.Age(c.now()) < c.ttl, true
}

func (c *memoryCache) Put(_ context.Context, key string, data []byte) error {
	c.entries.Add(key, Entry{Data: data, FetchedAt: c.now()})
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.entries.Remove(k)
	}
	return nil
}

//Personal.AI order the ending
