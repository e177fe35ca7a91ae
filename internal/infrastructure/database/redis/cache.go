package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

var ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")

// documentCache keeps Document Store entries in Redis so that several server
// processes share fetched fixtures.  Entries are retained past their TTL so
// that a failing source can still be answered from the last value.
type documentCache struct {
	client    *Client
	logger    logging.Logger
	prefix    string
	ttl       time.Duration
	retention time.Duration
	jitter    bool
	now       func() time.Time
}

type CacheOption func(*documentCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *documentCache) { c.prefix = prefix }
}

// WithTTL sets how long an entry counts as fresh.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *documentCache) { c.ttl = ttl }
}

// WithRetention sets the Redis expiry of an entry; zero keeps it until
// evicted by Redis.
func WithRetention(d time.Duration) CacheOption {
	return func(c *documentCache) { c.retention = d }
}

// WithoutJitter disables the ±10% spread on retention.
func WithoutJitter() CacheOption {
	return func(c *documentCache) { c.jitter = false }
}

func WithClock(now func() time.Time) CacheOption {
	return func(c *documentCache) { c.now = now }
}

// NewDocumentCache returns a docstore.Cache backed by client.  Defaults: one
// hour TTL and a 24 hour retention with jitter.
func NewDocumentCache(client *Client, log logging.Logger, opts ...CacheOption) docstore.Cache {
	c := &documentCache{
		client:    client,
		logger:    log,
		prefix:    "bref:",
		ttl:       time.Hour,
		retention: 24 * time.Hour,
		jitter:    true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *documentCache) fullKey(key string) string {
	return c.prefix + key
}

func (c *documentCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 || !c.jitter {
		return ttl
	}
	// +/- 10%
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *documentCache) Get(ctx context.Context, key string) (docstore.Entry, bool, bool) {
	raw, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return docstore.Entry{}, false, false
	}
	if err != nil {
		c.logger.Warn("redis cache get failed", logging.String("key", key), logging.Err(err))
		return docstore.Entry{}, false, false
	}
	var e docstore.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("redis cache entry corrupt", logging.String("key", key), logging.Err(err))
		return docstore.Entry{}, false, false
	}
	fresh := c.ttl <= 0 || e.Age(c.now()) < c.ttl
	return e, fresh, true
}

func (c *documentCache) Put(ctx context.Context, key string, data []byte) error {
	raw, err := json.Marshal(docstore.Entry{Data: data, FetchedAt: c.now().UTC()})
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), raw, c.jitterTTL(c.retention)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

func (c *documentCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete from cache")
	}
	return nil
}

//Personal.AI order the ending
