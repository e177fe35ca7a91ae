package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow reports whether a request for key may proceed now.
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo contains current rate limit state for a given key.
type RateLimitInfo struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// KeyFunc extracts the limiter key; defaults to the client IP.
	KeyFunc func(r *http.Request) string
	// IdleTTL evicts limiters of clients not seen for this long.
	IdleTTL time.Duration
	// OnLimited is called for every rejected request.
	OnLimited func(r *http.Request)
}

// DefaultRateLimitConfig returns the chat proxy defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             5,
		KeyFunc:           ClientIP,
		IdleTTL:           5 * time.Minute,
	}
}

// ClientIP returns the host part of RemoteAddr.  chi's RealIP middleware
// has already rewritten RemoteAddr from X-Forwarded-For / X-Real-IP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ─────────────────────────────────────────────────────────────────────────────
// Per-key limiter
// ─────────────────────────────────────────────────────────────────────────────

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewKeyedLimiter creates a limiter allowing rps sustained requests per key
// with the given burst.  When idleTTL > 0 a background loop evicts idle keys
// until Stop.
func NewKeyedLimiter(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &KeyedLimiter{
		limiters: make(map[string]*keyedLimiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if idleTTL > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow implements RateLimiter.
func (l *KeyedLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	info := RateLimitInfo{Limit: l.burst}
	res := entry.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		info.RetryAfter = delay
		return false, info
	}
	info.Remaining = int(math.Max(0, math.Floor(entry.limiter.TokensAt(now))))
	return true, info
}

func (l *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *KeyedLimiter) evictIdle() {
	threshold := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.limiters {
		if e.lastSeen.Before(threshold) {
			delete(l.limiters, key)
		}
	}
}

// Stop ends the eviction loop.
func (l *KeyedLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// RateLimit returns middleware that rejects requests over the limit with
// 429 and a {message} body.
func RateLimit(limiter RateLimiter, config RateLimitConfig, logger logging.Logger) func(http.Handler) http.Handler {
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientIP
	}
	body, _ := json.Marshal(chat.ErrorResponse{
		Message: apperrors.DefaultMessageForCode(apperrors.ErrCodeLLMRateLimited),
		Code:    apperrors.ErrCodeTooManyRequests.String(),
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			allowed, info := limiter.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))

			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			retry := int(math.Ceil(info.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			} else if retry > 3600 {
				retry = 3600
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			logger.Warn("rate limit exceeded", logging.String("client", key), logging.String("path", r.URL.Path))
			if config.OnLimited != nil {
				config.OnLimited(r)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write(body)
		})
	}
}

// RateLimitMiddleware adapts RateLimit to RouterConfig and owns the
// limiter's lifetime.
type RateLimitMiddleware struct {
	limiter *KeyedLimiter
	handler func(http.Handler) http.Handler
}

// NewRateLimitMiddleware builds a per-client limiter from config.
func NewRateLimitMiddleware(config RateLimitConfig, logger logging.Logger) *RateLimitMiddleware {
	limiter := NewKeyedLimiter(config.RequestsPerSecond, config.Burst, config.IdleTTL)
	return &RateLimitMiddleware{
		limiter: limiter,
		handler: RateLimit(limiter, config, logger),
	}
}

// Handler returns the middleware handler function.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return m.handler(next)
}

// Stop releases the limiter's eviction loop.
func (m *RateLimitMiddleware) Stop() {
	m.limiter.Stop()
}

//Personal.AI order the ending
