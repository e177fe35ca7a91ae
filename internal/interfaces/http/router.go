package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/bref-insight/internal/interfaces/http/handlers"
	"github.com/turtacn/bref-insight/internal/interfaces/http/middleware"
)

// DefaultProxyPath is where the chat completion proxy is mounted.
const DefaultProxyPath = "/api/openai"

// RouterConfig aggregates the handlers and middleware the route tree is built
// from.  Nil entries are skipped.
type RouterConfig struct {
	// Handlers
	HealthHandler *handlers.HealthHandler
	ProxyHandler  *handlers.ProxyHandler
	DataHandler   *handlers.DataHandler

	// Middleware
	CORSMiddleware      *middleware.CORSMiddleware
	LoggingMiddleware   *middleware.LoggingMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	Metrics             middleware.HTTPMetrics

	// Infrastructure
	MetricsHandler http.Handler
	MetricsPath    string
	ProxyPath      string
	StaticDir      string
}

// NewRouter constructs the dashboard server's route tree: health probes,
// metrics, fixture files under /data, the rate-limited completion proxy and
// the static front end.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// --- Health ---
	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.Diagnostics)
		r.Get("/health/live", cfg.HealthHandler.Liveness)
		r.Get("/health/ready", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	if cfg.DataHandler != nil {
		r.Handle("/data/*", cfg.DataHandler)
	}

	// --- Completion proxy (rate limited) ---
	if cfg.ProxyHandler != nil {
		path := cfg.ProxyPath
		if path == "" {
			path = DefaultProxyPath
		}
		r.Group(func(api chi.Router) {
			if cfg.RateLimitMiddleware != nil {
				api.Use(cfg.RateLimitMiddleware.Handler)
			}
			api.Handle(path, cfg.ProxyHandler)
		})
	}

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}

//Personal.AI order the ending
