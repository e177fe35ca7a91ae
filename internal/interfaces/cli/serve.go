package cli

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/bref-insight/internal/config"
	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/bref-insight/internal/interfaces/http"
	"github.com/turtacn/bref-insight/internal/interfaces/http/handlers"
	"github.com/turtacn/bref-insight/internal/interfaces/http/middleware"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		Long:  "Serve the static front end, the fixture files under /data and the chat completion proxy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := *cliCtx.Config
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger, err := ServerLogger(&cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if addr == "" {
				addr = cfg.Server.Address()
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return Serve(ctx, &cfg, logger, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.host:server.port)")
	return cmd
}

// ServerLogger builds the service logger from cfg.Log and installs it as
// the process default.
func ServerLogger(cfg *config.Config) (logging.Logger, error) {
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	return logger, nil
}

// Serve wires the configured backends into the HTTP server and runs it on
// ln until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, logger logging.Logger, ln net.Listener) error {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Monitoring.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	backends, err := BuildBackends(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer backends.Close()

	if cfg.Data.Watch && backends.DirRoot != "" {
		watchFixtures(ctx, backends.DirRoot, backends.Store, logger)
	}

	completer := BuildCompleter(cfg, logger, metrics)
	if !completer.Configured() {
		logger.Warn("LLM API key is not set; chat requests will fail")
	}

	health := handlers.NewHealthHandler(Version,
		handlers.WithCheckers(healthCheckers(backends)...),
		handlers.WithStatusRecorder(metrics),
		handlers.WithEnvironment(map[string]string{
			"data_source":    cfg.Data.Source,
			"cache_backend":  cfg.Cache.Backend,
			"model":          cfg.LLM.Model,
			"llm_configured": strconv.FormatBool(completer.Configured()),
		}),
	)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORS.AllowedOrigins

	routerCfg := httpserver.RouterConfig{
		HealthHandler:     health,
		ProxyHandler:      handlers.NewProxyHandler(completer, cfg.Server.MaxBodySize, logger),
		DataHandler:       handlers.NewDataHandler(backends.Store, logger),
		CORSMiddleware:    middleware.NewCORSMiddleware(corsCfg),
		LoggingMiddleware: middleware.NewLoggingMiddleware(logger, middleware.DefaultLoggingConfig()),
		Metrics:           metrics,
		ProxyPath:         cfg.LLM.ProxyPath,
		StaticDir:         cfg.Server.StaticDir,
	}
	if cfg.Monitoring.MetricsEnabled {
		routerCfg.MetricsHandler = collector.Handler()
		routerCfg.MetricsPath = cfg.Monitoring.MetricsPath
	}
	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		rl.OnLimited = func(r *http.Request) { metrics.RecordRateLimited(r.URL.Path) }
		limiter := middleware.NewRateLimitMiddleware(rl, logger)
		defer limiter.Stop()
		routerCfg.RateLimitMiddleware = limiter
	}

	server := httpserver.NewServer(ln.Addr().String(), httpserver.NewRouter(routerCfg), httpserver.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Idle:     cfg.Server.IdleTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	}, logger)

	logger.Info("Starting dashboard server",
		logging.String("addr", ln.Addr().String()),
		logging.String("data_source", cfg.Data.Source),
		logging.String("cache", cfg.Cache.Backend),
		logging.String("version", Version))
	return server.RunListener(ctx, ln)
}

// healthCheckers probes the backends the store depends on.
func healthCheckers(b *Backends) []handlers.HealthChecker {
	checkers := []handlers.HealthChecker{
		handlers.NewChecker("docstore", func(ctx context.Context) error {
			_, err := b.Store.Fetch(ctx, docstore.SummaryKey{})
			return err
		}),
	}
	if b.Redis != nil {
		checkers = append(checkers, handlers.NewChecker("redis", b.Redis.Ping))
	}
	if b.MinIO != nil {
		checkers = append(checkers, handlers.NewChecker("minio", func(ctx context.Context) error {
			_, err := b.MinIO.HealthCheck(ctx)
			return err
		}))
	}
	return checkers
}

// watchFixtures invalidates cached documents when files under root change.
func watchFixtures(ctx context.Context, root string, store *docstore.Store, logger logging.Logger) {
	w, err := docstore.NewWatcher(root, logger)
	if err != nil {
		logger.Warn("Fixture watcher unavailable", logging.String("root", root), logging.Err(err))
		return
	}
	go func() {
		defer w.Close()
		w.Run(ctx, func(rel string) {
			if err := store.InvalidatePath(ctx, rel); err != nil {
				logger.Warn("Invalidate failed", logging.String("path", rel), logging.Err(err))
			}
		})
	}()
}

//Personal.AI order the ending
