package cli

import (
	"context"
	"net/http"

	"github.com/turtacn/bref-insight/internal/application/assistant"
	"github.com/turtacn/bref-insight/internal/application/dashboard"
	"github.com/turtacn/bref-insight/internal/config"
	"github.com/turtacn/bref-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/llm/openai"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/internal/infrastructure/storage/minio"
	"github.com/turtacn/bref-insight/pkg/client"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// Backends holds the store and the handles that must be closed with it.
type Backends struct {
	Store *docstore.Store
	// DirRoot is set for the fs source and enables file watching.
	DirRoot string
	Redis   *redis.Client
	MinIO   *minio.MinIOClient
	closers []func() error
}

// Close releases every backend connection.
func (b *Backends) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

// StoreMetrics is the metrics sink accepted by BuildBackends.
type StoreMetrics = docstore.Metrics

// BuildBackends opens the configured source and cache and builds the
// document store over them.
func BuildBackends(cfg *config.Config, logger logging.Logger, metrics StoreMetrics) (*Backends, error) {
	b := &Backends{}

	source, err := buildSource(cfg, logger, b)
	if err != nil {
		b.Close()
		return nil, err
	}
	cache, err := buildCache(cfg, logger, b)
	if err != nil {
		b.Close()
		return nil, err
	}

	opts := []docstore.Option{
		docstore.WithCache(cache),
		docstore.WithLayout(docstore.Layout{
			Summary:     cfg.Data.Paths.Summary,
			Hierarchy:   cfg.Data.Paths.Hierarchy,
			Filenames:   cfg.Data.Paths.PollutantFilenames,
			PatentIndex: cfg.Data.Paths.PatentIndex,
			BrefText:    cfg.Data.Paths.BrefText,
		}),
		docstore.WithFetchTimeout(cfg.Data.FetchTimeout),
		docstore.WithHierarchyDepth(cfg.Relevance.MaxDepth),
	}
	if metrics != nil {
		opts = append(opts, docstore.WithMetrics(metrics))
	}
	store, err := docstore.NewStore(source, logger, opts...)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Store = store
	return b, nil
}

func buildSource(cfg *config.Config, logger logging.Logger, b *Backends) (docstore.Source, error) {
	switch cfg.Data.Source {
	case config.SourceFS:
		b.DirRoot = cfg.Data.Root
		return docstore.NewDirSource(cfg.Data.Root), nil

	case config.SourceHTTP:
		c, err := client.NewClient(cfg.Data.BaseURL,
			client.WithHTTPClient(&http.Client{Timeout: cfg.Data.FetchTimeout}),
			client.WithUserAgent("brefctl/"+Version),
		)
		if err != nil {
			return nil, err
		}
		return c.Fixtures(), nil

	case config.SourceMinIO:
		mc, err := minio.NewMinIOClient(&minio.MinIOConfig{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKey,
			SecretAccessKey: cfg.MinIO.SecretKey,
			UseSSL:          cfg.MinIO.UseSSL,
			Region:          cfg.MinIO.Region,
			Bucket:          cfg.MinIO.Bucket,
			Prefix:          cfg.Data.ObjectPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		b.MinIO = mc
		b.closers = append(b.closers, mc.Close)
		return minio.NewFixtureRepository(mc, logger), nil
	}
	return nil, errors.New(errors.ErrCodeSourceMisconfig, "unknown data source").WithDetail(cfg.Data.Source)
}

func buildCache(cfg *config.Config, logger logging.Logger, b *Backends) (docstore.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := redis.NewClient(&redis.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		b.Redis = rc
		b.closers = append(b.closers, rc.Close)
		return redis.NewDocumentCache(rc, logger,
			redis.WithPrefix(cfg.Cache.KeyPrefix),
			redis.WithTTL(cfg.Data.TTL),
		), nil
	default:
		return docstore.NewMemoryCache(cfg.Data.CacheCapacity, cfg.Data.TTL)
	}
}

// LLMMetrics is the metrics sink accepted by BuildCompleter.
type LLMMetrics = openai.Metrics

// BuildCompleter returns the upstream Responses API client.
func BuildCompleter(cfg *config.Config, logger logging.Logger, metrics LLMMetrics) *openai.Client {
	var opts []openai.Option
	if metrics != nil {
		opts = append(opts, openai.WithMetrics(metrics))
	}
	return openai.NewClient(openai.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	}, logger, opts...)
}

// assistantOptions maps the LLM config to request defaults.
func assistantOptions(cfg *config.Config) assistant.Options {
	temperature := cfg.LLM.Temperature
	topP := cfg.LLM.TopP
	maxTokens := cfg.LLM.MaxOutputTokens
	return assistant.Options{
		Model:           cfg.LLM.Model,
		Temperature:     &temperature,
		TopP:            &topP,
		MaxOutputTokens: &maxTokens,
	}
}

// proxyCompleter sends chat turns through the server's proxy endpoint.
func proxyCompleter(cfg *config.Config) (assistant.Completer, error) {
	c, err := client.NewClient(cfg.LLM.ProxyURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
		client.WithProxyPath(cfg.LLM.ProxyPath),
		client.WithUserAgent("brefctl/"+Version),
	)
	if err != nil {
		return nil, err
	}
	return c.Chat(), nil
}

// openSession builds backends and a started session.  The caller closes
// the returned Backends.
func openSession(ctx context.Context, cliCtx *CLIContext, completer assistant.Completer) (*dashboard.Session, *Backends, error) {
	cfg := cliCtx.Config
	b, err := BuildBackends(cfg, cliCtx.Logger, nil)
	if err != nil {
		return nil, nil, err
	}
	opts := []dashboard.Option{}
	if completer != nil {
		opts = append(opts, dashboard.WithAssistant(assistant.New(completer, assistantOptions(cfg), cliCtx.Logger)))
	}
	s, err := dashboard.NewSession(b.Store, dashboard.Config{
		Threshold: cfg.Relevance.Threshold,
		RankLimit: cfg.Relevance.RankLimit,
		MemoSize:  cfg.Relevance.MemoSize,
	}, cliCtx.Logger, opts...)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	if err := s.Start(ctx); err != nil {
		b.Close()
		return nil, nil, err
	}
	return s, b, nil
}

//Personal.AI order the ending
