package config

import "time"

// Data source kinds.
const (
	SourceFS    = "fs"
	SourceHTTP  = "http"
	SourceMinIO = "minio"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodySize     = 4 << 20
	DefaultStaticDir       = "./public"

	DefaultDataSource    = SourceFS
	DefaultDataRoot      = "./optimized_data"
	DefaultFetchTimeout  = 15 * time.Second
	DefaultDataTTL       = time.Hour
	DefaultCacheCapacity = 256

	DefaultSummaryPath     = "summary.json"
	DefaultHierarchyPath   = "bref_hierarchy_optimized.json"
	DefaultFilenamesPath   = "pollutant_filenames.json"
	DefaultPatentIndexPath = "patent_index.json"
	DefaultBrefTextPath    = "bref_sections.csv"

	DefaultCacheBackend = CacheMemory
	DefaultKeyPrefix    = "bref:"
	DefaultRedisAddr    = "localhost:6379"

	DefaultLLMBaseURL         = "https://api.openai.com"
	DefaultLLMModel           = "gpt-4o-mini"
	DefaultProxyPath          = "/api/openai"
	DefaultProxyURL           = "http://localhost:8080"
	DefaultLLMTimeout         = 90 * time.Second
	DefaultLLMMaxRetries      = 2
	DefaultLLMTemperature     = 0.7
	DefaultLLMTopP            = 1.0
	DefaultLLMMaxOutputTokens = 2048

	DefaultRateLimitRPS   = 1.0
	DefaultRateLimitBurst = 5

	DefaultThreshold = 0.68
	DefaultRankLimit = 5
	DefaultMaxDepth  = 64
	DefaultMemoSize  = 32

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
	DefaultNamespace   = "bref"
)

// ApplyDefaults fills every zero-value field in cfg.  Values already set by
// the file or environment are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = DefaultStaticDir
	}

	// ── Data ──────────────────────────────────────────────────────────────────
	if cfg.Data.Source == "" {
		cfg.Data.Source = DefaultDataSource
	}
	if cfg.Data.Root == "" && cfg.Data.Source == SourceFS {
		cfg.Data.Root = DefaultDataRoot
	}
	if cfg.Data.FetchTimeout == 0 {
		cfg.Data.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Data.TTL == 0 {
		cfg.Data.TTL = DefaultDataTTL
	}
	if cfg.Data.CacheCapacity == 0 {
		cfg.Data.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.Data.Paths.Summary == "" {
		cfg.Data.Paths.Summary = DefaultSummaryPath
	}
	if cfg.Data.Paths.Hierarchy == "" {
		cfg.Data.Paths.Hierarchy = DefaultHierarchyPath
	}
	if cfg.Data.Paths.PollutantFilenames == "" {
		cfg.Data.Paths.PollutantFilenames = DefaultFilenamesPath
	}
	if cfg.Data.Paths.PatentIndex == "" {
		cfg.Data.Paths.PatentIndex = DefaultPatentIndexPath
	}
	if cfg.Data.Paths.BrefText == "" {
		cfg.Data.Paths.BrefText = DefaultBrefTextPath
	}

	// ── Cache / Redis ─────────────────────────────────────────────────────────
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	// ── LLM ───────────────────────────────────────────────────────────────────
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.ProxyPath == "" {
		cfg.LLM.ProxyPath = DefaultProxyPath
	}
	if cfg.LLM.ProxyURL == "" {
		cfg.LLM.ProxyURL = DefaultProxyURL
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = DefaultLLMTimeout
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = DefaultLLMMaxRetries
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = DefaultLLMTemperature
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = DefaultLLMTopP
	}
	if cfg.LLM.MaxOutputTokens == 0 {
		cfg.LLM.MaxOutputTokens = DefaultLLMMaxOutputTokens
	}

	// ── Rate limit ────────────────────────────────────────────────────────────
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = DefaultRateLimitBurst
	}

	// ── CORS ──────────────────────────────────────────────────────────────────
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	// ── Relevance ─────────────────────────────────────────────────────────────
	if cfg.Relevance.Threshold == 0 {
		cfg.Relevance.Threshold = DefaultThreshold
	}
	if cfg.Relevance.RankLimit == 0 {
		cfg.Relevance.RankLimit = DefaultRankLimit
	}
	if cfg.Relevance.MaxDepth == 0 {
		cfg.Relevance.MaxDepth = DefaultMaxDepth
	}
	if cfg.Relevance.MemoSize == 0 {
		cfg.Relevance.MemoSize = DefaultMemoSize
	}

	// ── Log / Monitoring ──────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Monitoring.MetricsPath == "" {
		cfg.Monitoring.MetricsPath = DefaultMetricsPath
	}
	if cfg.Monitoring.Namespace == "" {
		cfg.Monitoring.Namespace = DefaultNamespace
	}
}

// NewDefault returns a Config with every default applied.
func NewDefault() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
