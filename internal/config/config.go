// Package config defines the configuration structures of bref-insight.  No
// I/O lives here; loading is in loader.go and defaults in defaults.go.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	StaticDir       string        `mapstructure:"static_dir"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataPaths names the fixed fixture files relative to the data root.
type DataPaths struct {
	Summary            string `mapstructure:"summary"`
	Hierarchy          string `mapstructure:"hierarchy"`
	PollutantFilenames string `mapstructure:"pollutant_filenames"`
	PatentIndex        string `mapstructure:"patent_index"`
	BrefText           string `mapstructure:"bref_text"`
}

// DataConfig selects and tunes the Document Store source.
type DataConfig struct {
	// Source is one of fs|http|minio.
	Source        string        `mapstructure:"source"`
	Root          string        `mapstructure:"root"`
	BaseURL       string        `mapstructure:"base_url"`
	ObjectPrefix  string        `mapstructure:"object_prefix"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	TTL           time.Duration `mapstructure:"ttl"`
	CacheCapacity int           `mapstructure:"cache_capacity"`
	Watch         bool          `mapstructure:"watch"`
	Paths         DataPaths     `mapstructure:"paths"`
}

// CacheConfig selects the Document Store cache backend.
type CacheConfig struct {
	// Backend is memory|redis.
	Backend   string `mapstructure:"backend"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MinIOConfig holds object storage parameters for the fixture bucket.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// LLMConfig configures both the upstream Responses API client used by the
// proxy and the defaults the chat assembler puts into outbound requests.
type LLMConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	ProxyPath       string        `mapstructure:"proxy_path"`
	ProxyURL        string        `mapstructure:"proxy_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Temperature     float64       `mapstructure:"temperature"`
	TopP            float64       `mapstructure:"top_p"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
}

// RateLimitConfig throttles the chat proxy per client address.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RelevanceConfig holds the aggregation and ranking constants.
type RelevanceConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	RankLimit int     `mapstructure:"rank_limit"`
	MaxDepth  int     `mapstructure:"max_depth"`
	MemoSize  int     `mapstructure:"memo_size"`
}

// LogConfig holds logger settings; converted to logging.LogConfig in main.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// MonitoringConfig toggles the Prometheus endpoint.
type MonitoringConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsPath    string `mapstructure:"metrics_path"`
	Namespace      string `mapstructure:"namespace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	LLM        LLMConfig        `mapstructure:"llm"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Relevance  RelevanceConfig  `mapstructure:"relevance"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a defaulted Config and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	switch c.Data.Source {
	case SourceFS:
		if c.Data.Root == "" {
			return fmt.Errorf("config: data.root is required for the fs source")
		}
	case SourceHTTP:
		u, err := url.Parse(c.Data.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config: data.base_url %q must be an http(s) URL", c.Data.BaseURL)
		}
	case SourceMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.endpoint and minio.bucket are required for the minio source")
		}
	default:
		return fmt.Errorf("config: data.source %q is invalid; expected fs|http|minio", c.Data.Source)
	}
	if c.Data.FetchTimeout <= 0 {
		return fmt.Errorf("config: data.fetch_timeout must be positive")
	}
	if c.Data.CacheCapacity < 1 {
		return fmt.Errorf("config: data.cache_capacity must be ≥ 1, got %d", c.Data.CacheCapacity)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected memory|redis", c.Cache.Backend)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	if c.Relevance.Threshold <= 0 || c.Relevance.Threshold > 1 {
		return fmt.Errorf("config: relevance.threshold %v must be in (0, 1]", c.Relevance.Threshold)
	}
	if c.Relevance.RankLimit < 1 {
		return fmt.Errorf("config: relevance.rank_limit must be ≥ 1, got %d", c.Relevance.RankLimit)
	}
	if c.Relevance.MaxDepth < 1 {
		return fmt.Errorf("config: relevance.max_depth must be ≥ 1, got %d", c.Relevance.MaxDepth)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("config: ratelimit requires requests_per_second > 0 and burst ≥ 1")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
