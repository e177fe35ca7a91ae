package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "BREF"

// openAIKeyEnv is honoured when llm.api_key is not configured.
const openAIKeyEnv = "OPENAI_API_KEY"

// envKeys lists every leaf key so that BREF_* variables are visible to
// Unmarshal even when the key is absent from the config file.
var envKeys = []string{
	"server.host", "server.port", "server.read_timeout", "server.write_timeout",
	"server.idle_timeout", "server.shutdown_timeout", "server.max_body_size", "server.static_dir",
	"data.source", "data.root", "data.base_url", "data.object_prefix", "data.fetch_timeout",
	"data.ttl", "data.cache_capacity", "data.watch",
	"data.paths.summary", "data.paths.hierarchy", "data.paths.pollutant_filenames",
	"data.paths.patent_index", "data.paths.bref_text",
	"cache.backend", "cache.key_prefix",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.region", "minio.use_ssl",
	"llm.base_url", "llm.api_key", "llm.model", "llm.proxy_path", "llm.proxy_url", "llm.timeout",
	"llm.max_retries", "llm.temperature", "llm.top_p", "llm.max_output_tokens",
	"ratelimit.enabled", "ratelimit.requests_per_second", "ratelimit.burst",
	"cors.allowed_origins",
	"relevance.threshold", "relevance.rank_limit", "relevance.max_depth", "relevance.memo_size",
	"log.level", "log.format", "log.output_paths",
	"monitoring.metrics_enabled", "monitoring.metrics_path", "monitoring.namespace",
}

// newViper builds a Viper instance with YAML file type, the BREF_ env prefix
// and a "." → "_" key replacer, so "data.root" resolves to BREF_DATA_ROOT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment.  Missing files are ignored; variables that
// are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: stat %q: %w", p, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: failed to load dotenv files: %w", err)
	}
	return nil
}

// Load reads the YAML file at configPath, merges BREF_* environment
// overrides, applies defaults and validates.  An empty configPath behaves
// like LoadFromEnv.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from BREF_* environment variables only.
//
//	BREF_<SECTION>_<FIELD>   e.g.  BREF_DATA_ROOT, BREF_LLM_API_KEY
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(openAIKeyEnv)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch re-parses configPath whenever it changes on disk and hands the new
// Config to onChange.  Invalid revisions are reported to onError (when
// non-nil) and otherwise skipped.  Watch does not block.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on error.  For main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
