package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/TranscriptSearch/pkg/config"
	"github.com/utafrali/TranscriptSearch/pkg/database"
	"github.com/utafrali/TranscriptSearch/pkg/middleware"
	"github.com/utafrali/TranscriptSearch/pkg/tracing"
)

// Engine names accepted by SEARCH_ENGINE.
const (
	EngineElasticsearch = "elasticsearch"
	EngineMemory        = "memory"
)

// Config holds all configuration for cvsearch.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"CVSEARCH_LOG_FILE"`

	// HTTP server
	HTTPPort        int           `env:"SEARCH_HTTP_PORT" envDefault:"8010"`
	ShutdownTimeout time.Duration `env:"SEARCH_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Per-client limit on /api/v1/search; 0 disables it
	RateLimitRPS   float64 `env:"SEARCH_RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"SEARCH_RATE_LIMIT_BURST" envDefault:"20"`

	// Elasticsearch
	ElasticsearchURL                string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchUsername           string `env:"ELASTICSEARCH_USERNAME" envDefault:"elastic"`
	ElasticsearchPassword           string `env:"ELASTICSEARCH_PASSWORD"`
	ElasticsearchIndex              string `env:"ELASTICSEARCH_INDEX"` // overrides the static config index when set
	ElasticsearchInsecureSkipVerify bool   `env:"ELASTICSEARCH_INSECURE_SKIP_VERIFY" envDefault:"false"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	// Optional TOML file overriding the default field and facet lists
	StaticConfigFile string `env:"SEARCH_CONFIG_FILE"`

	// Redis backs the response cache and event deduplication when enabled
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	CacheTTL      time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"0s"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`

	// Kafka; empty disables the transcription event consumer
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"cvsearch-indexer"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads .env when present, then configuration from environment variables.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}

	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.SearchEngine {
	case EngineElasticsearch:
		if c.ElasticsearchURL == "" {
			return fmt.Errorf("ELASTICSEARCH_URL is required for the elasticsearch engine")
		}
		if c.ElasticsearchPassword != "" && c.ElasticsearchUsername == "" {
			return fmt.Errorf("ELASTICSEARCH_USERNAME is required when a password is set")
		}
	case EngineMemory:
	default:
		return fmt.Errorf("unknown SEARCH_ENGINE %q: want %s or %s", c.SearchEngine, EngineElasticsearch, EngineMemory)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("SEARCH_RATE_LIMIT_RPS and SEARCH_RATE_LIMIT_BURST must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.CacheTTL > 0 && !c.RedisEnabled {
		return fmt.Errorf("SEARCH_CACHE_TTL requires REDIS_ENABLED")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Redis returns the connection settings for the response cache.
func (c *Config) Redis() database.RedisConfig {
	r := database.DefaultRedisConfig()
	r.Host = c.RedisHost
	r.Port = c.RedisPort
	r.Password = c.RedisPassword
	r.DB = c.RedisDB
	return r
}

// RateLimit returns the per-client limit for the search routes.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{RPS: c.RateLimitRPS, Burst: c.RateLimitBurst}
}

// Tracing returns the tracer provider settings.
func (c *Config) Tracing(serviceName string) tracing.Config {
	t := tracing.DefaultConfig(serviceName)
	t.Environment = c.Environment
	t.OTLPEndpoint = c.OTELEndpoint
	t.SampleRate = c.OTELSampleRate
	t.Enabled = c.OTELEnabled
	return t
}
