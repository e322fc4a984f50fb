// Package config provides configuration management for the curius-feed
// service. Values come from defaults, an optional YAML overlay file, and
// environment variables, in that order of precedence.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "curius-feed/pkg/errors"
)

// Environment names the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the root configuration for the service.
type Config struct {
	Environment Environment `env:"ENVIRONMENT" envDefault:"development" yaml:"environment" validate:"oneof=development production"`
	ListenAddr  string      `env:"LISTEN_ADDR" envDefault:":3000" yaml:"listen_addr" validate:"required"`

	Upstream UpstreamConfig `envPrefix:"UPSTREAM_" yaml:"upstream"`
	Cache    CacheConfig    `envPrefix:"CACHE_" yaml:"cache"`
	Feed     FeedConfig     `envPrefix:"FEED_" yaml:"feed"`
}

// UpstreamConfig controls the curius API client and its transport.
type UpstreamConfig struct {
	BaseURL        string        `env:"BASE_URL" envDefault:"https://curius.app/api" yaml:"base_url" validate:"required,url"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s" yaml:"request_timeout"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"5" yaml:"max_retries" validate:"gte=0,lte=10"`
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY" envDefault:"200ms" yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `env:"RETRY_MAX_DELAY" envDefault:"10s" yaml:"retry_max_delay"`
	BreakerEnabled bool          `env:"BREAKER_ENABLED" envDefault:"true" yaml:"breaker_enabled"`
}

// CacheConfig controls the cache store backend and TTLs.
type CacheConfig struct {
	// Backend selects the store implementation: redis, dynamodb or memory.
	Backend    string        `env:"BACKEND" envDefault:"redis" yaml:"backend" validate:"oneof=redis dynamodb memory"`
	TTLSeconds int           `env:"TTL_SECONDS" envDefault:"21600" yaml:"ttl_seconds" validate:"gt=0"`
	ChunkSize  int           `env:"CHUNK_SIZE" envDefault:"10" yaml:"chunk_size" validate:"gt=0"`
	RedisURL   string        `env:"REDIS_URL" envDefault:"redis://localhost:6379" yaml:"redis_url"`
	// PoolMultiplier sizes the redis connection pool as a multiple of
	// GOMAXPROCS. Graph expansion and miss-fetch fan-out can each check out
	// one connection per concurrent branch.
	PoolMultiplier int           `env:"POOL_MULTIPLIER" envDefault:"16" yaml:"pool_multiplier" validate:"gt=0"`
	DynamoTable    string        `env:"DYNAMO_TABLE" envDefault:"curius-feed-cache" yaml:"dynamo_table"`
	DynamoRegion   string        `env:"DYNAMO_REGION" envDefault:"us-east-1" yaml:"dynamo_region"`
	MemoryMaxItems int           `env:"MEMORY_MAX_ITEMS" envDefault:"10000" yaml:"memory_max_items"`
	DialTimeout    time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s" yaml:"dial_timeout"`
}

// FeedConfig bounds the request parameters accepted by the HTTP layer.
type FeedConfig struct {
	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"100" yaml:"default_limit" validate:"gt=0"`
	MaxLimit     int `env:"MAX_LIMIT" envDefault:"500" yaml:"max_limit" validate:"gt=0"`
	// MaxOrder caps the hop distance a caller may request; each extra hop
	// multiplies upstream fan-out.
	MaxOrder int `env:"MAX_ORDER" envDefault:"3" yaml:"max_order" validate:"gte=0"`
}

// TTL returns the cache entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Load builds the configuration from defaults, the optional overlay file
// named by CONFIG_FILE, and environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Internal("reading config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Internal("parsing config file", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, apperrors.Internal("parsing environment", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.Validation("invalid configuration: " + err.Error())
	}
	if c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return apperrors.Validation("feed default_limit must not exceed max_limit")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}
