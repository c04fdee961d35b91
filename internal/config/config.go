package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds cachectl configuration.
type Config struct {
	Redis   RedisConfig   `mapstructure:"redis"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Log     LogConfig     `mapstructure:"log"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds façade configuration.
type CacheConfig struct {
	DefaultTTL     time.Duration `mapstructure:"default_ttl"`
	ScanCount      int64         `mapstructure:"scan_count"`
	MaxScanPages   int           `mapstructure:"max_scan_pages"`
	Codec          string        `mapstructure:"codec"`
	MaxDecodeBytes int           `mapstructure:"max_decode_bytes"`
}

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxFailures      uint32        `mapstructure:"max_failures"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
	HalfOpenRequests uint32        `mapstructure:"half_open_requests"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	RedactKeys   bool   `mapstructure:"redact_keys"`
	SampleErrors uint64 `mapstructure:"sample_errors"`
}

// Load reads configuration from path, or from cachectl.yaml in the search
// paths when path is empty. A missing search-path file is not an error.
// CACHECTL_* environment variables override both (CACHECTL_REDIS_ADDRESS).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cachectl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/cachectl")
		v.AddConfigPath("/etc/cachectl")
	}

	setDefaults(v)

	v.SetEnvPrefix("CACHECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the CLI cannot act on.
func (c *Config) Validate() error {
	switch c.Cache.Codec {
	case "json", "msgpack", "cbor":
	default:
		return fmt.Errorf("config: unknown cache.codec %q", c.Cache.Codec)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("config: cache.default_ttl must not be negative")
	}
	if c.Cache.MaxScanPages < 0 || c.Cache.ScanCount < 0 || c.Cache.MaxDecodeBytes < 0 {
		return fmt.Errorf("config: cache limits must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache defaults
	v.SetDefault("cache.default_ttl", time.Duration(0))
	v.SetDefault("cache.scan_count", 100)
	v.SetDefault("cache.max_scan_pages", 100_000)
	v.SetDefault("cache.codec", "json")
	v.SetDefault("cache.max_decode_bytes", 0)

	// Breaker defaults
	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)
	v.SetDefault("breaker.half_open_requests", 1)

	// Log defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.redact_keys", false)
	v.SetDefault("log.sample_errors", 0)
}
