// Package config defines the top-level configuration for the
// microstructure toolkit and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MKTSTRUCT_* environment
// variables.
type Config struct {
	Source   SourceConfig  `toml:"source"`
	Cache    CacheConfig   `toml:"cache"`
	Redis    RedisConfig   `toml:"redis"`
	Request  RequestConfig `toml:"request"`
	Export   ExportConfig  `toml:"export"`
	LogLevel string        `toml:"log_level"`
}

// SourceConfig selects and parameterizes the data-source adapter.
type SourceConfig struct {
	// Kind is one of "http", "postgres", "s3".
	Kind     string         `toml:"kind"`
	HTTP     HTTPConfig     `toml:"http"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
}

// HTTPConfig holds REST source endpoint parameters.
type HTTPConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// CacheConfig enables the Redis read-through window cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	TTL     string `toml:"ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// RequestConfig describes the transformation request(s) the tool runs.
type RequestConfig struct {
	EntityKind     string         `toml:"entity_kind"`
	Symbols        []string       `toml:"symbols"`
	MarketType     string         `toml:"market_type"`
	Start          string         `toml:"start"`
	End            string         `toml:"end"`
	Category       string         `toml:"category"`
	CategoryParams map[string]any `toml:"category_params"`
	Table          string         `toml:"table"`
	OutputFormat   string         `toml:"output_format"`
	Parallelism    int            `toml:"parallelism"`
}

// ExportConfig controls writing results to files.
type ExportConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	FileFormat string `toml:"file_format"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Source: SourceConfig{
			Kind: "http",
			Postgres: PostgresConfig{
				Port:         5432,
				SSLMode:      "disable",
				PoolMaxConns: 4,
				PoolMinConns: 1,
			},
		},
		Cache: CacheConfig{TTL: "10m"},
		Redis: RedisConfig{Addr: "localhost:6379", PoolSize: 10},
		Request: RequestConfig{
			EntityKind:   string(domain.KindTrade),
			MarketType:   "spot",
			Category:     string(domain.CategoryRaw),
			OutputFormat: string(domain.FormatRecords),
			Parallelism:  4,
		},
		Export:   ExportConfig{Dir: ".", FileFormat: "csv"},
		LogLevel: "info",
	}
}

// Range parses the configured request range.
func (r RequestConfig) Range() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return start, end, fmt.Errorf("config: request.start: %w", err)
	}
	end, err = time.Parse(time.RFC3339, r.End)
	if err != nil {
		return start, end, fmt.Errorf("config: request.end: %w", err)
	}
	return start, end, nil
}

// Validate checks the configuration for structural errors before any
// adapter is built.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "http":
		if strings.TrimSpace(c.Source.HTTP.BaseURL) == "" {
			return fmt.Errorf("config: source.http.base_url is required for kind=http")
		}
	case "postgres":
		if c.Source.Postgres.DSN == "" && c.Source.Postgres.Host == "" {
			return fmt.Errorf("config: source.postgres needs a dsn or host")
		}
	case "s3":
		if c.Source.S3.Bucket == "" {
			return fmt.Errorf("config: source.s3.bucket is required for kind=s3")
		}
		if c.Source.S3.Region == "" {
			return fmt.Errorf("config: source.s3.region is required for kind=s3")
		}
	default:
		return fmt.Errorf("config: unknown source kind %q", c.Source.Kind)
	}

	if c.Cache.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when cache.enabled")
		}
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("config: cache.ttl: %w", err)
		}
	}

	kind := domain.EntityKind(c.Request.EntityKind)
	if !kind.Valid() {
		return fmt.Errorf("config: unknown request.entity_kind %q", c.Request.EntityKind)
	}
	if len(c.Request.Symbols) == 0 {
		return fmt.Errorf("config: request.symbols must name at least one symbol")
	}
	start, end, err := c.Request.Range()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("config: request range end %s before start %s", c.Request.End, c.Request.Start)
	}

	if c.Export.Enabled {
		if _, err := exportFormat(c.Export.FileFormat); err != nil {
			return err
		}
	}

	switch lvl := strings.ToLower(c.LogLevel); lvl {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}

	return nil
}

func exportFormat(name string) (string, error) {
	switch name {
	case "csv", "json", "parquet":
		return name, nil
	default:
		return "", fmt.Errorf("config: unknown export.file_format %q", name)
	}
}
