package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MKTSTRUCT_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MKTSTRUCT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject credentials at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Source ──
	setStr(&cfg.Source.Kind, "MKTSTRUCT_SOURCE_KIND")
	setStr(&cfg.Source.HTTP.BaseURL, "MKTSTRUCT_HTTP_BASE_URL")
	setStr(&cfg.Source.HTTP.Token, "MKTSTRUCT_HTTP_TOKEN")

	// ── Postgres ──
	setStr(&cfg.Source.Postgres.DSN, "MKTSTRUCT_POSTGRES_DSN")
	setStr(&cfg.Source.Postgres.Host, "MKTSTRUCT_POSTGRES_HOST")
	setInt(&cfg.Source.Postgres.Port, "MKTSTRUCT_POSTGRES_PORT")
	setStr(&cfg.Source.Postgres.Database, "MKTSTRUCT_POSTGRES_DATABASE")
	setStr(&cfg.Source.Postgres.User, "MKTSTRUCT_POSTGRES_USER")
	setStr(&cfg.Source.Postgres.Password, "MKTSTRUCT_POSTGRES_PASSWORD")
	setStr(&cfg.Source.Postgres.SSLMode, "MKTSTRUCT_POSTGRES_SSLMODE")
	setInt(&cfg.Source.Postgres.PoolMaxConns, "MKTSTRUCT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Source.Postgres.PoolMinConns, "MKTSTRUCT_POSTGRES_POOL_MIN_CONNS")

	// ── S3 ──
	setStr(&cfg.Source.S3.Endpoint, "MKTSTRUCT_S3_ENDPOINT")
	setStr(&cfg.Source.S3.Region, "MKTSTRUCT_S3_REGION")
	setStr(&cfg.Source.S3.Bucket, "MKTSTRUCT_S3_BUCKET")
	setStr(&cfg.Source.S3.AccessKey, "MKTSTRUCT_S3_ACCESS_KEY")
	setStr(&cfg.Source.S3.SecretKey, "MKTSTRUCT_S3_SECRET_KEY")
	setBool(&cfg.Source.S3.UseSSL, "MKTSTRUCT_S3_USE_SSL")
	setBool(&cfg.Source.S3.ForcePathStyle, "MKTSTRUCT_S3_FORCE_PATH_STYLE")

	// ── Cache / Redis ──
	setBool(&cfg.Cache.Enabled, "MKTSTRUCT_CACHE_ENABLED")
	setStr(&cfg.Cache.TTL, "MKTSTRUCT_CACHE_TTL")
	setStr(&cfg.Redis.Addr, "MKTSTRUCT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MKTSTRUCT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MKTSTRUCT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MKTSTRUCT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MKTSTRUCT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MKTSTRUCT_REDIS_TLS_ENABLED")

	// ── Request ──
	setStr(&cfg.Request.EntityKind, "MKTSTRUCT_REQUEST_ENTITY_KIND")
	setStringSlice(&cfg.Request.Symbols, "MKTSTRUCT_REQUEST_SYMBOLS")
	setStr(&cfg.Request.MarketType, "MKTSTRUCT_REQUEST_MARKET_TYPE")
	setStr(&cfg.Request.Start, "MKTSTRUCT_REQUEST_START")
	setStr(&cfg.Request.End, "MKTSTRUCT_REQUEST_END")
	setStr(&cfg.Request.Category, "MKTSTRUCT_REQUEST_CATEGORY")
	setStr(&cfg.Request.Table, "MKTSTRUCT_REQUEST_TABLE")
	setStr(&cfg.Request.OutputFormat, "MKTSTRUCT_REQUEST_OUTPUT_FORMAT")
	setInt(&cfg.Request.Parallelism, "MKTSTRUCT_REQUEST_PARALLELISM")

	// ── Export ──
	setBool(&cfg.Export.Enabled, "MKTSTRUCT_EXPORT_ENABLED")
	setStr(&cfg.Export.Dir, "MKTSTRUCT_EXPORT_DIR")
	setStr(&cfg.Export.FileFormat, "MKTSTRUCT_EXPORT_FILE_FORMAT")

	// ── Logging ──
	setStr(&cfg.LogLevel, "MKTSTRUCT_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
