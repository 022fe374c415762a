package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalTOML = `
log_level = "debug"

[source]
kind = "http"

[source.http]
base_url = "https://api.example.com"
token = "tb-token"

[request]
entity_kind = "trade"
symbols = ["BTCUSDT", "ETHUSDT"]
start = "2024-03-01T10:00:00Z"
end = "2024-03-01T12:00:00Z"
category = "time-sampled"

[request.category_params]
frequency = "5m"
`

func TestLoadMergesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalTOML))

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://api.example.com", cfg.Source.HTTP.BaseURL)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Request.Symbols)
	assert.Equal(t, "5m", cfg.Request.CategoryParams["frequency"])

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "10m", cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Request.Parallelism)
	assert.Equal(t, "records", cfg.Request.OutputFormat)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MKTSTRUCT_HTTP_TOKEN", "from-env")
	t.Setenv("MKTSTRUCT_REQUEST_SYMBOLS", "SOLUSDT, DOGEUSDT")
	t.Setenv("MKTSTRUCT_CACHE_ENABLED", "true")

	cfg, err := Load(writeConfig(t, minimalTOML))

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Source.HTTP.Token)
	assert.Equal(t, []string{"SOLUSDT", "DOGEUSDT"}, cfg.Request.Symbols)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func validConfig() *Config {
	cfg := Defaults()
	cfg.Source.HTTP.BaseURL = "https://api.example.com"
	cfg.Request.Symbols = []string{"BTCUSDT"}
	cfg.Request.Start = "2024-03-01T10:00:00Z"
	cfg.Request.End = "2024-03-01T12:00:00Z"
	return &cfg
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown source kind", func(c *Config) { c.Source.Kind = "ftp" }, "unknown source kind"},
		{"http without base url", func(c *Config) { c.Source.HTTP.BaseURL = " " }, "base_url"},
		{"postgres without host", func(c *Config) {
			c.Source.Kind = "postgres"
		}, "dsn or host"},
		{"s3 without bucket", func(c *Config) {
			c.Source.Kind = "s3"
			c.Source.S3.Region = "us-east-1"
		}, "bucket"},
		{"cache with bad ttl", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.TTL = "soon"
		}, "cache.ttl"},
		{"unknown entity kind", func(c *Config) { c.Request.EntityKind = "candles" }, "entity_kind"},
		{"no symbols", func(c *Config) { c.Request.Symbols = nil }, "symbols"},
		{"bad start", func(c *Config) { c.Request.Start = "yesterday" }, "request.start"},
		{"inverted range", func(c *Config) {
			c.Request.Start = "2024-03-01T12:00:00Z"
			c.Request.End = "2024-03-01T10:00:00Z"
		}, "before start"},
		{"bad export format", func(c *Config) {
			c.Export.Enabled = true
			c.Export.FileFormat = "xlsx"
		}, "file_format"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRange(t *testing.T) {
	cfg := validConfig()
	start, end, err := cfg.Request.Range()

	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00Z", start.Format("2006-01-02T15:04:05Z07:00"))
	assert.True(t, end.After(start))
}
