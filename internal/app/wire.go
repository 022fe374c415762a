package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cache "github.com/quantsignals/mktstruct/internal/cache/redis"
	"github.com/quantsignals/mktstruct/internal/config"
	"github.com/quantsignals/mktstruct/internal/domain"
	"github.com/quantsignals/mktstruct/internal/metrics"
	"github.com/quantsignals/mktstruct/internal/service"
	httpsource "github.com/quantsignals/mktstruct/internal/source/http"
	pgsource "github.com/quantsignals/mktstruct/internal/source/postgres"
	s3source "github.com/quantsignals/mktstruct/internal/source/s3"
)

// Dependencies bundles everything the run loop needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Source       domain.Source
	OrderBooks   *service.OrderBooks
	PublicTrades *service.PublicTrades
}

// Wire constructs the configured source adapter (optionally wrapped in the
// Redis window cache), the metrics engine, and both facades. The returned
// cleanup function releases connections and should be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	source, err := buildSource(ctx, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	if cfg.Cache.Enabled {
		redisClient, err := cache.New(ctx, cache.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl, _ := time.ParseDuration(cfg.Cache.TTL)
		source = cache.NewCachedSource(source, redisClient, ttl, logger)
		logger.InfoContext(ctx, "window cache enabled", slog.String("ttl", cfg.Cache.TTL))
	}

	engine := metrics.NewEngine(metrics.Default())

	deps := &Dependencies{
		Source:       source,
		OrderBooks:   service.NewOrderBooks(source, engine, logger),
		PublicTrades: service.NewPublicTrades(source, engine, logger),
	}
	return deps, cleanup, nil
}

// buildSource constructs the adapter selected by source.kind.
func buildSource(ctx context.Context, cfg *config.Config, closers *[]func()) (domain.Source, error) {
	switch cfg.Source.Kind {
	case "http":
		return httpsource.NewClient(cfg.Source.HTTP.BaseURL, cfg.Source.HTTP.Token), nil

	case "postgres":
		client, err := pgsource.New(ctx, pgsource.ClientConfig{
			DSN:      cfg.Source.Postgres.DSN,
			Host:     cfg.Source.Postgres.Host,
			Port:     cfg.Source.Postgres.Port,
			Database: cfg.Source.Postgres.Database,
			User:     cfg.Source.Postgres.User,
			Password: cfg.Source.Postgres.Password,
			SSLMode:  cfg.Source.Postgres.SSLMode,
			MaxConns: cfg.Source.Postgres.PoolMaxConns,
			MinConns: cfg.Source.Postgres.PoolMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		*closers = append(*closers, client.Close)
		return pgsource.NewSource(client), nil

	case "s3":
		client, err := s3source.New(ctx, s3source.ClientConfig{
			Endpoint:       cfg.Source.S3.Endpoint,
			Region:         cfg.Source.S3.Region,
			Bucket:         cfg.Source.S3.Bucket,
			AccessKey:      cfg.Source.S3.AccessKey,
			SecretKey:      cfg.Source.S3.SecretKey,
			UseSSL:         cfg.Source.S3.UseSSL,
			ForcePathStyle: cfg.Source.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("app: connect s3: %w", err)
		}
		return s3source.NewSource(client), nil

	default:
		return nil, fmt.Errorf("app: unknown source kind %q", cfg.Source.Kind)
	}
}
