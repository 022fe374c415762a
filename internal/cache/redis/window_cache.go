// Package redis implements a read-through fetch-window cache using
// go-redis/v9, usable as a decorator around any source adapter.
package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantsignals/mktstruct/internal/domain"
)

const defaultWindowTTL = 10 * time.Minute

// ClientConfig holds connection parameters for the Redis client.
type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
}

// Client holds the cache's Redis connection.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis, pings it to verify connectivity, and returns the
// client.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CachedSource is a read-through decorator implementing domain.Source.
// Fetch results for an exact (kind, symbol, range, table) key are stored as
// JSON blobs with a TTL; historical ranges are immutable so staleness only
// matters near the live edge, which the TTL covers.
//
// Key schema:
//
//	win:{kind}:{symbol}:{startMilli}:{endMilli}:{table} - JSON record array
type CachedSource struct {
	next   domain.Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps next with the window cache. ttl <= 0 selects the
// default of 10 minutes.
func NewCachedSource(next domain.Source, c *Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = defaultWindowTTL
	}
	return &CachedSource{
		next:   next,
		rdb:    c.rdb,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "window_cache")),
	}
}

func windowKey(kind domain.EntityKind, q domain.Query) string {
	return "win:" + string(kind) + ":" + q.Symbol + ":" +
		strconv.FormatInt(q.Start.UnixMilli(), 10) + ":" +
		strconv.FormatInt(q.End.UnixMilli(), 10) + ":" + q.Table
}

// FetchOrderBooks returns the cached window when present, falling back to
// the wrapped source and populating the cache on a miss. Cache failures are
// logged and degrade to a direct fetch, never to a request failure.
func (c *CachedSource) FetchOrderBooks(ctx context.Context, q domain.Query) ([]domain.BookSnapshot, error) {
	key := windowKey(domain.KindOrderBook, q)

	var snaps []domain.BookSnapshot
	hit, err := c.get(ctx, key, &snaps)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if hit {
		return snaps, nil
	}

	snaps, err = c.next.FetchOrderBooks(ctx, q)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, snaps)
	return snaps, nil
}

// FetchTrades mirrors FetchOrderBooks for trade windows.
func (c *CachedSource) FetchTrades(ctx context.Context, q domain.Query) ([]domain.Trade, error) {
	key := windowKey(domain.KindTrade, q)

	var trades []domain.Trade
	hit, err := c.get(ctx, key, &trades)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if hit {
		return trades, nil
	}

	trades, err = c.next.FetchTrades(ctx, q)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, trades)
	return trades, nil
}

func (c *CachedSource) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal cached window: %w", err)
	}
	return true, nil
}

func (c *CachedSource) put(ctx context.Context, key string, records any) {
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.WarnContext(ctx, "cache marshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
