package pgsource

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantsignals/mktstruct/internal/domain"
)

const (
	defaultBookTable  = "orderbooks"
	defaultTradeTable = "trades"
)

// identPattern restricts table overrides to plain SQL identifiers; the
// table name is interpolated into the query text and cannot be a bind
// parameter.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Source reads snapshot and trade relations. Expected schemas:
//
//	orderbooks(symbol TEXT, ts TIMESTAMPTZ, bids JSONB, asks JSONB)
//	trades(symbol TEXT, ts TIMESTAMPTZ, price DOUBLE PRECISION,
//	       volume DOUBLE PRECISION, side TEXT)
//
// A query's Table field overrides the relation name.
type Source struct {
	pool *pgxpool.Pool
}

// NewSource creates a Source backed by the given client.
func NewSource(c *Client) *Source {
	return &Source{pool: c.Pool()}
}

// FetchOrderBooks reads snapshots in [start, end], ordered by timestamp.
func (s *Source) FetchOrderBooks(ctx context.Context, q domain.Query) ([]domain.BookSnapshot, error) {
	table, err := tableName(q.Table, defaultBookTable)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT ts, bids, asks FROM %s
		 WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts`, table)

	rows, err := s.pool.Query(ctx, query, q.Symbol, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("pgsource: query orderbooks: %w", err)
	}
	defer rows.Close()

	var snaps []domain.BookSnapshot
	for rows.Next() {
		snap := domain.BookSnapshot{Symbol: q.Symbol}
		var bids, asks []byte
		if err := rows.Scan(&snap.Timestamp, &bids, &asks); err != nil {
			return nil, fmt.Errorf("pgsource: scan orderbook row: %w", err)
		}
		if err := json.Unmarshal(bids, &snap.Bids); err != nil {
			return nil, fmt.Errorf("pgsource: decode bids: %w", err)
		}
		if err := json.Unmarshal(asks, &snap.Asks); err != nil {
			return nil, fmt.Errorf("pgsource: decode asks: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// FetchTrades reads trade prints in [start, end], ordered by timestamp.
func (s *Source) FetchTrades(ctx context.Context, q domain.Query) ([]domain.Trade, error) {
	table, err := tableName(q.Table, defaultTradeTable)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT ts, price, volume, COALESCE(side, '') FROM %s
		 WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts`, table)

	rows, err := s.pool.Query(ctx, query, q.Symbol, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("pgsource: query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		t := domain.Trade{Symbol: q.Symbol}
		var side string
		if err := rows.Scan(&t.Timestamp, &t.Price, &t.Volume, &side); err != nil {
			return nil, fmt.Errorf("pgsource: scan trade row: %w", err)
		}
		t.Side = domain.TradeSide(side)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func tableName(override, fallback string) (string, error) {
	if override == "" {
		return fallback, nil
	}
	if !identPattern.MatchString(override) {
		return "", fmt.Errorf("pgsource: invalid table name %q", override)
	}
	return override, nil
}
