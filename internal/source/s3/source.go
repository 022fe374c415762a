package s3source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quantsignals/mktstruct/internal/domain"
)

const (
	defaultBookPrefix  = "orderbooks"
	defaultTradePrefix = "trades"
)

// Source reads NDJSON archive objects. Each line is one record with a unix
// millisecond "ts" field; records outside the query range are skipped so
// callers can point at coarse (for example daily) archive objects.
type Source struct {
	client *Client
}

// NewSource creates a Source backed by the given client.
func NewSource(c *Client) *Source {
	return &Source{client: c}
}

// ndBook is the archived order-book line shape.
type ndBook struct {
	Timestamp int64               `json:"ts"`
	Bids      []domain.PriceLevel `json:"bids"`
	Asks      []domain.PriceLevel `json:"asks"`
}

// ndTrade is the archived trade line shape.
type ndTrade struct {
	Timestamp int64   `json:"ts"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Side      string  `json:"side,omitempty"`
}

// FetchOrderBooks reads every archive object under the symbol prefix and
// returns the snapshots within the query range.
func (s *Source) FetchOrderBooks(ctx context.Context, q domain.Query) ([]domain.BookSnapshot, error) {
	var snaps []domain.BookSnapshot
	err := s.scanObjects(ctx, prefix(q, defaultBookPrefix), func(line []byte) error {
		var rec ndBook
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decode orderbook line: %w", err)
		}
		ts := time.UnixMilli(rec.Timestamp).UTC()
		if ts.Before(q.Start) || ts.After(q.End) {
			return nil
		}
		snaps = append(snaps, domain.BookSnapshot{
			Symbol:    q.Symbol,
			Timestamp: ts,
			Bids:      rec.Bids,
			Asks:      rec.Asks,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("s3source: fetch orderbooks %s: %w", q.Symbol, err)
	}
	return snaps, nil
}

// FetchTrades reads every archive object under the symbol prefix and
// returns the trades within the query range.
func (s *Source) FetchTrades(ctx context.Context, q domain.Query) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := s.scanObjects(ctx, prefix(q, defaultTradePrefix), func(line []byte) error {
		var rec ndTrade
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decode trade line: %w", err)
		}
		ts := time.UnixMilli(rec.Timestamp).UTC()
		if ts.Before(q.Start) || ts.After(q.End) {
			return nil
		}
		trades = append(trades, domain.Trade{
			Symbol:    q.Symbol,
			Timestamp: ts,
			Price:     rec.Price,
			Volume:    rec.Volume,
			Side:      domain.TradeSide(rec.Side),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("s3source: fetch trades %s: %w", q.Symbol, err)
	}
	return trades, nil
}

// scanObjects lists all objects under prefix, pagination included, and
// feeds every non-empty line to fn in key order.
func (s *Source) scanObjects(ctx context.Context, prefix string, fn func(line []byte) error) error {
	client := s.client.S3()
	bucket := s.client.Bucket()

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list prefix %s: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			out, err := client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return fmt.Errorf("get %s: %w", key, err)
			}

			scanner := bufio.NewScanner(out.Body)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				if err := fn(line); err != nil {
					out.Body.Close()
					return fmt.Errorf("%s: %w", key, err)
				}
			}
			scanErr := scanner.Err()
			out.Body.Close()
			if scanErr != nil {
				return fmt.Errorf("scan %s: %w", key, scanErr)
			}
		}
	}
	return nil
}

// prefix builds the object prefix for a query, honoring the table override.
func prefix(q domain.Query, fallback string) string {
	table := q.Table
	if table == "" {
		table = fallback
	}
	return table + "/" + q.Symbol + "/"
}
