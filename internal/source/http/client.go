// Package httpsource implements the domain.Source contract against a REST
// query endpoint (a tinybird-style pipe API) that serves archived
// order-book snapshots and trade prints as JSON.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// Client is the REST source adapter.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a source client for the given API root, e.g.
// "https://api.example.com". token is sent as a bearer credential when
// non-empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchOrderBooks retrieves snapshot records for the query range.
func (c *Client) FetchOrderBooks(ctx context.Context, q domain.Query) ([]domain.BookSnapshot, error) {
	body, err := c.doGet(ctx, "/v0/orderbooks", q)
	if err != nil {
		return nil, fmt.Errorf("httpsource: get orderbooks %s: %w", q.Symbol, err)
	}

	var records []apiBook
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("httpsource: decode orderbooks: %w", err)
	}

	snaps := make([]domain.BookSnapshot, 0, len(records))
	for i := range records {
		snaps = append(snaps, records[i].toDomain(q.Symbol))
	}
	return snaps, nil
}

// FetchTrades retrieves trade records for the query range.
func (c *Client) FetchTrades(ctx context.Context, q domain.Query) ([]domain.Trade, error) {
	body, err := c.doGet(ctx, "/v0/trades", q)
	if err != nil {
		return nil, fmt.Errorf("httpsource: get trades %s: %w", q.Symbol, err)
	}

	var records []apiTrade
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("httpsource: decode trades: %w", err)
	}

	trades := make([]domain.Trade, 0, len(records))
	for i := range records {
		trades = append(trades, records[i].toDomain(q.Symbol))
	}
	return trades, nil
}

// doGet performs a GET with the query encoded as URL parameters and returns
// the response body.
func (c *Client) doGet(ctx context.Context, path string, q domain.Query) ([]byte, error) {
	params := url.Values{}
	params.Set("symbol", q.Symbol)
	if q.MarketType != "" {
		params.Set("market_type", q.MarketType)
	}
	params.Set("start", strconv.FormatInt(q.Start.UnixMilli(), 10))
	params.Set("end", strconv.FormatInt(q.End.UnixMilli(), 10))
	if q.Table != "" {
		params.Set("table", q.Table)
	}
	for k, v := range q.Params {
		params.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
