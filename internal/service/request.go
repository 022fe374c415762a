// Package service exposes the public entry points per entity kind: the
// OrderBooks and PublicTrades facades. Each facade runs the fetch ->
// dispatch -> transform -> format pipeline over its source adapter.
package service

import (
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// Request describes one transformation request against a facade.
type Request struct {
	Symbol         string
	MarketType     string
	Start          time.Time
	End            time.Time
	Category       domain.Category
	CategoryParams map[string]any
	// Table optionally overrides the adapter's default source table.
	Table  string
	Output domain.OutputFormat
	// Inplace stores the result on the facade and returns an
	// acknowledgement instead of the data.
	Inplace bool
}

// query builds the source adapter query for this request.
func (r Request) query() domain.Query {
	return domain.Query{
		Symbol:     r.Symbol,
		MarketType: r.MarketType,
		Start:      r.Start,
		End:        r.End,
		Table:      r.Table,
	}
}

// params returns a fresh copy of the category parameters so a shared map on
// the caller's side is never mutated or aliased across calls.
func (r Request) params() map[string]any {
	out := make(map[string]any, len(r.CategoryParams))
	for k, v := range r.CategoryParams {
		out[k] = v
	}
	return out
}
