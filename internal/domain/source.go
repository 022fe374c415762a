package domain

import "context"

// Source is the pluggable data-source contract. Implementations perform the
// actual fetch (HTTP endpoint, database, object archive) and return raw
// records convertible to the domain types. An empty range returns an empty
// slice and a nil error; deciding what an empty result means is the
// caller's concern. Fetch failures propagate unchanged: the core adds no
// retry logic.
type Source interface {
	FetchOrderBooks(ctx context.Context, q Query) ([]BookSnapshot, error)
	FetchTrades(ctx context.Context, q Query) ([]Trade, error)
}
