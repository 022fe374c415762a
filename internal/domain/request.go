package domain

import "time"

// EntityKind selects which transformer family applies to a request.
type EntityKind string

const (
	KindOrderBook EntityKind = "orderbook"
	KindTrade     EntityKind = "trade"
)

// Valid reports whether the kind is one of the supported entity kinds.
func (k EntityKind) Valid() bool {
	return k == KindOrderBook || k == KindTrade
}

// Category selects the transformation applied to fetched records.
type Category string

const (
	CategoryRaw        Category = "raw"
	CategoryTimeSample Category = "time-sampled"
	CategoryPriceAgg   Category = "price-aggregated"
	CategoryVolumeAgg  Category = "volume-aggregated"
	CategoryMetrics    Category = "metrics"
)

// Categories returns the categories supported for the given entity kind.
func Categories(kind EntityKind) []Category {
	switch kind {
	case KindOrderBook:
		return []Category{CategoryRaw, CategoryTimeSample, CategoryPriceAgg, CategoryMetrics}
	case KindTrade:
		return []Category{CategoryRaw, CategoryTimeSample, CategoryVolumeAgg, CategoryMetrics}
	default:
		return nil
	}
}

// OutputFormat is the requested result container shape.
type OutputFormat string

const (
	FormatRecords OutputFormat = "records"
	FormatArray   OutputFormat = "array"
	FormatTable   OutputFormat = "table"
)

// Query identifies the raw records a source adapter must fetch. Table is an
// optional explicit source-table override; Params carries free-form
// adapter-specific call parameters.
type Query struct {
	Symbol     string
	MarketType string
	Start      time.Time
	End        time.Time
	Table      string
	Params     map[string]string
}
