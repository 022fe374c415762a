package domain

import "time"

// TradeSide is the aggressor side of a public trade, when the source
// reports it.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// Trade is a single public trade print. Sources deliver trades ordered by
// timestamp non-decreasing, but consumers must not rely on strict ordering.
type Trade struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Side      TradeSide `json:"side,omitempty"`
}

// TimeBucket is one fixed-width trade aggregation window. Windows are
// half-open [Start, End) and aligned to the request range start. Empty
// windows carry zero volume/count and a nil WeightedPrice.
type TimeBucket struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	TradedVolume  float64   `json:"traded_volume"`
	WeightedPrice *float64  `json:"weighted_price"`
	TradedCount   int       `json:"traded_count"`
}

// VolumeBucket is one volume-target trade aggregation bucket. A trade
// overflowing the running bucket is split: the filling portion closes the
// bucket, the remainder opens the next. The final bucket may be short.
type VolumeBucket struct {
	TargetVolume       float64   `json:"bucket_volume_target"`
	AccumulatedVolume  float64   `json:"accumulated_volume"`
	WeightedPrice      float64   `json:"weighted_price"`
	TradeCount         int       `json:"trade_count"`
	Start              time.Time `json:"start_ts"`
	End                time.Time `json:"end_ts"`
}
