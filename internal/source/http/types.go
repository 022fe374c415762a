package httpsource

import (
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// apiLevel is one [price, volume] pair as served by the endpoint.
type apiLevel struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// apiBook is the wire shape of an order-book snapshot. Timestamps are unix
// milliseconds.
type apiBook struct {
	Timestamp int64      `json:"ts"`
	Bids      []apiLevel `json:"bids"`
	Asks      []apiLevel `json:"asks"`
}

func (b *apiBook) toDomain(symbol string) domain.BookSnapshot {
	snap := domain.BookSnapshot{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(b.Timestamp).UTC(),
		Bids:      make([]domain.PriceLevel, 0, len(b.Bids)),
		Asks:      make([]domain.PriceLevel, 0, len(b.Asks)),
	}
	for _, l := range b.Bids {
		snap.Bids = append(snap.Bids, domain.PriceLevel{Price: l.Price, Volume: l.Volume})
	}
	for _, l := range b.Asks {
		snap.Asks = append(snap.Asks, domain.PriceLevel{Price: l.Price, Volume: l.Volume})
	}
	return snap
}

// apiTrade is the wire shape of a public trade print.
type apiTrade struct {
	Timestamp int64   `json:"ts"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Side      string  `json:"side,omitempty"`
}

func (t *apiTrade) toDomain(symbol string) domain.Trade {
	return domain.Trade{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(t.Timestamp).UTC(),
		Price:     t.Price,
		Volume:    t.Volume,
		Side:      domain.TradeSide(t.Side),
	}
}
