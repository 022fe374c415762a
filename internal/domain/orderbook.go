package domain

import "time"

// PriceLevel is a single price+volume entry on one side of an order book.
type PriceLevel struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// BookSnapshot is a full snapshot of bids and asks for a symbol at an
// instant. Bids are sorted descending by price, asks ascending, with no
// duplicate price per side.
type BookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Timestamp time.Time    `json:"timestamp"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}

// BestBid returns the highest bid level. ok is false when the side is empty.
func (s BookSnapshot) BestBid() (PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask level. ok is false when the side is empty.
func (s BookSnapshot) BestAsk() (PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

// MidPrice returns the midpoint between best bid and best ask, or 0 when
// either side is empty.
func (s BookSnapshot) MidPrice() float64 {
	bid, okBid := s.BestBid()
	ask, okAsk := s.BestAsk()
	if !okBid || !okAsk {
		return 0
	}
	return (bid.Price + ask.Price) / 2
}
