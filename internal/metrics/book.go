package metrics

import (
	"github.com/quantsignals/mktstruct/internal/domain"
)

// defaultDepthBps is the half-width, in basis points around the mid price,
// of the depth metric's notional window.
const defaultDepthBps = 50.0

// Spread returns the best ask minus best bid per snapshot. Snapshots with
// an empty side are skipped.
func Spread(snaps []domain.BookSnapshot) domain.MetricResult {
	var pts []domain.MetricPoint
	for _, s := range snaps {
		bid, okBid := s.BestBid()
		ask, okAsk := s.BestAsk()
		if !okBid || !okAsk {
			continue
		}
		pts = append(pts, domain.MetricPoint{Timestamp: s.Timestamp, Value: ask.Price - bid.Price})
	}
	return domain.SeriesResult("spread", pts)
}

// MidPrice returns the bid/ask midpoint per snapshot.
func MidPrice(snaps []domain.BookSnapshot) domain.MetricResult {
	var pts []domain.MetricPoint
	for _, s := range snaps {
		mid := s.MidPrice()
		if mid <= 0 {
			continue
		}
		pts = append(pts, domain.MetricPoint{Timestamp: s.Timestamp, Value: mid})
	}
	return domain.SeriesResult("mid_price", pts)
}

// Imbalance returns the ratio of bid notional to ask notional per snapshot.
// A ratio above 1 means more resting bid value than ask value.
func Imbalance(snaps []domain.BookSnapshot) domain.MetricResult {
	var pts []domain.MetricPoint
	for _, s := range snaps {
		var bidVol, askVol float64
		for _, l := range s.Bids {
			bidVol += l.Price * l.Volume
		}
		for _, l := range s.Asks {
			askVol += l.Price * l.Volume
		}
		if bidVol <= 0 || askVol <= 0 {
			continue
		}
		pts = append(pts, domain.MetricPoint{Timestamp: s.Timestamp, Value: bidVol / askVol})
	}
	return domain.SeriesResult("imbalance", pts)
}

// DepthWithin builds a metric returning the total notional resting within
// +/- bps basis points of the mid price, per snapshot.
func DepthWithin(bps float64) BookMetric {
	return func(snaps []domain.BookSnapshot) domain.MetricResult {
		var pts []domain.MetricPoint
		for _, s := range snaps {
			mid := s.MidPrice()
			if mid <= 0 {
				continue
			}
			band := mid * bps / 10000
			var notional float64
			for _, l := range s.Bids {
				if mid-l.Price <= band {
					notional += l.Price * l.Volume
				}
			}
			for _, l := range s.Asks {
				if l.Price-mid <= band {
					notional += l.Price * l.Volume
				}
			}
			pts = append(pts, domain.MetricPoint{Timestamp: s.Timestamp, Value: notional})
		}
		return domain.SeriesResult("depth", pts)
	}
}
