// Package transform implements the data transformation engine: time
// sampling and price aggregation for order-book snapshots, and time/volume
// bucketing for public trades. All functions are pure over request-local
// data and safe to call from concurrent requests.
package transform

import (
	"math"
	"sort"
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// BinType selects how price-aggregation bins are sized.
type BinType string

const (
	// BinBps sizes each bin as a fixed number of basis points of the best
	// price on that side; bins tile outward from the best price.
	BinBps BinType = "bps"
	// BinCount merges a fixed number of consecutive levels per bin
	// regardless of their price spacing.
	BinCount BinType = "count"
)

// SortBooks orders snapshots by ascending timestamp. Sources deliver
// records roughly ordered but nothing downstream may rely on that, so every
// transformation sorts first. The sort is stable to keep equal-timestamp
// snapshots in delivery order.
func SortBooks(snaps []domain.BookSnapshot) []domain.BookSnapshot {
	out := make([]domain.BookSnapshot, len(snaps))
	copy(out, snaps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SampleBooks selects one snapshot per sample instant over [start, end] at
// step freq. For each instant t it picks the snapshot with the greatest
// timestamp <= t (closest prior, never interpolated); instants before the
// first snapshot produce no output. The result is ordered by sample time.
func SampleBooks(snaps []domain.BookSnapshot, start, end time.Time, freq time.Duration) []domain.BookSnapshot {
	if freq <= 0 || end.Before(start) || len(snaps) == 0 {
		return nil
	}
	sorted := SortBooks(snaps)

	var out []domain.BookSnapshot
	i := 0
	for t := start; !t.After(end); t = t.Add(freq) {
		// Advance to the last snapshot at or before t.
		for i < len(sorted) && !sorted[i].Timestamp.After(t) {
			i++
		}
		if i == 0 {
			continue
		}
		out = append(out, sorted[i-1])
	}
	return out
}

// BinBooks re-bins every snapshot's sides. With BinBps, binsize is the bin
// width in basis points of the side's best price; with BinCount, binsize is
// the number of consecutive levels merged per bin. Each bin's volume is the
// sum of its constituent level volumes and its price is the constituent
// closest to the best price (lower index wins ties). Empty bins are
// omitted, so level counts never increase.
func BinBooks(snaps []domain.BookSnapshot, bintype BinType, binsize float64) []domain.BookSnapshot {
	out := make([]domain.BookSnapshot, 0, len(snaps))
	for _, s := range SortBooks(snaps) {
		binned := domain.BookSnapshot{
			Symbol:    s.Symbol,
			Timestamp: s.Timestamp,
			Bids:      binSide(s.Bids, bintype, binsize),
			Asks:      binSide(s.Asks, bintype, binsize),
		}
		out = append(out, binned)
	}
	return out
}

// binSide aggregates one side's levels. Levels arrive ordered by distance
// from the best price (bids descending, asks ascending), so within any bin
// the first constituent is the one closest to the best price.
func binSide(levels []domain.PriceLevel, bintype BinType, binsize float64) []domain.PriceLevel {
	if len(levels) == 0 {
		return nil
	}
	switch bintype {
	case BinCount:
		return binByCount(levels, int(binsize))
	case BinBps:
		return binByBps(levels, binsize)
	default:
		return nil
	}
}

// binByCount merges each run of k consecutive levels into one bin. With n
// levels the output has ceil(n/k) bins; k=1 reproduces the input.
func binByCount(levels []domain.PriceLevel, k int) []domain.PriceLevel {
	if k <= 0 {
		return nil
	}
	bins := make([]domain.PriceLevel, 0, (len(levels)+k-1)/k)
	for i := 0; i < len(levels); i += k {
		j := i + k
		if j > len(levels) {
			j = len(levels)
		}
		bin := domain.PriceLevel{Price: levels[i].Price}
		for _, lvl := range levels[i:j] {
			bin.Volume += lvl.Volume
		}
		bins = append(bins, bin)
	}
	return bins
}

// binByBps tiles fixed-width bins outward from the best price, width =
// binsize bps of the best price. Levels map to bins by their absolute
// distance from the best; empty bins are dropped.
func binByBps(levels []domain.PriceLevel, bps float64) []domain.PriceLevel {
	best := levels[0].Price
	width := best * bps / 10000
	if width <= 0 {
		return nil
	}

	// Bin index -> aggregate, preserving first-seen (closest) price.
	type bin struct {
		price  float64
		volume float64
		filled bool
	}
	byIdx := map[int]*bin{}
	maxIdx := 0
	for _, lvl := range levels {
		idx := int(math.Floor(math.Abs(best-lvl.Price) / width))
		b, ok := byIdx[idx]
		if !ok {
			b = &bin{}
			byIdx[idx] = b
		}
		if !b.filled {
			b.price = lvl.Price
			b.filled = true
		}
		b.volume += lvl.Volume
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	bins := make([]domain.PriceLevel, 0, len(byIdx))
	for idx := 0; idx <= maxIdx; idx++ {
		if b, ok := byIdx[idx]; ok {
			bins = append(bins, domain.PriceLevel{Price: b.price, Volume: b.volume})
		}
	}
	return bins
}
