package transform

import (
	"math"
	"sort"
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// SortTrades orders trades by ascending timestamp, stable for equal
// timestamps.
func SortTrades(trades []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// TimeWindows partitions [start, end] into fixed-width half-open windows
// aligned to start and aggregates trades per window: summed volume,
// volume-weighted price, and trade count. Windows with no trades are
// emitted with zero volume/count and a nil weighted price. Trades outside
// the range are dropped; a trade exactly at a window boundary belongs to
// the later window.
func TimeWindows(trades []domain.Trade, start, end time.Time, width time.Duration) []domain.TimeBucket {
	if width <= 0 || end.Before(start) {
		return nil
	}

	span := end.Sub(start)
	n := int(span / width)
	if span%width != 0 || n == 0 {
		n++
	}

	type acc struct {
		volume   float64
		notional float64
		count    int
	}
	accs := make([]acc, n)
	for _, t := range SortTrades(trades) {
		if t.Timestamp.Before(start) || t.Timestamp.After(end) {
			continue
		}
		idx := int(t.Timestamp.Sub(start) / width)
		if idx >= n {
			// end falling exactly on a boundary: the inclusive range end
			// opens one extra window.
			grown := make([]acc, idx+1)
			copy(grown, accs)
			accs = grown
			n = idx + 1
		}
		accs[idx].volume += t.Volume
		accs[idx].notional += t.Price * t.Volume
		accs[idx].count++
	}

	out := make([]domain.TimeBucket, n)
	for i := range accs {
		b := domain.TimeBucket{
			Start:        start.Add(time.Duration(i) * width),
			End:          start.Add(time.Duration(i+1) * width),
			TradedVolume: accs[i].volume,
			TradedCount:  accs[i].count,
		}
		if accs[i].volume > 0 {
			wp := accs[i].notional / accs[i].volume
			b.WeightedPrice = &wp
		}
		out[i] = b
	}
	return out
}

// VolumeBuckets consumes trades in timestamp order, accumulating volume
// until the running bucket reaches target. A trade overflowing the target
// is split proportionally: the filling portion closes the current bucket,
// the remainder opens the next, preserving total volume exactly. A split
// trade still counts once, attributed to the bucket that received its
// largest portion (earlier bucket on ties). The final bucket may fall short
// of the target and is still emitted.
func VolumeBuckets(trades []domain.Trade, target float64) []domain.VolumeBucket {
	if target <= 0 || len(trades) == 0 {
		return nil
	}

	type acc struct {
		volume   float64
		notional float64
		count    int
		start    time.Time
		end      time.Time
		started  bool
	}
	var buckets []acc
	cur := acc{}

	touch := func(a *acc, ts time.Time) {
		if !a.started {
			a.start = ts
			a.started = true
		}
		a.end = ts
	}

	for _, t := range SortTrades(trades) {
		remaining := t.Volume
		// Portions of this trade per bucket index, for count attribution.
		type portion struct {
			bucket int // index into buckets, or -1 for the open bucket
			volume float64
		}
		var portions []portion

		for remaining > 0 {
			room := target - cur.volume
			fill := math.Min(remaining, room)
			cur.volume += fill
			cur.notional += t.Price * fill
			touch(&cur, t.Timestamp)

			if cur.volume >= target && remaining > fill {
				portions = append(portions, portion{bucket: len(buckets), volume: fill})
				buckets = append(buckets, cur)
				cur = acc{}
			} else {
				portions = append(portions, portion{bucket: -1, volume: fill})
			}
			remaining -= fill

			// A trade landing exactly on the target closes the bucket
			// without opening a new one yet.
			if remaining == 0 && cur.volume >= target {
				last := len(portions) - 1
				portions[last].bucket = len(buckets)
				buckets = append(buckets, cur)
				cur = acc{}
			}
		}

		// Attribute the count to the bucket with the largest portion;
		// earlier bucket wins ties.
		best := 0
		for i := 1; i < len(portions); i++ {
			if portions[i].volume > portions[best].volume {
				best = i
			}
		}
		if portions[best].bucket == -1 {
			cur.count++
		} else {
			buckets[portions[best].bucket].count++
		}
	}

	if cur.started {
		buckets = append(buckets, cur)
	}

	out := make([]domain.VolumeBucket, 0, len(buckets))
	for _, b := range buckets {
		vb := domain.VolumeBucket{
			TargetVolume:      target,
			AccumulatedVolume: b.volume,
			TradeCount:        b.count,
			Start:             b.start,
			End:               b.end,
		}
		if b.volume > 0 {
			vb.WeightedPrice = b.notional / b.volume
		}
		out = append(out, vb)
	}
	return out
}
