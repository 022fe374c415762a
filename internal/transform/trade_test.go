package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantsignals/mktstruct/internal/domain"
)

func tradeAt(offset time.Duration, price, volume float64) domain.Trade {
	return domain.Trade{
		Symbol:    "BTCUSDT",
		Timestamp: base.Add(offset),
		Price:     price,
		Volume:    volume,
		Side:      domain.SideBuy,
	}
}

func TestTimeWindowsWeightedPrice(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(0, 100, 3),
		tradeAt(2*time.Minute, 102, 5),
	}

	out := TimeWindows(trades, base, base.Add(5*time.Minute), 5*time.Minute)

	require.Len(t, out, 1)
	w := out[0]
	assert.Equal(t, base, w.Start)
	assert.Equal(t, base.Add(5*time.Minute), w.End)
	assert.Equal(t, 8.0, w.TradedVolume)
	assert.Equal(t, 2, w.TradedCount)
	require.NotNil(t, w.WeightedPrice)
	// (100*3 + 102*5) / 8
	assert.InDelta(t, 101.25, *w.WeightedPrice, 1e-12)
}

func TestTimeWindowsEmptyWindowsEmitted(t *testing.T) {
	trades := []domain.Trade{tradeAt(time.Minute, 100, 1)}

	out := TimeWindows(trades, base, base.Add(15*time.Minute), 5*time.Minute)

	require.Len(t, out, 3)
	assert.Equal(t, 1, out[0].TradedCount)
	for _, w := range out[1:] {
		assert.Zero(t, w.TradedVolume)
		assert.Zero(t, w.TradedCount)
		assert.Nil(t, w.WeightedPrice)
	}
}

func TestTimeWindowsBoundaryBelongsToLaterWindow(t *testing.T) {
	trades := []domain.Trade{tradeAt(5*time.Minute, 100, 2)}

	out := TimeWindows(trades, base, base.Add(10*time.Minute), 5*time.Minute)

	require.Len(t, out, 2)
	assert.Zero(t, out[0].TradedVolume)
	assert.Equal(t, 2.0, out[1].TradedVolume)
}

func TestTimeWindowsShortFinalWindow(t *testing.T) {
	out := TimeWindows(nil, base, base.Add(7*time.Minute), 5*time.Minute)

	require.Len(t, out, 2)
	assert.Equal(t, base.Add(5*time.Minute), out[1].Start)
	assert.Equal(t, base.Add(10*time.Minute), out[1].End)
}

func TestTimeWindowsDropsOutOfRangeTrades(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(-time.Minute, 90, 1),
		tradeAt(time.Minute, 100, 2),
		tradeAt(time.Hour, 110, 3),
	}

	out := TimeWindows(trades, base, base.Add(5*time.Minute), 5*time.Minute)

	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].TradedVolume)
	assert.Equal(t, 1, out[0].TradedCount)
}

func TestTimeWindowsVolumeConservation(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(30*time.Second, 100, 1.5),
		tradeAt(4*time.Minute, 101, 2.25),
		tradeAt(6*time.Minute, 99, 0.5),
		tradeAt(9*time.Minute, 100.5, 3),
	}

	out := TimeWindows(trades, base, base.Add(10*time.Minute), 5*time.Minute)

	var total float64
	for _, w := range out {
		total += w.TradedVolume
	}
	assert.InDelta(t, 7.25, total, 1e-12)
}

func TestVolumeBucketsSplitsOverflowingTrade(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(0, 100, 4),
		tradeAt(time.Minute, 101, 4),
		tradeAt(2*time.Minute, 102, 8),
	}

	out := VolumeBuckets(trades, 10)

	require.Len(t, out, 2)

	// First bucket: 4 + 4 + 2 of the third trade.
	b := out[0]
	assert.Equal(t, 10.0, b.TargetVolume)
	assert.InDelta(t, 10.0, b.AccumulatedVolume, 1e-12)
	assert.InDelta(t, (100*4+101*4+102*2)/10.0, b.WeightedPrice, 1e-12)
	// The split trade's larger portion (6) lands in the second bucket, so
	// the first keeps only the first two trades' count.
	assert.Equal(t, 2, b.TradeCount)
	assert.Equal(t, base, b.Start)
	assert.Equal(t, base.Add(2*time.Minute), b.End)

	b = out[1]
	assert.InDelta(t, 6.0, b.AccumulatedVolume, 1e-12)
	assert.InDelta(t, 102.0, b.WeightedPrice, 1e-12)
	assert.Equal(t, 1, b.TradeCount)
	assert.Equal(t, base.Add(2*time.Minute), b.Start)
}

func TestVolumeBucketsSplitTieGoesToEarlierBucket(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(0, 100, 4),
		tradeAt(time.Minute, 101, 8), // splits 4/4
	}

	out := VolumeBuckets(trades, 8)

	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].TradeCount)
	assert.Equal(t, 0, out[1].TradeCount)
	assert.InDelta(t, 8.0, out[0].AccumulatedVolume, 1e-12)
	assert.InDelta(t, 4.0, out[1].AccumulatedVolume, 1e-12)
}

func TestVolumeBucketsTradeSpansManyBuckets(t *testing.T) {
	trades := []domain.Trade{tradeAt(0, 100, 25)}

	out := VolumeBuckets(trades, 10)

	require.Len(t, out, 3)
	assert.InDelta(t, 10.0, out[0].AccumulatedVolume, 1e-12)
	assert.InDelta(t, 10.0, out[1].AccumulatedVolume, 1e-12)
	assert.InDelta(t, 5.0, out[2].AccumulatedVolume, 1e-12)
	// Largest portion tie between the two full buckets: counted once, in
	// the first.
	assert.Equal(t, 1, out[0].TradeCount)
	assert.Equal(t, 0, out[1].TradeCount)
	assert.Equal(t, 0, out[2].TradeCount)
	for _, b := range out {
		assert.Equal(t, base, b.Start)
		assert.Equal(t, base, b.End)
	}
}

func TestVolumeBucketsExactFillClosesBucket(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(0, 100, 5),
		tradeAt(time.Minute, 101, 5),
		tradeAt(2*time.Minute, 102, 3),
	}

	out := VolumeBuckets(trades, 10)

	require.Len(t, out, 2)
	assert.InDelta(t, 10.0, out[0].AccumulatedVolume, 1e-12)
	assert.Equal(t, 2, out[0].TradeCount)
	assert.InDelta(t, 3.0, out[1].AccumulatedVolume, 1e-12)
	assert.Equal(t, 1, out[1].TradeCount)
}

func TestVolumeBucketsFinalShortBucketEmitted(t *testing.T) {
	trades := []domain.Trade{tradeAt(0, 100, 3)}

	out := VolumeBuckets(trades, 10)

	require.Len(t, out, 1)
	assert.InDelta(t, 3.0, out[0].AccumulatedVolume, 1e-12)
	assert.Equal(t, 1, out[0].TradeCount)
}

func TestVolumeBucketsVolumeConservation(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(0, 100, 2.5),
		tradeAt(time.Minute, 101.5, 7.25),
		tradeAt(2*time.Minute, 99.75, 4),
		tradeAt(3*time.Minute, 100.25, 11.5),
	}

	out := VolumeBuckets(trades, 6)

	var volume float64
	var count int
	for _, b := range out {
		volume += b.AccumulatedVolume
		count += b.TradeCount
	}
	assert.InDelta(t, 25.25, volume, 1e-9)
	assert.Equal(t, len(trades), count)
}
