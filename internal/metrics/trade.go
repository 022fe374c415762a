package metrics

import (
	"math"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// VWAP returns the volume-weighted average price over the whole series.
func VWAP(trades []domain.Trade) domain.MetricResult {
	var volume, notional float64
	for _, t := range trades {
		volume += t.Volume
		notional += t.Price * t.Volume
	}
	if volume <= 0 {
		return domain.MetricResult{MetricID: "vwap"}
	}
	return domain.ScalarResult("vwap", notional/volume)
}

// RealizedVol returns the sample standard deviation of log returns between
// consecutive trade prices. Returns involving a non-positive price are
// skipped; fewer than two remaining returns yield a result with no value.
func RealizedVol(trades []domain.Trade) domain.MetricResult {
	var rets []float64
	for i := 1; i < len(trades); i++ {
		if trades[i-1].Price <= 0 || trades[i].Price <= 0 {
			continue
		}
		rets = append(rets, math.Log(trades[i].Price/trades[i-1].Price))
	}
	if len(rets) < 2 {
		return domain.MetricResult{MetricID: "realized_vol"}
	}
	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	var ss float64
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	return domain.ScalarResult("realized_vol", math.Sqrt(ss/float64(len(rets)-1)))
}

// TradeIntensity returns the number of trades per minute over the span
// between the first and last print. A single trade yields no value.
func TradeIntensity(trades []domain.Trade) domain.MetricResult {
	if len(trades) < 2 {
		return domain.MetricResult{MetricID: "trade_intensity"}
	}
	first, last := trades[0].Timestamp, trades[0].Timestamp
	for _, t := range trades[1:] {
		if t.Timestamp.Before(first) {
			first = t.Timestamp
		}
		if t.Timestamp.After(last) {
			last = t.Timestamp
		}
	}
	minutes := last.Sub(first).Minutes()
	if minutes <= 0 {
		return domain.MetricResult{MetricID: "trade_intensity"}
	}
	return domain.ScalarResult("trade_intensity", float64(len(trades))/minutes)
}
