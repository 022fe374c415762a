// Package export writes formatted transformation results to files. It
// mirrors a saver-per-format layout: json and csv on the standard encoders,
// parquet via parquet-go.
package export

import (
	"fmt"
	"sort"

	"github.com/quantsignals/mktstruct/internal/domain"
	"github.com/quantsignals/mktstruct/internal/format"
)

// Saver persists one dataset to a file.
type Saver interface {
	Extension() string
	Save(ds *format.Dataset, path string) error
}

// ForFormat returns the saver for a file format name.
func ForFormat(name string) (Saver, error) {
	switch name {
	case "json":
		return JSONSaver{}, nil
	case "csv":
		return CSVSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	default:
		return nil, fmt.Errorf("export: unknown file format %q", name)
	}
}

// Flat row shapes shared by the csv and parquet savers.

type bookLevelRow struct {
	Timestamp int64   `parquet:"ts" json:"ts"`
	Side      string  `parquet:"side" json:"side"`
	Price     float64 `parquet:"price" json:"price"`
	Volume    float64 `parquet:"volume" json:"volume"`
}

type tradeRow struct {
	Timestamp int64   `parquet:"ts" json:"ts"`
	Price     float64 `parquet:"price" json:"price"`
	Volume    float64 `parquet:"volume" json:"volume"`
	Side      string  `parquet:"side" json:"side"`
}

type timeBucketRow struct {
	Start         int64    `parquet:"start" json:"start"`
	End           int64    `parquet:"end" json:"end"`
	TradedVolume  float64  `parquet:"traded_volume" json:"traded_volume"`
	WeightedPrice *float64 `parquet:"weighted_price,optional" json:"weighted_price"`
	TradedCount   int64    `parquet:"traded_count" json:"traded_count"`
}

type volumeBucketRow struct {
	Start             int64   `parquet:"start_ts" json:"start_ts"`
	End               int64   `parquet:"end_ts" json:"end_ts"`
	TargetVolume      float64 `parquet:"bucket_volume_target" json:"bucket_volume_target"`
	AccumulatedVolume float64 `parquet:"accumulated_volume" json:"accumulated_volume"`
	WeightedPrice     float64 `parquet:"weighted_price" json:"weighted_price"`
	TradeCount        int64   `parquet:"trade_count" json:"trade_count"`
}

type metricRow struct {
	MetricID  string  `parquet:"metric_id" json:"metric_id"`
	Timestamp int64   `parquet:"ts" json:"ts"`
	Value     float64 `parquet:"value" json:"value"`
}

func bookRows(snaps []domain.BookSnapshot) []bookLevelRow {
	var rows []bookLevelRow
	for _, s := range snaps {
		ts := s.Timestamp.UnixMilli()
		for _, l := range s.Bids {
			rows = append(rows, bookLevelRow{Timestamp: ts, Side: "bid", Price: l.Price, Volume: l.Volume})
		}
		for _, l := range s.Asks {
			rows = append(rows, bookLevelRow{Timestamp: ts, Side: "ask", Price: l.Price, Volume: l.Volume})
		}
	}
	return rows
}

func tradeRows(trades []domain.Trade) []tradeRow {
	rows := make([]tradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, tradeRow{
			Timestamp: t.Timestamp.UnixMilli(),
			Price:     t.Price,
			Volume:    t.Volume,
			Side:      string(t.Side),
		})
	}
	return rows
}

func timeBucketRows(buckets []domain.TimeBucket) []timeBucketRow {
	rows := make([]timeBucketRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, timeBucketRow{
			Start:         b.Start.UnixMilli(),
			End:           b.End.UnixMilli(),
			TradedVolume:  b.TradedVolume,
			WeightedPrice: b.WeightedPrice,
			TradedCount:   int64(b.TradedCount),
		})
	}
	return rows
}

func volumeBucketRows(buckets []domain.VolumeBucket) []volumeBucketRow {
	rows := make([]volumeBucketRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, volumeBucketRow{
			Start:             b.Start.UnixMilli(),
			End:               b.End.UnixMilli(),
			TargetVolume:      b.TargetVolume,
			AccumulatedVolume: b.AccumulatedVolume,
			WeightedPrice:     b.WeightedPrice,
			TradeCount:        int64(b.TradeCount),
		})
	}
	return rows
}

func metricRows(results map[string]domain.MetricResult) []metricRow {
	var rows []metricRow
	for _, id := range sortedIDs(results) {
		res := results[id]
		if res.Scalar != nil {
			rows = append(rows, metricRow{MetricID: id, Value: *res.Scalar})
			continue
		}
		for _, p := range res.Series {
			rows = append(rows, metricRow{MetricID: id, Timestamp: p.Timestamp.UnixMilli(), Value: p.Value})
		}
	}
	return rows
}

func sortedIDs(m map[string]domain.MetricResult) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
