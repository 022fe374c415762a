// Package format converts the internal normalized transformation result
// into the caller's requested container shape: structured records, columnar
// arrays, or a flat table.
package format

import (
	"sort"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// Dataset is the normalized result of one transformation. Exactly one of
// the payload slices (or the Metrics map) is populated, matching Category.
type Dataset struct {
	Kind          domain.EntityKind              `json:"kind"`
	Category      domain.Category                `json:"category"`
	Books         []domain.BookSnapshot          `json:"books,omitempty"`
	Trades        []domain.Trade                 `json:"trades,omitempty"`
	TimeBuckets   []domain.TimeBucket            `json:"time_buckets,omitempty"`
	VolumeBuckets []domain.VolumeBucket          `json:"volume_buckets,omitempty"`
	Metrics       map[string]domain.MetricResult `json:"metrics,omitempty"`
}

// Table is the tabular output shape: ordered column names plus rows of
// cells aligned to them.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Output is the formatted result returned to the caller. Exactly one of
// Records, Array, or Table is set, matching Format. Ack outputs carry no
// payload and acknowledge an inplace store.
type Output struct {
	Kind    domain.EntityKind    `json:"kind"`
	Format  domain.OutputFormat  `json:"format"`
	Records *Dataset             `json:"records,omitempty"`
	Array   map[string][]float64 `json:"array,omitempty"`
	Table   *Table               `json:"table,omitempty"`
	Ack     bool                 `json:"ack,omitempty"`
}

// Format shapes the dataset into the requested container. It returns an
// UnsupportedFormatError when the shape is not implemented for the
// dataset's content (full order-book snapshots have no columnar form).
func Format(ds *Dataset, f domain.OutputFormat) (*Output, error) {
	switch f {
	case domain.FormatRecords:
		return &Output{Kind: ds.Kind, Format: f, Records: ds}, nil
	case domain.FormatArray:
		arr, err := toArray(ds)
		if err != nil {
			return nil, err
		}
		return &Output{Kind: ds.Kind, Format: f, Array: arr}, nil
	case domain.FormatTable:
		return &Output{Kind: ds.Kind, Format: f, Table: toTable(ds)}, nil
	default:
		return nil, &domain.UnsupportedFormatError{Kind: ds.Kind, Format: f}
	}
}

// Ack returns the acknowledgement output used when a request stores its
// result on the facade instead of returning it.
func Ack(kind domain.EntityKind) *Output {
	return &Output{Kind: kind, Format: domain.FormatRecords, Ack: true}
}

// toArray produces named float64 columns. Nested snapshot structures have
// no columnar representation; requesting them as arrays is unsupported.
func toArray(ds *Dataset) (map[string][]float64, error) {
	arr := make(map[string][]float64)
	switch {
	case ds.Books != nil:
		return nil, &domain.UnsupportedFormatError{Kind: ds.Kind, Format: domain.FormatArray}
	case ds.TimeBuckets != nil:
		for _, b := range ds.TimeBuckets {
			arr["start"] = append(arr["start"], float64(b.Start.UnixMilli()))
			arr["end"] = append(arr["end"], float64(b.End.UnixMilli()))
			arr["traded_volume"] = append(arr["traded_volume"], b.TradedVolume)
			wp := 0.0
			if b.WeightedPrice != nil {
				wp = *b.WeightedPrice
			}
			arr["weighted_price"] = append(arr["weighted_price"], wp)
			arr["traded_count"] = append(arr["traded_count"], float64(b.TradedCount))
		}
	case ds.VolumeBuckets != nil:
		for _, b := range ds.VolumeBuckets {
			arr["start_ts"] = append(arr["start_ts"], float64(b.Start.UnixMilli()))
			arr["end_ts"] = append(arr["end_ts"], float64(b.End.UnixMilli()))
			arr["bucket_volume_target"] = append(arr["bucket_volume_target"], b.TargetVolume)
			arr["accumulated_volume"] = append(arr["accumulated_volume"], b.AccumulatedVolume)
			arr["weighted_price"] = append(arr["weighted_price"], b.WeightedPrice)
			arr["trade_count"] = append(arr["trade_count"], float64(b.TradeCount))
		}
	case ds.Metrics != nil:
		for _, id := range sortedMetricIDs(ds.Metrics) {
			res := ds.Metrics[id]
			if res.Scalar != nil {
				arr[id] = []float64{*res.Scalar}
				continue
			}
			for _, p := range res.Series {
				arr[id+".ts"] = append(arr[id+".ts"], float64(p.Timestamp.UnixMilli()))
				arr[id] = append(arr[id], p.Value)
			}
		}
	case ds.Trades != nil:
		for _, t := range ds.Trades {
			arr["ts"] = append(arr["ts"], float64(t.Timestamp.UnixMilli()))
			arr["price"] = append(arr["price"], t.Price)
			arr["volume"] = append(arr["volume"], t.Volume)
		}
	}
	return arr, nil
}

// toTable flattens the dataset into a single table. Order books emit one
// row per level.
func toTable(ds *Dataset) *Table {
	switch {
	case ds.Books != nil:
		t := &Table{Columns: []string{"timestamp", "side", "price", "volume"}}
		for _, s := range ds.Books {
			for _, l := range s.Bids {
				t.Rows = append(t.Rows, []any{s.Timestamp, "bid", l.Price, l.Volume})
			}
			for _, l := range s.Asks {
				t.Rows = append(t.Rows, []any{s.Timestamp, "ask", l.Price, l.Volume})
			}
		}
		return t
	case ds.TimeBuckets != nil:
		t := &Table{Columns: []string{"start", "end", "traded_volume", "weighted_price", "traded_count"}}
		for _, b := range ds.TimeBuckets {
			var wp any
			if b.WeightedPrice != nil {
				wp = *b.WeightedPrice
			}
			t.Rows = append(t.Rows, []any{b.Start, b.End, b.TradedVolume, wp, b.TradedCount})
		}
		return t
	case ds.VolumeBuckets != nil:
		t := &Table{Columns: []string{"start_ts", "end_ts", "bucket_volume_target", "accumulated_volume", "weighted_price", "trade_count"}}
		for _, b := range ds.VolumeBuckets {
			t.Rows = append(t.Rows, []any{b.Start, b.End, b.TargetVolume, b.AccumulatedVolume, b.WeightedPrice, b.TradeCount})
		}
		return t
	case ds.Metrics != nil:
		t := &Table{Columns: []string{"metric_id", "timestamp", "value"}}
		for _, id := range sortedMetricIDs(ds.Metrics) {
			res := ds.Metrics[id]
			if res.Scalar != nil {
				t.Rows = append(t.Rows, []any{id, nil, *res.Scalar})
				continue
			}
			for _, p := range res.Series {
				t.Rows = append(t.Rows, []any{id, p.Timestamp, p.Value})
			}
		}
		return t
	case ds.Trades != nil:
		t := &Table{Columns: []string{"timestamp", "price", "volume", "side"}}
		for _, tr := range ds.Trades {
			t.Rows = append(t.Rows, []any{tr.Timestamp, tr.Price, tr.Volume, string(tr.Side)})
		}
		return t
	default:
		return &Table{}
	}
}

func sortedMetricIDs(m map[string]domain.MetricResult) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
