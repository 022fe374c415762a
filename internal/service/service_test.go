package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantsignals/mktstruct/internal/domain"
	"github.com/quantsignals/mktstruct/internal/metrics"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// stubSource serves canned series keyed by symbol and records the queries it
// receives. Batch fetches concurrently, so recording is locked.
type stubSource struct {
	books  map[string][]domain.BookSnapshot
	trades map[string][]domain.Trade
	err    error

	mu      sync.Mutex
	queries []domain.Query
}

func (s *stubSource) record(q domain.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
}

func (s *stubSource) recorded() []domain.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Query(nil), s.queries...)
}

func (s *stubSource) FetchOrderBooks(_ context.Context, q domain.Query) ([]domain.BookSnapshot, error) {
	s.record(q)
	if s.err != nil {
		return nil, s.err
	}
	return s.books[q.Symbol], nil
}

func (s *stubSource) FetchTrades(_ context.Context, q domain.Query) ([]domain.Trade, error) {
	s.record(q)
	if s.err != nil {
		return nil, s.err
	}
	return s.trades[q.Symbol], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine() *metrics.Engine {
	return metrics.NewEngine(metrics.Default())
}

func bookFixture(sym string) []domain.BookSnapshot {
	return []domain.BookSnapshot{
		{
			Symbol:    sym,
			Timestamp: base.Add(time.Minute),
			Bids:      []domain.PriceLevel{{Price: 99, Volume: 1}},
			Asks:      []domain.PriceLevel{{Price: 101, Volume: 1}},
		},
		{
			Symbol:    sym,
			Timestamp: base,
			Bids:      []domain.PriceLevel{{Price: 99.5, Volume: 1}},
			Asks:      []domain.PriceLevel{{Price: 100.5, Volume: 1}},
		},
	}
}

func tradeFixture(sym string) []domain.Trade {
	return []domain.Trade{
		{Symbol: sym, Timestamp: base, Price: 100, Volume: 3, Side: domain.SideBuy},
		{Symbol: sym, Timestamp: base.Add(2 * time.Minute), Price: 102, Volume: 5, Side: domain.SideSell},
	}
}

func TestOrderBooksTransformRawSortsByTime(t *testing.T) {
	src := &stubSource{books: map[string][]domain.BookSnapshot{"BTCUSDT": bookFixture("BTCUSDT")}}
	f := NewOrderBooks(src, testEngine(), testLogger())

	out, err := f.Transform(context.Background(), Request{
		Symbol:   "BTCUSDT",
		Start:    base,
		End:      base.Add(time.Hour),
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
	})

	require.NoError(t, err)
	require.NotNil(t, out.Records)
	require.Len(t, out.Records.Books, 2)
	assert.Equal(t, base, out.Records.Books[0].Timestamp)
	assert.Equal(t, base.Add(time.Minute), out.Records.Books[1].Timestamp)
}

func TestOrderBooksTransformValidatesBeforeFetching(t *testing.T) {
	src := &stubSource{}
	f := NewOrderBooks(src, testEngine(), testLogger())

	_, err := f.Transform(context.Background(), Request{
		Symbol:   "BTCUSDT",
		Category: domain.CategoryVolumeAgg,
		Output:   domain.FormatRecords,
	})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, src.recorded())
}

func TestOrderBooksTransformEmptyResult(t *testing.T) {
	f := NewOrderBooks(&stubSource{}, testEngine(), testLogger())

	_, err := f.Transform(context.Background(), Request{
		Symbol:   "NOSUCH",
		Start:    base,
		End:      base.Add(time.Hour),
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
	})

	var eerr *domain.EmptyResultError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "NOSUCH", eerr.Symbol)
	assert.Equal(t, domain.KindOrderBook, eerr.Kind)
}

func TestOrderBooksTransformWrapsSourceError(t *testing.T) {
	cause := errors.New("connection refused")
	f := NewOrderBooks(&stubSource{err: cause}, testEngine(), testLogger())

	_, err := f.Transform(context.Background(), Request{
		Symbol:   "BTCUSDT",
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
	})

	require.ErrorIs(t, err, cause)
}

func TestOrderBooksTransformMetricsPartialSuccess(t *testing.T) {
	src := &stubSource{books: map[string][]domain.BookSnapshot{"BTCUSDT": bookFixture("BTCUSDT")}}
	f := NewOrderBooks(src, testEngine(), testLogger())

	out, err := f.Transform(context.Background(), Request{
		Symbol:         "BTCUSDT",
		Category:       domain.CategoryMetrics,
		CategoryParams: map[string]any{"metrics": []string{"spread", "bogus"}},
		Output:         domain.FormatRecords,
	})

	var uerr *domain.UnknownMetricError
	require.True(t, errors.As(err, &uerr))
	require.NotNil(t, out)
	assert.Contains(t, out.Records.Metrics, "spread")
}

func TestOrderBooksGetDataInplace(t *testing.T) {
	src := &stubSource{books: map[string][]domain.BookSnapshot{"BTCUSDT": bookFixture("BTCUSDT")}}
	f := NewOrderBooks(src, testEngine(), testLogger())
	req := Request{
		Symbol:   "BTCUSDT",
		Start:    base,
		End:      base.Add(time.Hour),
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
		Inplace:  true,
	}

	require.Nil(t, f.Latest())

	out, err := f.GetData(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, out.Ack)
	assert.Nil(t, out.Records)

	stored := f.Latest()
	require.NotNil(t, stored)
	assert.Len(t, stored.Records.Books, 2)
}

func TestOrderBooksGetDataReturnsDirectlyWithoutInplace(t *testing.T) {
	src := &stubSource{books: map[string][]domain.BookSnapshot{"BTCUSDT": bookFixture("BTCUSDT")}}
	f := NewOrderBooks(src, testEngine(), testLogger())

	out, err := f.GetData(context.Background(), Request{
		Symbol:   "BTCUSDT",
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
	})

	require.NoError(t, err)
	assert.False(t, out.Ack)
	assert.NotNil(t, out.Records)
	assert.Nil(t, f.Latest())
}

func TestOrderBooksBatch(t *testing.T) {
	src := &stubSource{books: map[string][]domain.BookSnapshot{
		"BTCUSDT": bookFixture("BTCUSDT"),
		"ETHUSDT": bookFixture("ETHUSDT"),
	}}
	f := NewOrderBooks(src, testEngine(), testLogger())

	results, err := f.Batch(context.Background(), []string{"BTCUSDT", "ETHUSDT"}, Request{
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
	}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "BTCUSDT", results["BTCUSDT"].Records.Books[0].Symbol)
	assert.Equal(t, "ETHUSDT", results["ETHUSDT"].Records.Books[0].Symbol)
	assert.Len(t, src.recorded(), 2)
}

func TestOrderBooksBatchFailsOnAnyError(t *testing.T) {
	src := &stubSource{books: map[string][]domain.BookSnapshot{"BTCUSDT": bookFixture("BTCUSDT")}}
	f := NewOrderBooks(src, testEngine(), testLogger())

	_, err := f.Batch(context.Background(), []string{"BTCUSDT", "NOSUCH"}, Request{
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
	}, 0)

	var eerr *domain.EmptyResultError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "NOSUCH", eerr.Symbol)
}

func TestPublicTradesTransformTimeSampled(t *testing.T) {
	src := &stubSource{trades: map[string][]domain.Trade{"BTCUSDT": tradeFixture("BTCUSDT")}}
	f := NewPublicTrades(src, testEngine(), testLogger())

	out, err := f.Transform(context.Background(), Request{
		Symbol:         "BTCUSDT",
		Start:          base,
		End:            base.Add(5 * time.Minute),
		Category:       domain.CategoryTimeSample,
		CategoryParams: map[string]any{"frequency": "5m"},
		Output:         domain.FormatRecords,
	})

	require.NoError(t, err)
	require.Len(t, out.Records.TimeBuckets, 1)
	w := out.Records.TimeBuckets[0]
	assert.Equal(t, 8.0, w.TradedVolume)
	require.NotNil(t, w.WeightedPrice)
	assert.InDelta(t, 101.25, *w.WeightedPrice, 1e-12)
}

func TestPublicTradesTransformVolumeAggregated(t *testing.T) {
	src := &stubSource{trades: map[string][]domain.Trade{"BTCUSDT": tradeFixture("BTCUSDT")}}
	f := NewPublicTrades(src, testEngine(), testLogger())

	out, err := f.Transform(context.Background(), Request{
		Symbol:         "BTCUSDT",
		Start:          base,
		End:            base.Add(time.Hour),
		Category:       domain.CategoryVolumeAgg,
		CategoryParams: map[string]any{"bucket_volume": 6.0},
		Output:         domain.FormatRecords,
	})

	require.NoError(t, err)
	require.Len(t, out.Records.VolumeBuckets, 2)
	assert.InDelta(t, 6.0, out.Records.VolumeBuckets[0].AccumulatedVolume, 1e-12)
	assert.InDelta(t, 2.0, out.Records.VolumeBuckets[1].AccumulatedVolume, 1e-12)
}

func TestPublicTradesTransformPassesTableOverride(t *testing.T) {
	src := &stubSource{trades: map[string][]domain.Trade{"BTCUSDT": tradeFixture("BTCUSDT")}}
	f := NewPublicTrades(src, testEngine(), testLogger())

	_, err := f.Transform(context.Background(), Request{
		Symbol:   "BTCUSDT",
		Table:    "trades_archive",
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
	})

	require.NoError(t, err)
	queries := src.recorded()
	require.Len(t, queries, 1)
	assert.Equal(t, "trades_archive", queries[0].Table)
}

func TestPublicTradesInplaceStoreReplacesPrevious(t *testing.T) {
	src := &stubSource{trades: map[string][]domain.Trade{"BTCUSDT": tradeFixture("BTCUSDT")}}
	f := NewPublicTrades(src, testEngine(), testLogger())
	req := Request{
		Symbol:   "BTCUSDT",
		Start:    base,
		End:      base.Add(time.Hour),
		Category: domain.CategoryRaw,
		Output:   domain.FormatRecords,
		Inplace:  true,
	}

	_, err := f.GetData(context.Background(), req)
	require.NoError(t, err)
	first := f.Latest()

	_, err = f.GetData(context.Background(), req)
	require.NoError(t, err)

	assert.NotSame(t, first, f.Latest())
}

func TestRequestParamsCopy(t *testing.T) {
	shared := map[string]any{"frequency": "5m"}
	r := Request{CategoryParams: shared}

	p := r.params()
	p["frequency"] = "1m"

	assert.Equal(t, "5m", shared["frequency"])
}
