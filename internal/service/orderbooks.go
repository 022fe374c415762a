package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quantsignals/mktstruct/internal/dispatch"
	"github.com/quantsignals/mktstruct/internal/domain"
	"github.com/quantsignals/mktstruct/internal/format"
	"github.com/quantsignals/mktstruct/internal/metrics"
	"github.com/quantsignals/mktstruct/internal/transform"
)

// OrderBooks is the entry point for order-book data. It is single-owner:
// the stored result is not synchronized, so a facade instance must not be
// shared across concurrent GetData calls. Batch requests run on
// independent request-local data and are safe.
type OrderBooks struct {
	source domain.Source
	engine *metrics.Engine
	logger *slog.Logger
	latest *format.Output
}

// NewOrderBooks creates the order-book facade.
func NewOrderBooks(source domain.Source, engine *metrics.Engine, logger *slog.Logger) *OrderBooks {
	return &OrderBooks{
		source: source,
		engine: engine,
		logger: logger.With(slog.String("component", "orderbooks")),
	}
}

// Transform runs the full pipeline and returns the formatted result. It is
// pure with respect to the facade: no state is read or written. For the
// metrics category the returned error may join UnknownMetricError values
// while the output still carries every metric that computed.
func (f *OrderBooks) Transform(ctx context.Context, req Request) (*format.Output, error) {
	plan, err := dispatch.Dispatch(domain.KindOrderBook, req.Category, req.params())
	if err != nil {
		return nil, err
	}

	logger := f.logger.With(slog.String("request_id", uuid.NewString()))
	logger.DebugContext(ctx, "fetching order books",
		slog.String("symbol", req.Symbol),
		slog.String("category", string(req.Category)),
		slog.Time("start", req.Start),
		slog.Time("end", req.End),
	)

	snaps, err := f.source.FetchOrderBooks(ctx, req.query())
	if err != nil {
		return nil, fmt.Errorf("orderbooks: fetch %s: %w", req.Symbol, err)
	}
	if len(snaps) == 0 {
		return nil, &domain.EmptyResultError{
			Kind: domain.KindOrderBook, Symbol: req.Symbol, Start: req.Start, End: req.End,
		}
	}

	ds := &format.Dataset{Kind: domain.KindOrderBook, Category: plan.Category}
	var metricErr error
	switch plan.Category {
	case domain.CategoryRaw:
		ds.Books = transform.SortBooks(snaps)
	case domain.CategoryTimeSample:
		ds.Books = transform.SampleBooks(snaps, req.Start, req.End, plan.TimeSample.Freq)
	case domain.CategoryPriceAgg:
		ds.Books = transform.BinBooks(snaps, plan.PriceAgg.BinType, plan.PriceAgg.BinSize)
	case domain.CategoryMetrics:
		ds.Metrics, metricErr = f.engine.ComputeBooks(transform.SortBooks(snaps), plan.Metrics)
	}

	out, err := format.Format(ds, req.Output)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "order books transformed",
		slog.String("symbol", req.Symbol),
		slog.String("category", string(req.Category)),
		slog.Int("input_snapshots", len(snaps)),
	)
	return out, metricErr
}

// Store sets the facade's current result, replacing any previous one.
func (f *OrderBooks) Store(out *format.Output) {
	f.latest = out
}

// Latest returns the stored result from the last inplace request, or nil.
func (f *OrderBooks) Latest() *format.Output {
	return f.latest
}

// GetData composes Transform and Store. With Inplace set it stores the
// result and returns an acknowledgement; otherwise the data is returned
// directly.
func (f *OrderBooks) GetData(ctx context.Context, req Request) (*format.Output, error) {
	out, err := f.Transform(ctx, req)
	if err != nil {
		return out, err
	}
	if req.Inplace {
		f.Store(out)
		return format.Ack(domain.KindOrderBook), nil
	}
	return out, nil
}

// Batch transforms one request per symbol concurrently. Requests are
// independent and request-local, so fan-out is safe; limit caps the number
// of in-flight fetches (0 means no cap). The first failure cancels the
// remaining requests.
func (f *OrderBooks) Batch(ctx context.Context, symbols []string, req Request, limit int) (map[string]*format.Output, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	results := make([]*format.Output, len(symbols))
	for i, sym := range symbols {
		g.Go(func() error {
			r := req
			r.Symbol = sym
			out, err := f.Transform(ctx, r)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bySymbol := make(map[string]*format.Output, len(symbols))
	for i, sym := range symbols {
		bySymbol[sym] = results[i]
	}
	return bySymbol, nil
}
