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

// PublicTrades is the entry point for public trade prints. Like OrderBooks
// it is single-owner with respect to the stored result.
type PublicTrades struct {
	source domain.Source
	engine *metrics.Engine
	logger *slog.Logger
	latest *format.Output
}

// NewPublicTrades creates the trades facade.
func NewPublicTrades(source domain.Source, engine *metrics.Engine, logger *slog.Logger) *PublicTrades {
	return &PublicTrades{
		source: source,
		engine: engine,
		logger: logger.With(slog.String("component", "publictrades")),
	}
}

// Transform runs the full pipeline and returns the formatted result
// without touching facade state.
func (f *PublicTrades) Transform(ctx context.Context, req Request) (*format.Output, error) {
	plan, err := dispatch.Dispatch(domain.KindTrade, req.Category, req.params())
	if err != nil {
		return nil, err
	}

	logger := f.logger.With(slog.String("request_id", uuid.NewString()))
	logger.DebugContext(ctx, "fetching trades",
		slog.String("symbol", req.Symbol),
		slog.String("category", string(req.Category)),
		slog.Time("start", req.Start),
		slog.Time("end", req.End),
	)

	trades, err := f.source.FetchTrades(ctx, req.query())
	if err != nil {
		return nil, fmt.Errorf("publictrades: fetch %s: %w", req.Symbol, err)
	}
	if len(trades) == 0 {
		return nil, &domain.EmptyResultError{
			Kind: domain.KindTrade, Symbol: req.Symbol, Start: req.Start, End: req.End,
		}
	}

	ds := &format.Dataset{Kind: domain.KindTrade, Category: plan.Category}
	var metricErr error
	switch plan.Category {
	case domain.CategoryRaw:
		ds.Trades = transform.SortTrades(trades)
	case domain.CategoryTimeSample:
		ds.TimeBuckets = transform.TimeWindows(trades, req.Start, req.End, plan.TimeSample.Freq)
	case domain.CategoryVolumeAgg:
		ds.VolumeBuckets = transform.VolumeBuckets(trades, plan.VolumeAgg.BucketVolume)
	case domain.CategoryMetrics:
		ds.Metrics, metricErr = f.engine.ComputeTrades(transform.SortTrades(trades), plan.Metrics)
	}

	out, err := format.Format(ds, req.Output)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "trades transformed",
		slog.String("symbol", req.Symbol),
		slog.String("category", string(req.Category)),
		slog.Int("input_trades", len(trades)),
	)
	return out, metricErr
}

// Store sets the facade's current result, replacing any previous one.
func (f *PublicTrades) Store(out *format.Output) {
	f.latest = out
}

// Latest returns the stored result from the last inplace request, or nil.
func (f *PublicTrades) Latest() *format.Output {
	return f.latest
}

// GetData composes Transform and Store; see OrderBooks.GetData.
func (f *PublicTrades) GetData(ctx context.Context, req Request) (*format.Output, error) {
	out, err := f.Transform(ctx, req)
	if err != nil {
		return out, err
	}
	if req.Inplace {
		f.Store(out)
		return format.Ack(domain.KindTrade), nil
	}
	return out, nil
}

// Batch transforms one request per symbol concurrently; see
// OrderBooks.Batch.
func (f *PublicTrades) Batch(ctx context.Context, symbols []string, req Request, limit int) (map[string]*format.Output, error) {
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
