// Package app provides the top-level application lifecycle: it wires the
// configured source adapter, cache, and facades, runs the configured
// request batch, and writes results to stdout or export files.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quantsignals/mktstruct/internal/config"
	"github.com/quantsignals/mktstruct/internal/domain"
	"github.com/quantsignals/mktstruct/internal/export"
	"github.com/quantsignals/mktstruct/internal/format"
	"github.com/quantsignals/mktstruct/internal/service"
)

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies and executes the configured request batch. It
// returns after all symbols are processed or on the first failure.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	req, err := a.buildRequest()
	if err != nil {
		return err
	}

	kind := domain.EntityKind(a.cfg.Request.EntityKind)
	a.logger.InfoContext(ctx, "running request batch",
		slog.String("kind", string(kind)),
		slog.String("category", string(req.Category)),
		slog.Int("symbols", len(a.cfg.Request.Symbols)),
		slog.String("source", a.cfg.Source.Kind),
	)

	var results map[string]*format.Output
	switch kind {
	case domain.KindOrderBook:
		results, err = deps.OrderBooks.Batch(ctx, a.cfg.Request.Symbols, req, a.cfg.Request.Parallelism)
	case domain.KindTrade:
		results, err = deps.PublicTrades.Batch(ctx, a.cfg.Request.Symbols, req, a.cfg.Request.Parallelism)
	default:
		return fmt.Errorf("app: unsupported entity kind %q", kind)
	}
	if err != nil {
		var empty *domain.EmptyResultError
		if errors.As(err, &empty) {
			a.logger.WarnContext(ctx, "source returned no records", slog.String("error", empty.Error()))
		}
		return fmt.Errorf("app: batch: %w", err)
	}

	if a.cfg.Export.Enabled {
		return a.exportResults(ctx, results)
	}
	return a.printResults(results)
}

// buildRequest maps the configured request onto a service request. With
// export enabled the output format is forced to records so the savers see
// the full dataset.
func (a *App) buildRequest() (service.Request, error) {
	start, end, err := a.cfg.Request.Range()
	if err != nil {
		return service.Request{}, err
	}

	outputFormat := domain.OutputFormat(a.cfg.Request.OutputFormat)
	if a.cfg.Export.Enabled {
		outputFormat = domain.FormatRecords
	}

	return service.Request{
		MarketType:     a.cfg.Request.MarketType,
		Start:          start,
		End:            end,
		Category:       domain.Category(a.cfg.Request.Category),
		CategoryParams: a.cfg.Request.CategoryParams,
		Table:          a.cfg.Request.Table,
		Output:         outputFormat,
	}, nil
}

// exportResults writes one file per symbol into the export directory.
func (a *App) exportResults(ctx context.Context, results map[string]*format.Output) error {
	saver, err := export.ForFormat(a.cfg.Export.FileFormat)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.Export.Dir, 0o755); err != nil {
		return fmt.Errorf("app: create export dir: %w", err)
	}

	for _, sym := range a.cfg.Request.Symbols {
		out := results[sym]
		if out == nil || out.Records == nil {
			continue
		}
		name := fmt.Sprintf("%s_%s.%s", sym, a.cfg.Request.Category, saver.Extension())
		path := filepath.Join(a.cfg.Export.Dir, name)
		if err := saver.Save(out.Records, path); err != nil {
			return fmt.Errorf("app: export %s: %w", sym, err)
		}
		a.logger.InfoContext(ctx, "exported result",
			slog.String("symbol", sym),
			slog.String("path", path),
		)
	}
	return nil
}

// printResults writes the formatted outputs as a JSON document to stdout.
func (a *App) printResults(results map[string]*format.Output) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("app: encode results: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
