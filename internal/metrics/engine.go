package metrics

import (
	"errors"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// Engine evaluates requested metric ids against a registry. Each metric is
// independent: an unknown id produces an UnknownMetricError for that id
// while sibling metrics still compute.
type Engine struct {
	registry *Registry
}

// NewEngine creates an Engine over the given registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// ComputeBooks evaluates the requested order-book metrics over the series.
// It returns every result that computed; the error, when non-nil, joins one
// UnknownMetricError per unrecognized id.
func (e *Engine) ComputeBooks(snaps []domain.BookSnapshot, ids []string) (map[string]domain.MetricResult, error) {
	results := make(map[string]domain.MetricResult, len(ids))
	var errs []error
	for _, id := range ids {
		m, ok := e.registry.Book(id)
		if !ok {
			errs = append(errs, &domain.UnknownMetricError{MetricID: id})
			continue
		}
		results[id] = m(snaps)
	}
	return results, errors.Join(errs...)
}

// ComputeTrades evaluates the requested trade metrics over the series with
// the same partial-success contract as ComputeBooks.
func (e *Engine) ComputeTrades(trades []domain.Trade, ids []string) (map[string]domain.MetricResult, error) {
	results := make(map[string]domain.MetricResult, len(ids))
	var errs []error
	for _, id := range ids {
		m, ok := e.registry.Trade(id)
		if !ok {
			errs = append(errs, &domain.UnknownMetricError{MetricID: id})
			continue
		}
		results[id] = m(trades)
	}
	return results, errors.Join(errs...)
}
