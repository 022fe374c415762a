// Package metrics provides a closed registry of named, pure metric
// computations over normalized order-book and trade series, and an engine
// that evaluates requested metric ids with per-metric failure isolation.
package metrics

import (
	"sort"
	"sync"

	"github.com/quantsignals/mktstruct/internal/domain"
)

// BookMetric computes one named metric over a snapshot series.
type BookMetric func(snaps []domain.BookSnapshot) domain.MetricResult

// TradeMetric computes one named metric over a trade series.
type TradeMetric func(trades []domain.Trade) domain.MetricResult

// Registry holds named metric functions for lookup by id. Metric ids are
// unique across both entity kinds.
type Registry struct {
	book  map[string]BookMetric
	trade map[string]TradeMetric
	mu    sync.RWMutex
}

// NewRegistry returns an empty registry. Call RegisterBook/RegisterTrade to
// add metrics, or use Default for the built-in catalog.
func NewRegistry() *Registry {
	return &Registry{
		book:  make(map[string]BookMetric),
		trade: make(map[string]TradeMetric),
	}
}

// RegisterBook adds an order-book metric under the given id.
func (r *Registry) RegisterBook(id string, m BookMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.book[id] = m
}

// RegisterTrade adds a trade metric under the given id.
func (r *Registry) RegisterTrade(id string, m TradeMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trade[id] = m
}

// Book returns the order-book metric by id.
func (r *Registry) Book(id string) (BookMetric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.book[id]
	return m, ok
}

// Trade returns the trade metric by id.
func (r *Registry) Trade(id string) (TradeMetric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.trade[id]
	return m, ok
}

// List returns all registered metric ids for the given kind, sorted.
func (r *Registry) List(kind domain.EntityKind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	switch kind {
	case domain.KindOrderBook:
		for id := range r.book {
			ids = append(ids, id)
		}
	case domain.KindTrade:
		for id := range r.trade {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Default returns a registry populated with the built-in metric catalog.
func Default() *Registry {
	r := NewRegistry()
	r.RegisterBook("spread", Spread)
	r.RegisterBook("mid_price", MidPrice)
	r.RegisterBook("imbalance", Imbalance)
	r.RegisterBook("depth", DepthWithin(defaultDepthBps))
	r.RegisterTrade("vwap", VWAP)
	r.RegisterTrade("realized_vol", RealizedVol)
	r.RegisterTrade("trade_intensity", TradeIntensity)
	return r
}
