package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestLevels(t *testing.T) {
	s := BookSnapshot{
		Bids: []PriceLevel{{Price: 99.5, Volume: 2}, {Price: 99, Volume: 1}},
		Asks: []PriceLevel{{Price: 100.5, Volume: 1}, {Price: 101, Volume: 3}},
	}

	bid, ok := s.BestBid()
	assert.True(t, ok)
	assert.Equal(t, 99.5, bid.Price)

	ask, ok := s.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, 100.5, ask.Price)

	assert.InDelta(t, 100.0, s.MidPrice(), 1e-12)
}

func TestBestLevelsEmptySide(t *testing.T) {
	s := BookSnapshot{Asks: []PriceLevel{{Price: 100.5, Volume: 1}}}

	_, ok := s.BestBid()
	assert.False(t, ok)
	assert.Zero(t, s.MidPrice())
}

func TestEntityKindValid(t *testing.T) {
	assert.True(t, KindOrderBook.Valid())
	assert.True(t, KindTrade.Valid())
	assert.False(t, EntityKind("candles").Valid())
	assert.False(t, EntityKind("").Valid())
}

func TestCategoriesPerKind(t *testing.T) {
	assert.Equal(t,
		[]Category{CategoryRaw, CategoryTimeSample, CategoryPriceAgg, CategoryMetrics},
		Categories(KindOrderBook))
	assert.Equal(t,
		[]Category{CategoryRaw, CategoryTimeSample, CategoryVolumeAgg, CategoryMetrics},
		Categories(KindTrade))
	assert.Nil(t, Categories(EntityKind("candles")))
}

func TestErrorMessages(t *testing.T) {
	verr := &ValidationError{Kind: KindTrade, Category: CategoryTimeSample, Param: "frequency", Reason: "missing required parameter"}
	assert.Contains(t, verr.Error(), `param="frequency"`)

	verr = &ValidationError{Kind: KindTrade, Category: "candlesticks", Reason: "unsupported"}
	assert.NotContains(t, verr.Error(), "param=")

	uerr := &UnknownMetricError{MetricID: "bogus"}
	assert.Contains(t, uerr.Error(), `"bogus"`)

	ferr := &UnsupportedFormatError{Kind: KindOrderBook, Format: FormatArray}
	assert.Contains(t, ferr.Error(), "array")
	assert.Contains(t, ferr.Error(), "orderbook")
}
