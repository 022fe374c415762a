package s3source

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantsignals/mktstruct/internal/domain"
)

func TestPrefix(t *testing.T) {
	q := domain.Query{Symbol: "BTCUSDT"}
	assert.Equal(t, "orderbooks/BTCUSDT/", prefix(q, defaultBookPrefix))
	assert.Equal(t, "trades/BTCUSDT/", prefix(q, defaultTradePrefix))

	q.Table = "archive_2024"
	assert.Equal(t, "archive_2024/BTCUSDT/", prefix(q, defaultBookPrefix))
}
