package exchangeobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/exchange/paper"
	"llm-crypto-trader/internal/metrics"
	"llm-crypto-trader/internal/types"
)

type prices map[string]float64

func (p prices) CurrentPrice(_ context.Context, inst types.Instrument) (float64, error) {
	if v, ok := p[inst]; ok {
		return v, nil
	}
	return 0, types.ErrPriceUnavailable
}

func TestWrapCountsOrders(t *testing.T) {
	m := metrics.New()
	ex := Wrap(paper.New(prices{"KRW-BTC": 1000}, "KRW", 100_000, 0), m)
	ctx := context.Background()

	assert.Equal(t, "paper", ex.Name())

	resp, err := ex.MarketBuy(ctx, "KRW-BTC", 10_000)
	require.NoError(t, err)
	_, err = ex.MarketSell(ctx, "KRW-BTC", resp.Volume)
	require.NoError(t, err)
	_, err = ex.MarketBuy(ctx, "KRW-ETH", 10_000)
	assert.True(t, errors.Is(err, types.ErrPriceUnavailable))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("paper", "BUY", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("paper", "SELL", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("paper", "BUY", "error")))
}

func TestWrapPassesThroughReads(t *testing.T) {
	inner := paper.New(prices{"KRW-BTC": 1000}, "KRW", 5000, 0)
	inner.Seed("KRW-BTC", 2, 900)
	ex := Wrap(inner, nil)
	ctx := context.Background()

	q, err := ex.QuoteBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, q)

	v, err := ex.PositionBalance(ctx, "KRW-BTC")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	avg, err := ex.AveragePrice(ctx, "KRW-BTC")
	require.NoError(t, err)
	assert.Equal(t, 900.0, avg)

	hs, err := ex.Balances(ctx)
	require.NoError(t, err)
	assert.Len(t, hs, 2)
}
