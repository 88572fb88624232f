package paper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/types"
)

type fixedPrices map[string]float64

func (f fixedPrices) CurrentPrice(_ context.Context, inst types.Instrument) (float64, error) {
	if p, ok := f[inst]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: %s", types.ErrPriceUnavailable, inst)
}

func TestBuyThenSellRoundTrip(t *testing.T) {
	ctx := context.Background()
	prices := fixedPrices{"KRW-BTC": 50_000_000}
	ex := New(prices, "KRW", 1_000_000, 0)

	resp, err := ex.MarketBuy(ctx, "KRW-BTC", 200_000)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OrderID)
	assert.InDelta(t, 0.004, resp.Volume, 1e-12)

	q, _ := ex.QuoteBalance(ctx)
	assert.InDelta(t, 800_000, q, 1e-6)
	vol, _ := ex.PositionBalance(ctx, "KRW-BTC")
	assert.InDelta(t, 0.004, vol, 1e-12)
	avg, _ := ex.AveragePrice(ctx, "KRW-BTC")
	assert.InDelta(t, 50_000_000, avg, 1e-3)

	prices["KRW-BTC"] = 60_000_000
	_, err = ex.MarketSell(ctx, "KRW-BTC", vol)
	require.NoError(t, err)

	q, _ = ex.QuoteBalance(ctx)
	assert.InDelta(t, 1_040_000, q, 1e-6)
	vol, _ = ex.PositionBalance(ctx, "KRW-BTC")
	assert.Zero(t, vol)
}

func TestFeeIsCharged(t *testing.T) {
	ctx := context.Background()
	ex := New(fixedPrices{"KRW-ETH": 1000}, "KRW", 100_000, 0.001)

	resp, err := ex.MarketBuy(ctx, "KRW-ETH", 10_000)
	require.NoError(t, err)
	assert.InDelta(t, 9.99, resp.Volume, 1e-9)

	sell, err := ex.MarketSell(ctx, "KRW-ETH", resp.Volume)
	require.NoError(t, err)
	assert.InDelta(t, 9.99*1000*0.999, sell.Amount, 1e-6)
}

func TestRejections(t *testing.T) {
	ctx := context.Background()
	ex := New(fixedPrices{"KRW-BTC": 100}, "KRW", 1000, 0)

	_, err := ex.MarketBuy(ctx, "KRW-BTC", 5000)
	assert.True(t, errors.Is(err, types.ErrInsufficientCapital))

	_, err = ex.MarketSell(ctx, "KRW-BTC", 1)
	assert.True(t, errors.Is(err, types.ErrInsufficientCapital))

	_, err = ex.MarketBuy(ctx, "KRW-XRP", 100)
	assert.True(t, errors.Is(err, types.ErrPriceUnavailable))
}

func TestBalancesListsQuoteAndHoldings(t *testing.T) {
	ex := New(fixedPrices{}, "KRW", 1000, 0)
	ex.Seed("KRW-ETH", 2, 3000)
	ex.Seed("KRW-BTC", 0.1, 50_000_000)

	got, err := ex.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "KRW", got[0].Currency)
	assert.Equal(t, "BTC", got[1].Currency)
	assert.Equal(t, "ETH", got[2].Currency)
	assert.Equal(t, 3000.0, got[2].AvgEntryPrice)
}
