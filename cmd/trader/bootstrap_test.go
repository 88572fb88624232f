package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"llm-crypto-trader/internal/marketdata"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/types"
)

func TestInitializeExchange(t *testing.T) {
	md := marketdata.New("http://127.0.0.1:0", 60, 240)
	ctx := context.Background()

	cfg := store.Default()
	assert.Equal(t, "paper", initializeExchange(ctx, cfg, md, nil).Name())

	cfg.Mode = "LIVE"
	t.Setenv("UPBIT_ACCESS_KEY", "")
	t.Setenv("UPBIT_SECRET_KEY", "")
	assert.Equal(t, "paper", initializeExchange(ctx, cfg, md, nil).Name())

	t.Setenv("UPBIT_ACCESS_KEY", "ak")
	t.Setenv("UPBIT_SECRET_KEY", "sk")
	assert.Equal(t, "upbit", initializeExchange(ctx, cfg, md, nil).Name())
}

func TestInitializeDeciderWithoutKeyIsNoop(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg := store.Default()

	d, err := initializeDecider(context.Background(), cfg).
		Decide(context.Background(), "KRW-BTC", types.MarketSnapshot{}, types.PortfolioContext{})
	assert.NoError(t, err)
	assert.Equal(t, types.ActionHold, d.Action)
}
