package interfaces

import (
	"context"

	"llm-crypto-trader/internal/types"
)

type MarketData interface {
	Snapshot(ctx context.Context, instrument types.Instrument) (*types.MarketSnapshot, error)
}

// PriceSource quotes the latest traded price of an instrument.
type PriceSource interface {
	CurrentPrice(ctx context.Context, instrument types.Instrument) (float64, error)
}
