package interfaces

import (
	"context"

	"llm-crypto-trader/internal/types"
)

// Exchange is the account-side collaborator. Every call may fail; callers
// treat failures as local to the instrument being processed.
type Exchange interface {
	// Name identifies the variant ("upbit" or "paper") for logs and metrics.
	Name() string

	QuoteBalance(ctx context.Context) (float64, error)
	PositionBalance(ctx context.Context, instrument types.Instrument) (float64, error)
	AveragePrice(ctx context.Context, instrument types.Instrument) (float64, error)

	// CurrentPrice returns types.ErrPriceUnavailable when the market has no price.
	CurrentPrice(ctx context.Context, instrument types.Instrument) (float64, error)

	// Balances lists every non-zero balance of the account, quote currency included.
	Balances(ctx context.Context) ([]types.Holding, error)

	// MarketBuy spends quoteAmount of the quote currency.
	MarketBuy(ctx context.Context, instrument types.Instrument, quoteAmount float64) (types.OrderResp, error)
	// MarketSell sells volume units of the instrument's base currency.
	MarketSell(ctx context.Context, instrument types.Instrument, volume float64) (types.OrderResp, error)
}
