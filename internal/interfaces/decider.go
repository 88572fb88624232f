package interfaces

import (
	"context"

	"llm-crypto-trader/internal/types"
)

// Decider is the advisory oracle adapter.
type Decider interface {
	Decide(ctx context.Context, instrument types.Instrument, snap types.MarketSnapshot, pctx types.PortfolioContext) (types.Decision, error)
}
