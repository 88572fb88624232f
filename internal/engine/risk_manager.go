package engine

import (
	"context"

	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/risk"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/types"
)

// riskManager binds the capital section of the config to the buy-size rule.
type riskManager struct {
	cfg *store.Config
}

func newRiskManager(cfg *store.Config) *riskManager {
	return &riskManager{cfg: cfg}
}

// sizeBuy returns the quote amount to spend on item, or a *types.Rejection.
func (rm *riskManager) sizeBuy(ctx context.Context, item types.CycleItem, quoteBalance float64) (float64, error) {
	capital := rm.cfg.Capital
	in := risk.SizingInput{
		TotalEquity:         item.TotalEquity,
		SuggestedPct:        item.Decision.PositionSizePercent,
		CapPct:              capital.InvestmentPerTrade * 100,
		QuoteBalance:        quoteBalance,
		CurrentHoldingValue: item.Balance.PositionValue(item.Price),
		MaxAllocationPct:    capital.MaxAllocationPerCoin,
		MinOrderValue:       capital.MinOrderValue,
		MinOrderFloor:       capital.MinOrderFloor,
	}

	amount, err := risk.ComputeBuyAmount(in)
	if err != nil {
		reason, _ := types.RejectionReason(err)
		logger.Risk(ctx, item.Instrument, "TRADE_BLOCKED_"+string(reason),
			"equity", in.TotalEquity,
			"quote_balance", quoteBalance,
			"holding_value", in.CurrentHoldingValue,
			"suggested_pct", in.SuggestedPct,
			"detail", err.Error(),
		)
		return 0, err
	}
	return amount, nil
}
