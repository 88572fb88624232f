package ledger

import (
	"context"
	"fmt"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/types"
)

// Valuation is the account marked to market.
type Valuation struct {
	Total     float64
	Positions map[string]types.PositionInfo
}

// HeldCount counts non-quote positions whose value exceeds dust.
func (v Valuation) HeldCount(quote string, dust float64) int {
	n := 0
	for ccy, p := range v.Positions {
		if ccy != quote && p.Value > dust {
			n++
		}
	}
	return n
}

// Valuate sums the quote balance and every position with a known price.
// Positions whose price cannot be fetched are left out of the total and the
// position map for this call.
func Valuate(ctx context.Context, ex interfaces.Exchange, quote string) (Valuation, error) {
	hs, err := ex.Balances(ctx)
	if err != nil {
		return Valuation{}, fmt.Errorf("valuate: %w", err)
	}

	v := Valuation{Positions: make(map[string]types.PositionInfo, len(hs))}
	for _, h := range hs {
		price := 1.0
		if h.Currency != quote {
			p, err := ex.CurrentPrice(ctx, types.MarketOf(quote, h.Currency))
			if err != nil || p <= 0 {
				logger.Warn(ctx, "Excluding position from valuation, price unavailable",
					"currency", h.Currency, "balance", h.Balance, "error", err)
				continue
			}
			price = p
		}

		info := types.PositionInfo{
			Balance:     h.Balance,
			Value:       h.Balance * price,
			AvgBuyPrice: h.AvgEntryPrice,
		}
		if h.AvgEntryPrice > 0 {
			info.ReturnRate = (price - h.AvgEntryPrice) / h.AvgEntryPrice * 100
		}
		v.Positions[h.Currency] = info
		v.Total += info.Value
	}
	return v, nil
}
