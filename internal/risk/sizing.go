package risk

import (
	"fmt"

	"llm-crypto-trader/internal/types"
)

// SizingInput is everything the buy-size rule reads. Percentages follow the
// oracle's convention: SuggestedPct and CapPct are 0..100, MaxAllocationPct is 0..1.
type SizingInput struct {
	TotalEquity         float64
	SuggestedPct        float64
	CapPct              float64
	QuoteBalance        float64
	CurrentHoldingValue float64
	MaxAllocationPct    float64
	MinOrderValue       float64
	// MinOrderFloor is what an undersized order is raised to. Zero means MinOrderValue.
	MinOrderFloor float64
}

// ComputeBuyAmount sizes a market buy in quote currency or returns a
// *types.Rejection. The clamps run in a fixed order: floor raise, balance
// clamp, allocation ceiling, then a final minimum check.
func ComputeBuyAmount(in SizingInput) (float64, error) {
	floor := in.MinOrderFloor
	if floor < in.MinOrderValue {
		floor = in.MinOrderValue
	}

	pct := in.SuggestedPct
	if in.CapPct < pct {
		pct = in.CapPct
	}
	if pct < 0 {
		pct = 0
	}
	amount := in.TotalEquity * pct / 100

	if amount < in.MinOrderValue {
		if in.TotalEquity < floor {
			return 0, &types.Rejection{
				Reason: types.ReasonInsufficientCap,
				Detail: fmt.Sprintf("equity %.0f below minimum order %.0f", in.TotalEquity, floor),
			}
		}
		amount = floor
	}

	if amount > in.QuoteBalance {
		amount = in.QuoteBalance
	}

	maxAllocation := in.TotalEquity * in.MaxAllocationPct
	if in.CurrentHoldingValue >= maxAllocation {
		return 0, &types.Rejection{
			Reason: types.ReasonAssetAllocation,
			Detail: fmt.Sprintf("holding %.0f at allocation limit %.0f", in.CurrentHoldingValue, maxAllocation),
		}
	}
	if remaining := maxAllocation - in.CurrentHoldingValue; amount > remaining {
		amount = remaining
	}

	if amount < in.MinOrderValue {
		return 0, &types.Rejection{
			Reason: types.ReasonInsufficientCap,
			Detail: fmt.Sprintf("order %.0f below minimum %.0f", amount, in.MinOrderValue),
		}
	}
	return amount, nil
}
