package risk

import (
	"context"

	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/types"
)

// Gate downgrades non-SELL decisions below the confidence threshold to HOLD.
type Gate struct {
	Threshold float64
}

func NewGate(threshold float64) Gate {
	return Gate{Threshold: threshold}
}

// Apply never blocks a SELL: de-risking wins over a weak signal.
func (g Gate) Apply(ctx context.Context, instrument types.Instrument, d types.Decision) types.Decision {
	if d.Action == types.ActionSell || d.Confidence >= g.Threshold {
		return d
	}
	if d.Action == types.ActionBuy {
		logger.Risk(ctx, instrument, "LOW_CONFIDENCE",
			"confidence", d.Confidence,
			"threshold", g.Threshold,
			"original_reason", string(d.Reason),
		)
	}
	return d.WithHold(types.ReasonLowConfidence)
}
