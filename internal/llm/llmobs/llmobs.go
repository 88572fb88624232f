package llmobs

import (
	"context"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/trace"
	"llm-crypto-trader/internal/types"
)

// observableDecider wraps a Decider with observability (logging & tracing)
type observableDecider struct {
	decider interfaces.Decider
}

// Compile-time interface check
var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware
func Wrap(decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{
		decider: decider,
	}
}

// Decide makes a trading decision with observability
func (od *observableDecider) Decide(
	ctx context.Context,
	instrument types.Instrument,
	snap types.MarketSnapshot,
	pctx types.PortfolioContext,
) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Decide", trace.Instrument(instrument))
	defer span.End()

	// DebugSkip(1) reports the caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting trading decision",
		"instrument", instrument,
		"price", snap.Price,
		"rsi", snap.RSI,
		"equity", pctx.TotalEquity,
	)

	decision, err := od.decider.Decide(ctx, instrument, snap, pctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get trading decision", err,
			"instrument", instrument,
			"price", snap.Price,
		)
		return types.Decision{}, err
	}

	logger.InfoSkip(ctx, 1, "Trading decision received",
		"instrument", instrument,
		"action", decision.Action,
		"reason", decision.Reason,
		"confidence", decision.Confidence,
		"position_size_pct", decision.PositionSizePercent,
	)

	return decision, nil
}
