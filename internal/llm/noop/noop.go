package noop

import (
	"context"

	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/types"
)

// NoopDecider is a fallback decider used when no advisory provider is configured
type NoopDecider struct{}

// NewNoopDecider returns a new instance that always decides HOLD
func NewNoopDecider() *NoopDecider {
	return &NoopDecider{}
}

// Decide implements the Decider interface. It always returns HOLD with 0 confidence
func (d *NoopDecider) Decide(ctx context.Context, instrument types.Instrument, _ types.MarketSnapshot, _ types.PortfolioContext) (types.Decision, error) {
	logger.Debug(ctx, "Noop decider called - always returns HOLD", "instrument", instrument)
	return types.HoldDecision(types.ReasonUnknown), nil
}
