package types

// ReasonCode is the audit label attached to every decision.
type ReasonCode string

const (
	ReasonUnknown            ReasonCode = "UNKNOWN"
	ReasonAPIError           ReasonCode = "API_ERROR"
	ReasonLowConfidence      ReasonCode = "LOW_CONFIDENCE"
	ReasonMaxCoinsReached    ReasonCode = "MAX_COINS_REACHED"
	ReasonAssetAllocation    ReasonCode = "ASSET_ALLOCATION"
	ReasonInsufficientCap    ReasonCode = "INSUFFICIENT_CAPITAL"
	ReasonOpportunitySwap    ReasonCode = "OPPORTUNITY_SWAP"
	ReasonNoPosition         ReasonCode = "NO_POSITION"
	ReasonStrongMomentum     ReasonCode = "STRONG_MOMENTUM"
	ReasonBreakout           ReasonCode = "BREAKOUT"
	ReasonDipBuy             ReasonCode = "DIP_BUY"
	ReasonRiskManagement     ReasonCode = "RISK_MANAGEMENT"
	ReasonTrailingStop       ReasonCode = "TRAILING_STOP_TRIGGERED"
	ReasonLetProfitRun       ReasonCode = "LET_PROFIT_RUN"
	ReasonTakeProfit         ReasonCode = "TAKE_PROFIT"
	ReasonLossCut            ReasonCode = "LOSS_CUT"
	ReasonTrendAlignment     ReasonCode = "TREND_ALIGNMENT"
	ReasonCapitalPreserve    ReasonCode = "CAPITAL_PRESERVATION"
	ReasonStructureUnclear   ReasonCode = "STRUCTURE_UNCLEAR"
	ReasonBearishMomentum    ReasonCode = "BEARISH_MOMENTUM_INDICATORS"
	ReasonReversalSignal     ReasonCode = "REVERSAL_SIGNAL"
	ReasonRSIOverbought      ReasonCode = "RSI_OVERBOUGHT"
	ReasonVolatilityFilter   ReasonCode = "VOLATILITY_FILTER"
	ReasonConsecutiveLossCut ReasonCode = "CONSECUTIVE_LOSS_PROTECTION"
)

var reasonText = map[ReasonCode]string{
	ReasonAPIError:           "[ERR] A system error occurred; the instrument is held this cycle.",
	ReasonLowConfidence:      "[LOW] Confidence is below the entry threshold; waiting for a stronger signal.",
	ReasonMaxCoinsReached:    "[LIMIT] Maximum number of held coins reached; waiting to realise profit before a new entry.",
	ReasonAssetAllocation:    "[LIMIT] Allocation ceiling for this coin reached; further entries are paused.",
	ReasonInsufficientCap:    "[CASH] Not enough capital for the minimum order size.",
	ReasonOpportunitySwap:    "[SWAP] Rotating out of a weak holding into a much stronger signal.",
	ReasonNoPosition:         "[NONE] Nothing to sell; position is below the dust threshold.",
	ReasonStrongMomentum:     "[HOT] Strong upward momentum detected; entering.",
	ReasonBreakout:           "[BREAK] Key resistance broken; entering.",
	ReasonDipBuy:             "[DIP] Short-term oversold dip; buying for a rebound.",
	ReasonRiskManagement:     "[RISK] Reducing risk.",
	ReasonTrailingStop:       "[TRAILING] Price fell 2% from the local peak; locking in profit.",
	ReasonLetProfitRun:       "[RUN] Uptrend intact; letting the profit run.",
	ReasonTakeProfit:         "[PROFIT] Take-profit hit.",
	ReasonLossCut:            "[LOSS] Loss cut to rotate into better opportunities.",
	ReasonTrendAlignment:     "[TREND] Watching momentum for trend alignment.",
	ReasonCapitalPreserve:    "[SAVE] Market is unfavourable; preserving capital.",
	ReasonStructureUnclear:   "[UNCLEAR] Market structure is ambiguous.",
	ReasonBearishMomentum:    "[BEAR] Indicators turned bearish.",
	ReasonReversalSignal:     "[REV] Trend reversal signal detected.",
	ReasonRSIOverbought:      "[RSI] RSI overbought; not chasing.",
	ReasonVolatilityFilter:   "[VOL] Watching volatility for an entry window.",
	ReasonConsecutiveLossCut: "[COOL] Pausing after consecutive losses.",
}

// DescribeReason returns a human-readable sentence for code. Unknown codes
// describe as themselves.
func DescribeReason(code ReasonCode) string {
	if s, ok := reasonText[code]; ok {
		return s
	}
	return string(code)
}
