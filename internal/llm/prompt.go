package llm

import (
	"encoding/json"
	"fmt"

	"llm-crypto-trader/internal/types"
)

const DefaultSystem = "You are an autonomous crypto trading decision engine. " +
	"Your primary objective is capital growth; take calculated risks when momentum is favorable. " +
	"Respond with a single strict JSON object and nothing else."

// BuildPrompt renders the user message sent to every provider.
func BuildPrompt(instrument types.Instrument, snap types.MarketSnapshot, pctx types.PortfolioContext) string {
	// non-finite candle fields do not encode; the prompt then goes without them
	recent, err := json.Marshal(snap.Recent)
	if err != nil || len(snap.Recent) == 0 {
		recent = []byte("[]")
	}
	maxPct := pctx.MaxPositionPct * 100

	return fmt.Sprintf(`### MARKET DATA (%s)
Current Price: %v
MA5: %.2f, MA20: %.2f, MA60: %.2f
BB Upper: %.2f, BB Middle: %.2f, BB Lower: %.2f
MACD: %.4f, Signal: %.4f
RSI (14): %.2f

### ACCOUNT STATUS
Total Equity: %.0f
Quote Balance: %.0f
Position: %v units (avg entry %.2f, value %.0f)

### TRADING RULES
1. Seek entries during uptrends or strong momentum; avoid buying at extreme overbought levels (RSI > 85) unless momentum is exceptional.
2. Position Size: at most %.0f%% of equity per trade. The minimum trade amount is 5000.
3. Stop Loss: %.1f%% from entry.
4. Trailing Take Profit: when the position is up by at least %.1f%%, let the profit run; SELL only on a 2%% drop from the local peak or a clear bearish reversal.
5. Favor buying when momentum is strong, even if MA20 < MA60, when there is a clear reversal or breakout.

### OUTPUT FORMAT (STRICT JSON ONLY)
{
  "action": "BUY" | "SELL" | "HOLD",
  "position_size_percent": number (1-%.0f),
  "limit_price": number (optional),
  "stop_loss_price": number,
  "take_profit_price": number,
  "confidence": 0.0~1.0,
  "reason_code": "STRONG_MOMENTUM | BREAKOUT | DIP_BUY | RISK_MANAGEMENT | TRAILING_STOP_TRIGGERED | LET_PROFIT_RUN | TAKE_PROFIT | LOSS_CUT | ..."
}

Analyze the following recent OHLCV candles (oldest first) and provide your decision:
%s
`,
		instrument,
		snap.Price,
		snap.MA5, snap.MA20, snap.MA60,
		snap.BB.Upper, snap.BB.Middle, snap.BB.Lower,
		snap.MACD, snap.MACDSignal,
		snap.RSI,
		pctx.TotalEquity,
		pctx.Balance.QuoteBalance,
		pctx.Balance.PositionBalance, pctx.Balance.AvgEntryPrice, pctx.PositionValue,
		maxPct,
		pctx.StopLossDefault*100,
		pctx.TakeProfitMin*100,
		maxPct,
		string(recent),
	)
}
