package llm

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/types"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want types.Decision
	}{
		{
			name: "plain object",
			in:   `{"action":"BUY","confidence":0.82,"position_size_percent":20,"reason_code":"BREAKOUT","stop_loss_price":95}`,
			want: types.Decision{Action: types.ActionBuy, Confidence: 0.82, PositionSizePercent: 20, Reason: types.ReasonBreakout, StopLossPrice: 95},
		},
		{
			name: "json fence",
			in:   "```json\n{\"action\":\"sell\",\"confidence\":0.7,\"reason_code\":\"take_profit\"}\n```",
			want: types.Decision{Action: types.ActionSell, Confidence: 0.7, Reason: types.ReasonTakeProfit},
		},
		{
			name: "bare fence with prose around",
			in:   "```\nHere you go: {\"action\":\"HOLD\",\"confidence\":\"0.4\",\"reason_code\":\"TREND_ALIGNMENT\"} done\n```",
			want: types.Decision{Action: types.ActionHold, Confidence: 0.4, Reason: types.ReasonTrendAlignment},
		},
		{
			name: "defaults for missing fields",
			in:   `{"action":"BUY"}`,
			want: types.Decision{Action: types.ActionBuy, Reason: types.ReasonUnknown},
		},
		{
			name: "unknown action and out of range confidence",
			in:   `{"action":"SHORT","confidence":1.7,"reason_code":"X","position_size_percent":-3}`,
			want: types.Decision{Action: types.ActionHold, Reason: "X"},
		},
		{
			name: "first of two objects, braces in strings ignored",
			in:   `{"action":"BUY","confidence":0.9,"reason_code":"DIP}BUY"} {"action":"SELL"}`,
			want: types.Decision{Action: types.ActionBuy, Confidence: 0.9, Reason: "DIP}BUY"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecisionMalformed(t *testing.T) {
	for _, in := range []string{"", "I think you should buy", `{"action":`, `{"confidence":"high"}`} {
		_, err := ParseDecision(in)
		assert.True(t, errors.Is(err, types.ErrMalformedResponse), "input %q", in)
	}
}

func TestBuildPrompt(t *testing.T) {
	snap := types.MarketSnapshot{Instrument: "KRW-BTC", Price: 50_000_000, RSI: 61.25}
	snap.Recent = []types.Candle{{Ts: 1, Close: 10}}
	pctx := types.PortfolioContext{TotalEquity: 1_000_000, MaxPositionPct: 0.3, StopLossDefault: -0.02, TakeProfitMin: 0.03}

	p := BuildPrompt("KRW-BTC", snap, pctx)
	assert.Contains(t, p, "MARKET DATA (KRW-BTC)")
	assert.Contains(t, p, "RSI (14): 61.25")
	assert.Contains(t, p, "at most 30% of equity")
	assert.Contains(t, p, "Stop Loss: -2.0% from entry")
	assert.Contains(t, p, `"close":10`)
	assert.False(t, strings.Contains(p, "%!"), "format verbs must all be satisfied")
}

func TestBuildPromptUnencodableCandles(t *testing.T) {
	pctx := types.PortfolioContext{TotalEquity: 1_000_000, MaxPositionPct: 0.3}

	for name, recent := range map[string][]types.Candle{
		"nil":      nil,
		"infinite": {{Ts: 1, Close: math.Inf(1)}},
	} {
		t.Run(name, func(t *testing.T) {
			snap := types.MarketSnapshot{Instrument: "KRW-BTC", Recent: recent}
			p := BuildPrompt("KRW-BTC", snap, pctx)
			assert.Contains(t, p, "(oldest first) and provide your decision:\n[]")
		})
	}
}
