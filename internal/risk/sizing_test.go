package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/types"
)

func base() SizingInput {
	return SizingInput{
		TotalEquity:      1_000_000,
		SuggestedPct:     20,
		CapPct:           30,
		QuoteBalance:     1_000_000,
		MaxAllocationPct: 1.0,
		MinOrderValue:    5000,
		MinOrderFloor:    5500,
	}
}

func TestComputeBuyAmount(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SizingInput)
		want   float64
		reason types.ReasonCode
	}{
		{name: "plain sizing", mutate: func(in *SizingInput) {}, want: 200_000},
		{name: "capped by cap pct", mutate: func(in *SizingInput) { in.SuggestedPct = 80 }, want: 300_000},
		{name: "floor raise", mutate: func(in *SizingInput) { in.SuggestedPct = 0.3 }, want: 5500},
		{name: "clamped to quote balance", mutate: func(in *SizingInput) { in.QuoteBalance = 50_000 }, want: 50_000},
		{
			name: "clamped to remaining allocation",
			mutate: func(in *SizingInput) {
				in.MaxAllocationPct = 0.25
				in.CurrentHoldingValue = 150_000
			},
			want: 100_000,
		},
		{
			name:   "tiny account rejected",
			mutate: func(in *SizingInput) { in.TotalEquity = 4000; in.QuoteBalance = 4000 },
			reason: types.ReasonInsufficientCap,
		},
		{
			name: "allocation ceiling reached",
			mutate: func(in *SizingInput) {
				in.MaxAllocationPct = 0.2
				in.CurrentHoldingValue = 200_000
			},
			reason: types.ReasonAssetAllocation,
		},
		{
			name:   "balance clamp below minimum",
			mutate: func(in *SizingInput) { in.QuoteBalance = 3000 },
			reason: types.ReasonInsufficientCap,
		},
		{
			name: "allocation clamp below minimum",
			mutate: func(in *SizingInput) {
				in.MaxAllocationPct = 0.2
				in.CurrentHoldingValue = 198_000
			},
			reason: types.ReasonInsufficientCap,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			got, err := ComputeBuyAmount(in)
			if tt.reason != "" {
				require.Error(t, err)
				code, ok := types.RejectionReason(err)
				require.True(t, ok)
				assert.Equal(t, tt.reason, code)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestRejectionMatchesSentinels(t *testing.T) {
	in := base()
	in.TotalEquity, in.QuoteBalance = 1000, 1000
	_, err := ComputeBuyAmount(in)
	assert.True(t, errors.Is(err, types.ErrInsufficientCapital))
	assert.False(t, errors.Is(err, types.ErrAllocationExceeded))

	in = base()
	in.MaxAllocationPct, in.CurrentHoldingValue = 0.1, 500_000
	_, err = ComputeBuyAmount(in)
	assert.True(t, errors.Is(err, types.ErrAllocationExceeded))
}

func TestNoFloorConfiguredUsesMinOrderValue(t *testing.T) {
	in := base()
	in.SuggestedPct = 0.1
	in.MinOrderFloor = 0
	got, err := ComputeBuyAmount(in)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, got)
}

func TestGate(t *testing.T) {
	g := NewGate(0.55)
	ctx := context.Background()

	tests := []struct {
		name       string
		in         types.Decision
		wantAction types.Action
		wantReason types.ReasonCode
	}{
		{"strong buy passes", types.Decision{Action: types.ActionBuy, Confidence: 0.8, Reason: types.ReasonBreakout}, types.ActionBuy, types.ReasonBreakout},
		{"at threshold passes", types.Decision{Action: types.ActionBuy, Confidence: 0.55, Reason: types.ReasonDipBuy}, types.ActionBuy, types.ReasonDipBuy},
		{"weak buy held", types.Decision{Action: types.ActionBuy, Confidence: 0.4, Reason: types.ReasonBreakout}, types.ActionHold, types.ReasonLowConfidence},
		{"weak hold relabelled", types.Decision{Action: types.ActionHold, Confidence: 0.1, Reason: types.ReasonTrendAlignment}, types.ActionHold, types.ReasonLowConfidence},
		{"weak sell bypasses", types.Decision{Action: types.ActionSell, Confidence: 0.1, Reason: types.ReasonLossCut}, types.ActionSell, types.ReasonLossCut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Apply(ctx, "KRW-BTC", tt.in)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.in.Confidence, got.Confidence)
		})
	}
}
