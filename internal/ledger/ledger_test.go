package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/exchange/paper"
	"llm-crypto-trader/internal/types"
)

type prices map[string]float64

func (p prices) CurrentPrice(_ context.Context, inst types.Instrument) (float64, error) {
	if v, ok := p[inst]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s", types.ErrPriceUnavailable, inst)
}

var fixed = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func outcome(inst string, n int) types.Outcome {
	return types.Outcome{
		Instrument: inst,
		Decision:   types.Decision{Action: types.ActionHold, Confidence: float64(n) / 1000, Reason: types.ReasonLowConfidence},
		Stage:      types.StageSkipped,
	}
}

func TestHistoryIsBoundedFIFO(t *testing.T) {
	const historyCap = 10
	path := filepath.Join(t.TempDir(), "status.json")
	l := New(path, historyCap, "KRW", WithClock(clock))
	ctx := context.Background()

	for i := 0; i < historyCap+5; i++ {
		require.NoError(t, l.RecordCycle(ctx, nil, []types.Outcome{outcome("KRW-BTC", i)}))
	}

	st, err := ReadStatus(path)
	require.NoError(t, err)
	require.Len(t, st.RecentTrades, historyCap)
	assert.InDelta(t, 0.005, st.RecentTrades[0].Confidence, 1e-12)
	assert.InDelta(t, 0.014, st.RecentTrades[historyCap-1].Confidence, 1e-12)
}

func TestRecordCycleValuesPortfolio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade", "status.json")
	ex := paper.New(prices{"KRW-BTC": 60_000_000}, "KRW", 500_000, 0)
	ex.Seed("KRW-BTC", 0.01, 50_000_000)
	ex.Seed("KRW-DOGE", 100, 100) // no price: excluded

	l := New(path, 100, "KRW", WithClock(clock))
	out := []types.Outcome{{
		Instrument: "KRW-BTC",
		Decision:   types.Decision{Action: types.ActionBuy, Confidence: 0.9, Reason: types.ReasonBreakout},
		Stage:      types.StageExecuted,
		Executions: []types.Execution{{Side: types.SideBuy, Amount: 100_000, OrderID: "o-1", Reason: types.ReasonBreakout}},
	}}
	require.NoError(t, l.RecordCycle(context.Background(), ex, out))

	st, err := ReadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14 09:30:00", st.Timestamp)
	assert.InDelta(t, 1_100_000, st.TotalAssets, 1e-6)
	require.Contains(t, st.Positions, "BTC")
	assert.InDelta(t, 600_000, st.Positions["BTC"].Value, 1e-6)
	assert.InDelta(t, 20, st.Positions["BTC"].ReturnRate, 1e-9)
	assert.Equal(t, 500_000.0, st.Positions["KRW"].Value)
	assert.NotContains(t, st.Positions, "DOGE")

	require.Len(t, st.RecentTrades, 1)
	rec := st.RecentTrades[0]
	assert.Equal(t, "buy", rec.Decision)
	assert.Equal(t, types.ReasonBreakout, rec.ReasonCode)
	assert.Equal(t, "03/14 09:30", rec.Timestamp)
	assert.True(t, rec.Executed)
	assert.Equal(t, "o-1", rec.OrderID)
}

func TestCorruptFileIsEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := New(path, 5, "KRW", WithClock(clock))
	st := l.Load(context.Background())
	assert.Empty(t, st.RecentTrades)

	require.NoError(t, l.RecordCycle(context.Background(), nil, []types.Outcome{outcome("KRW-ETH", 1)}))
	got, err := ReadStatus(path)
	require.NoError(t, err)
	assert.Len(t, got.RecentTrades, 1)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")
	l := New(path, 5, "KRW", WithClock(clock))
	for i := 0; i < 3; i++ {
		require.NoError(t, l.RecordCycle(context.Background(), nil, []types.Outcome{outcome("KRW-ETH", i)}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "status.json", entries[0].Name())
}

func TestWriteFailureIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	// the target path is an existing directory, so the rename cannot replace it
	path := filepath.Join(dir, "status.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	err := New(path, 5, "KRW").RecordCycle(context.Background(), nil, []types.Outcome{outcome("KRW-ETH", 1)})
	assert.True(t, errors.Is(err, types.ErrPersistence))
}

func TestHeldCount(t *testing.T) {
	v := Valuation{Positions: map[string]types.PositionInfo{
		"KRW": {Value: 1_000_000},
		"BTC": {Value: 200_000},
		"ETH": {Value: 4_000},
		"XRP": {Value: 5_001},
	}}
	assert.Equal(t, 2, v.HeldCount("KRW", 5000))
}
