package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/trace"
	"llm-crypto-trader/internal/types"
)

// Ledger owns the persisted PortfolioState. One RecordCycle call per cycle
// read-modify-writes the whole document.
type Ledger struct {
	mu    sync.Mutex
	path  string
	cap   int
	quote string
	now   func() time.Time
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(path string, historyCap int, quoteCurrency string, opts ...Option) *Ledger {
	if historyCap <= 0 {
		historyCap = 1000
	}
	l := &Ledger{path: path, cap: historyCap, quote: quoteCurrency, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Path() string { return l.path }

// Load returns the persisted state. A missing or unreadable file is an empty
// state, never an error.
func (l *Ledger) Load(ctx context.Context) types.PortfolioState {
	st, err := ReadStatus(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn(ctx, "Portfolio state unreadable, starting with empty history", "path", l.path, "error", err)
		}
		return types.PortfolioState{Positions: map[string]types.PositionInfo{}}
	}
	if st.Positions == nil {
		st.Positions = map[string]types.PositionInfo{}
	}
	return *st
}

// RecordCycle appends one record per outcome, refreshes the valuation from ex
// and writes the state atomically. If ex cannot be valued the previous
// totals are kept. The returned error wraps types.ErrPersistence.
func (l *Ledger) RecordCycle(ctx context.Context, ex interfaces.Exchange, outcomes []types.Outcome) error {
	ctx, span := trace.StartSpan(ctx, "ledger.RecordCycle")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.Load(ctx)
	now := l.now()

	if ex != nil {
		if v, err := Valuate(ctx, ex, l.quote); err != nil {
			logger.Warn(ctx, "Valuation failed, keeping previous totals", "error", err)
		} else {
			st.TotalAssets = v.Total
			st.Positions = v.Positions
		}
	}

	st.RecentTrades = append(st.RecentTrades, Records(outcomes, now)...)
	if over := len(st.RecentTrades) - l.cap; over > 0 {
		st.RecentTrades = append([]types.TradeRecord(nil), st.RecentTrades[over:]...)
	}
	st.Timestamp = now.Format(types.StateTimeLayout)

	if err := writeAtomic(l.path, st); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist portfolio state", err, "path", l.path)
		return err
	}
	logger.Debug(ctx, "Portfolio state saved",
		"path", l.path,
		"total_assets", st.TotalAssets,
		"recent_trades", len(st.RecentTrades),
	)
	return nil
}

// Records converts final outcomes into history entries.
func Records(outcomes []types.Outcome, now time.Time) []types.TradeRecord {
	ts := now.Format(types.TradeTimeLayout)
	out := make([]types.TradeRecord, 0, len(outcomes))
	for _, o := range outcomes {
		r := types.TradeRecord{
			Instrument: o.Instrument,
			Decision:   strings.ToLower(string(o.Decision.Action)),
			ReasonCode: o.Decision.Reason,
			Timestamp:  ts,
			Confidence: o.Decision.Confidence,
			Error:      o.Error,
		}
		for _, e := range o.Executions {
			if e.Err != "" {
				continue
			}
			r.Executed = true
			r.Amount += e.Amount
			r.OrderID = e.OrderID
		}
		out = append(out, r)
	}
	return out
}

// ReadStatus decodes the state file at path.
func ReadStatus(path string) (*types.PortfolioState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st types.PortfolioState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", types.ErrPersistence, path, err)
	}
	return &st, nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// over path, so readers see either the old or the new document.
func writeAtomic(path string, st types.PortfolioState) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", types.ErrPersistence, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}
	tmp := f.Name()
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}
	if _, err := f.Write(b); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", types.ErrPersistence, err)
	}
	return nil
}
