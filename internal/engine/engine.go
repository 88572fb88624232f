package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/ledger"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/metrics"
	"llm-crypto-trader/internal/risk"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/trace"
	"llm-crypto-trader/internal/types"
)

type Engine struct {
	cfg     *store.Config
	ex      interfaces.Exchange
	md      interfaces.MarketData
	llm     interfaces.Decider
	gate    risk.Gate
	ledger  *ledger.Ledger
	metrics *metrics.Metrics
	seq     *sequencer
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Engine)

// WithSleep replaces the advisory and swap-settle waits. Tests pass a no-op.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

func newEngine(cfg *store.Config, ex interfaces.Exchange, md interfaces.MarketData, d interfaces.Decider, l *ledger.Ledger, m *metrics.Metrics, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		ex:      ex,
		md:      md,
		llm:     d,
		gate:    risk.NewGate(cfg.Strategy.ConfidenceThreshold),
		ledger:  l,
		metrics: m,
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(e)
	}
	e.seq = &sequencer{
		cfg:       cfg,
		ex:        ex,
		orders:    newOrderExecutor(ex),
		risk:      newRiskManager(cfg),
		metrics:   m,
		heldCount: e.heldCount,
		sleep:     e.sleep,
	}
	return e
}

// RunCycle evaluates every configured instrument, executes the resulting
// orders and persists the outcome. Per-instrument failures become
// HOLD/API_ERROR outcomes; only a persistence failure is returned, together
// with the outcomes.
func (e *Engine) RunCycle(ctx context.Context) ([]types.Outcome, error) {
	start := time.Now()
	cycleID := trace.CycleID(ctx)
	if cycleID == "" {
		cycleID = ulid.Make().String()
		ctx = trace.WithCycleID(ctx, cycleID)
	}
	instruments := e.cfg.Trader.Instruments

	logger.Debug(ctx, "Starting cycle", "instruments", len(instruments))

	equity := e.equity(ctx)
	e.metrics.SetEquity(equity)

	items := make([]types.CycleItem, 0, len(instruments))
	for _, inst := range instruments {
		items = append(items, e.evaluate(ctx, inst, equity))
		if err := e.sleep(ctx, e.cfg.Trader.AdvisoryDelay); err != nil {
			logger.Warn(ctx, "Advisory delay interrupted", "error", err)
		}
	}

	outcomes := e.seq.run(ctx, items)
	for _, o := range outcomes {
		e.metrics.ObserveDecision(string(o.Decision.Action), string(o.Decision.Reason))
		logger.Decision(ctx, o.Instrument, string(o.Decision.Action), o.Decision.Confidence, string(o.Decision.Reason),
			"stage", o.Stage,
			"orders", len(o.Executions),
		)
	}

	var err error
	if e.ledger != nil {
		if perr := e.ledger.RecordCycle(ctx, e.ex, outcomes); perr != nil {
			err = fmt.Errorf("cycle %s: %w", cycleID, perr)
		}
	}
	e.metrics.ObserveCycle(time.Since(start).Seconds(), err)

	logger.Debug(ctx, "Cycle completed",
		"outcomes", len(outcomes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outcomes, err
}

// evaluate gathers market and account data for one instrument and asks the
// oracle for a gated decision. Any failure yields HOLD/API_ERROR with Err set.
func (e *Engine) evaluate(ctx context.Context, inst types.Instrument, equity float64) types.CycleItem {
	ctx, span := trace.StartSpan(ctx, "engine.evaluate", trace.Instrument(inst))
	defer span.End()

	item := types.CycleItem{
		Instrument:  inst,
		Decision:    types.HoldDecision(types.ReasonAPIError),
		TotalEquity: equity,
	}
	fail := func(step string, err error) types.CycleItem {
		logger.ErrorWithErr(ctx, "Instrument evaluation failed", err, "instrument", inst, "step", step)
		item.Err = fmt.Errorf("%s: %w", step, err)
		return item
	}

	snap, err := e.md.Snapshot(ctx, inst)
	if err != nil {
		return fail("snapshot", err)
	}
	if snap == nil {
		return fail("snapshot", types.ErrNoMarketData)
	}
	if item.Price, err = e.ex.CurrentPrice(ctx, inst); err != nil {
		return fail("price", err)
	}
	if item.Balance.PositionBalance, err = e.ex.PositionBalance(ctx, inst); err != nil {
		return fail("position", err)
	}
	if item.Balance.AvgEntryPrice, err = e.ex.AveragePrice(ctx, inst); err != nil {
		return fail("avg_price", err)
	}
	if item.Balance.QuoteBalance, err = e.ex.QuoteBalance(ctx); err != nil {
		return fail("quote_balance", err)
	}

	pctx := types.PortfolioContext{
		TotalEquity:     equity,
		Balance:         item.Balance,
		PositionValue:   item.Balance.PositionValue(item.Price),
		MaxPositionPct:  e.cfg.Capital.InvestmentPerTrade,
		StopLossDefault: e.cfg.Risk.StopLossDefault,
		TakeProfitMin:   e.cfg.Risk.TakeProfitMin,
	}
	d, err := e.llm.Decide(ctx, inst, *snap, pctx)
	if err != nil {
		return fail("advisory", err)
	}

	item.Decision = e.gate.Apply(ctx, inst, d)
	return item
}

// equity values the account for sizing. If valuation fails the quote balance
// alone is used.
func (e *Engine) equity(ctx context.Context) float64 {
	v, err := ledger.Valuate(ctx, e.ex, e.cfg.Trader.QuoteCurrency)
	if err == nil {
		return v.Total
	}
	q, qerr := e.ex.QuoteBalance(ctx)
	logger.Warn(ctx, "Valuation failed, sizing from quote balance", "error", err, "quote_balance", q, "quote_error", qerr)
	return q
}

func (e *Engine) heldCount(ctx context.Context) (int, error) {
	v, err := ledger.Valuate(ctx, e.ex, e.cfg.Trader.QuoteCurrency)
	if err != nil {
		return 0, err
	}
	return v.HeldCount(e.cfg.Trader.QuoteCurrency, e.cfg.Capital.DustThreshold), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
