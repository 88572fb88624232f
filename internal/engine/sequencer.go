package engine

import (
	"context"
	"sort"
	"time"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/metrics"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/types"
)

// marginEpsilon absorbs float error in the swap margin comparison, so that
// 0.60 - 0.40 qualifies for a 0.20 margin.
const marginEpsilon = 1e-9

// sequencer turns gated decisions into orders: all sells first, then buys in
// descending confidence, with opportunity swaps when every slot is taken.
type sequencer struct {
	cfg     *store.Config
	ex      interfaces.Exchange
	orders  *orderExecutor
	risk    *riskManager
	metrics *metrics.Metrics

	// heldCount reports live positions above dust after the sell phase.
	heldCount func(ctx context.Context) (int, error)
	sleep     func(ctx context.Context, d time.Duration) error
}

// run never modifies items. The returned outcomes are index-aligned with it.
func (s *sequencer) run(ctx context.Context, items []types.CycleItem) []types.Outcome {
	outcomes := make([]types.Outcome, len(items))
	for i, it := range items {
		outcomes[i] = types.Outcome{
			Instrument: it.Instrument,
			Decision:   it.Decision,
			Price:      it.Price,
			Stage:      types.StageSkipped,
		}
		if it.Err != nil {
			outcomes[i].Stage = types.StageFailed
			outcomes[i].Error = it.Err.Error()
		}
	}

	pm := newPositionManager(items, s.cfg.Capital.DustThreshold)
	s.sellPhase(ctx, items, outcomes, pm)
	s.buyPhase(ctx, items, outcomes, pm)
	return outcomes
}

func (s *sequencer) sellPhase(ctx context.Context, items []types.CycleItem, outcomes []types.Outcome, pm *positionManager) {
	for i, it := range items {
		if it.Err != nil || it.Decision.Action != types.ActionSell {
			continue
		}
		if !pm.isHeld(i) {
			logger.Debug(ctx, "SELL without position above dust",
				"instrument", it.Instrument,
				"value", it.Balance.PositionValue(it.Price),
			)
			outcomes[i].Decision = it.Decision.WithHold(types.ReasonNoPosition)
			continue
		}

		exec, err := s.orders.liquidate(ctx, it.Instrument, it.Balance.PositionBalance, it.Decision.Reason)
		outcomes[i].Executions = append(outcomes[i].Executions, exec)
		if err != nil {
			outcomes[i].Stage = types.StageFailed
			outcomes[i].Error = err.Error()
			pm.markStuck(i)
			continue
		}
		outcomes[i].Stage = types.StageExecuted
		pm.markSold(i)
	}
}

func (s *sequencer) buyPhase(ctx context.Context, items []types.CycleItem, outcomes []types.Outcome, pm *positionManager) {
	var candidates []int
	for i, it := range items {
		if it.Err == nil && it.Decision.Action == types.ActionBuy {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return items[candidates[a]].Decision.Confidence > items[candidates[b]].Decision.Confidence
	})

	slots, err := s.heldCount(ctx)
	if err != nil {
		slots = pm.count()
		logger.Warn(ctx, "Held count unavailable, using cycle balances", "slots_used", slots, "error", err)
	}
	maxCoins := s.cfg.Capital.MaxCoinsHeld

	for _, i := range candidates {
		// already sold this cycle to make room for a stronger candidate
		if pm.wasSold(i) {
			continue
		}
		it := items[i]

		quote, err := s.ex.QuoteBalance(ctx)
		if err != nil {
			outcomes[i].Decision = it.Decision.WithHold(types.ReasonAPIError)
			outcomes[i].Stage = types.StageFailed
			outcomes[i].Error = err.Error()
			continue
		}

		held := pm.isHeld(i)
		if (held || slots < maxCoins) && quote >= s.cfg.Capital.MinOrderValue {
			if s.buy(ctx, it, quote, it.Decision.Reason, &outcomes[i]) {
				if !held {
					slots++
				}
				pm.markBought(i)
			}
			continue
		}

		w := pm.weakest(i)
		if w < 0 || it.Decision.Confidence-items[w].Decision.Confidence+marginEpsilon < s.cfg.Strategy.SwapMargin {
			logger.Info(ctx, "No slot for BUY",
				"instrument", it.Instrument,
				"confidence", it.Decision.Confidence,
				"slots_used", slots,
				"max_coins", maxCoins,
				"quote_balance", quote,
			)
			outcomes[i].Decision = it.Decision.WithHold(types.ReasonMaxCoinsReached)
			continue
		}

		bought := s.swap(ctx, items, outcomes, pm, i, w)
		if pm.wasSold(w) {
			slots--
		}
		if bought && !held {
			slots++
		}
	}

	s.metrics.SetSlotsUsed(slots)
}

// buy sizes and places a BUY for it, recording the result on out. It reports
// whether an order was filled.
func (s *sequencer) buy(ctx context.Context, it types.CycleItem, quote float64, reason types.ReasonCode, out *types.Outcome) bool {
	amount, err := s.risk.sizeBuy(ctx, it, quote)
	if err != nil {
		if code, ok := types.RejectionReason(err); ok {
			out.Decision = out.Decision.WithHold(code)
			return false
		}
		out.Stage = types.StageFailed
		out.Error = err.Error()
		return false
	}

	exec, err := s.orders.placeBuyOrder(ctx, it.Instrument, amount, reason)
	out.Executions = append(out.Executions, exec)
	if err != nil {
		out.Stage = types.StageFailed
		out.Error = err.Error()
		return false
	}
	out.Stage = types.StageExecuted
	return true
}

// swap sells the weakest holding w and buys candidate c with the proceeds.
func (s *sequencer) swap(ctx context.Context, items []types.CycleItem, outcomes []types.Outcome, pm *positionManager, c, w int) bool {
	cand, weak := items[c], items[w]
	logger.Info(ctx, "Opportunity swap",
		"buy", cand.Instrument,
		"buy_confidence", cand.Decision.Confidence,
		"sell", weak.Instrument,
		"sell_confidence", weak.Decision.Confidence,
	)

	exec, err := s.orders.liquidate(ctx, weak.Instrument, weak.Balance.PositionBalance, types.ReasonOpportunitySwap)
	if err != nil {
		outcomes[w].Executions = append(outcomes[w].Executions, exec)
		outcomes[w].Stage = types.StageFailed
		outcomes[w].Error = err.Error()
		pm.markStuck(w)
		outcomes[c].Decision = cand.Decision.WithHold(types.ReasonMaxCoinsReached)
		return false
	}
	outcomes[w].Decision = weak.Decision.WithSell(types.ReasonOpportunitySwap)
	outcomes[w].Executions = append(outcomes[w].Executions, exec)
	outcomes[w].Stage = types.StageExecuted
	pm.markSold(w)

	if err := s.sleep(ctx, s.cfg.Trader.SwapSettleDelay); err != nil {
		logger.Warn(ctx, "Swap settle wait interrupted", "error", err)
	}

	outcomes[c].Decision = cand.Decision.WithReason(types.ReasonOpportunitySwap)
	quote, err := s.ex.QuoteBalance(ctx)
	if err != nil {
		outcomes[c].Stage = types.StageFailed
		outcomes[c].Error = err.Error()
		return false
	}
	if !s.buy(ctx, cand, quote, types.ReasonOpportunitySwap, &outcomes[c]) {
		return false
	}
	pm.markBought(c)
	s.metrics.IncSwaps()
	return true
}
