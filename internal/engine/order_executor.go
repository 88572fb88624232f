package engine

import (
	"context"
	"fmt"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/types"
)

// orderExecutor places market orders and turns the exchange response into an
// Execution record.
type orderExecutor struct {
	ex interfaces.Exchange
}

func newOrderExecutor(ex interfaces.Exchange) *orderExecutor {
	return &orderExecutor{ex: ex}
}

// placeBuyOrder spends amount of quote currency on instrument.
func (oe *orderExecutor) placeBuyOrder(ctx context.Context, instrument types.Instrument, amount float64, reason types.ReasonCode) (types.Execution, error) {
	exec := types.Execution{Side: types.SideBuy, Amount: amount, Reason: reason}

	resp, err := oe.ex.MarketBuy(ctx, instrument, amount)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to place BUY order", err,
			"instrument", instrument,
			"amount", amount,
			"reason", reason,
		)
		exec.Err = err.Error()
		return exec, err
	}

	exec.OrderID = resp.OrderID
	exec.Volume = resp.Volume
	return exec, nil
}

// liquidate sells the whole position of instrument. The balance is re-read
// from the exchange; held is used only when that read fails.
func (oe *orderExecutor) liquidate(ctx context.Context, instrument types.Instrument, held float64, reason types.ReasonCode) (types.Execution, error) {
	volume, err := oe.ex.PositionBalance(ctx, instrument)
	if err != nil {
		logger.Warn(ctx, "Position re-read failed, selling last known balance",
			"instrument", instrument,
			"balance", held,
			"error", err,
		)
		volume = held
	}

	exec := types.Execution{Side: types.SideSell, Volume: volume, Reason: reason}
	if volume <= 0 {
		err := fmt.Errorf("%w: %s", types.ErrInsufficientCapital, instrument)
		exec.Err = err.Error()
		return exec, err
	}

	resp, err := oe.ex.MarketSell(ctx, instrument, volume)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to place SELL order", err,
			"instrument", instrument,
			"volume", volume,
			"reason", reason,
		)
		exec.Err = err.Error()
		return exec, err
	}

	exec.OrderID = resp.OrderID
	exec.Amount = resp.Amount
	return exec, nil
}
