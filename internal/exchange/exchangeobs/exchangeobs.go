package exchangeobs

import (
	"context"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/metrics"
	"llm-crypto-trader/internal/trace"
	"llm-crypto-trader/internal/types"
)

// observableExchange wraps an Exchange with observability (logging, tracing, order metrics)
type observableExchange struct {
	ex interfaces.Exchange
	m  *metrics.Metrics
}

// Compile-time interface check
var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange with observability middleware. m may be nil.
func Wrap(ex interfaces.Exchange, m *metrics.Metrics) interfaces.Exchange {
	return &observableExchange{ex: ex, m: m}
}

func (oe *observableExchange) Name() string { return oe.ex.Name() }

func (oe *observableExchange) QuoteBalance(ctx context.Context) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.QuoteBalance")
	defer span.End()

	bal, err := oe.ex.QuoteBalance(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch quote balance", err, "exchange", oe.ex.Name())
		return 0, err
	}
	logger.DebugSkip(ctx, 1, "Quote balance fetched", "balance", bal)
	return bal, nil
}

func (oe *observableExchange) PositionBalance(ctx context.Context, instrument types.Instrument) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PositionBalance", trace.Instrument(instrument))
	defer span.End()

	bal, err := oe.ex.PositionBalance(ctx, instrument)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch position balance", err, "instrument", instrument)
		return 0, err
	}
	logger.DebugSkip(ctx, 1, "Position balance fetched", "instrument", instrument, "balance", bal)
	return bal, nil
}

func (oe *observableExchange) AveragePrice(ctx context.Context, instrument types.Instrument) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.AveragePrice", trace.Instrument(instrument))
	defer span.End()

	avg, err := oe.ex.AveragePrice(ctx, instrument)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch average price", err, "instrument", instrument)
		return 0, err
	}
	return avg, nil
}

func (oe *observableExchange) CurrentPrice(ctx context.Context, instrument types.Instrument) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.CurrentPrice", trace.Instrument(instrument))
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching price", "instrument", instrument)

	price, err := oe.ex.CurrentPrice(ctx, instrument)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch price", err, "instrument", instrument)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Price fetched successfully", "instrument", instrument, "price", price)
	return price, nil
}

func (oe *observableExchange) Balances(ctx context.Context) ([]types.Holding, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Balances")
	defer span.End()

	hs, err := oe.ex.Balances(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balances", err, "exchange", oe.ex.Name())
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Balances fetched", "count", len(hs))
	return hs, nil
}

func (oe *observableExchange) MarketBuy(ctx context.Context, instrument types.Instrument, quoteAmount float64) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.MarketBuy", trace.Instrument(instrument))
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"instrument", instrument,
		"side", types.SideBuy,
		"amount", quoteAmount,
		"exchange", oe.ex.Name(),
	)

	resp, err := oe.ex.MarketBuy(ctx, instrument, quoteAmount)
	oe.m.ObserveOrder(oe.ex.Name(), string(types.SideBuy), err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"instrument", instrument,
			"side", types.SideBuy,
			"amount", quoteAmount,
		)
		return types.OrderResp{}, err
	}

	logger.Trade(ctx, instrument, string(types.SideBuy), quoteAmount, resp.OrderID, "status", resp.Status)
	return resp, nil
}

func (oe *observableExchange) MarketSell(ctx context.Context, instrument types.Instrument, volume float64) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.MarketSell", trace.Instrument(instrument))
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"instrument", instrument,
		"side", types.SideSell,
		"volume", volume,
		"exchange", oe.ex.Name(),
	)

	resp, err := oe.ex.MarketSell(ctx, instrument, volume)
	oe.m.ObserveOrder(oe.ex.Name(), string(types.SideSell), err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"instrument", instrument,
			"side", types.SideSell,
			"volume", volume,
		)
		return types.OrderResp{}, err
	}

	logger.Trade(ctx, instrument, string(types.SideSell), volume, resp.OrderID, "status", resp.Status)
	return resp, nil
}
