// Package paper is the simulated exchange used in DRY_RUN mode or when no
// exchange credentials are configured. Orders fill immediately at the quoted
// price with a flat fee; the account lives in memory.
package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/types"
)

type position struct {
	volume decimal.Decimal
	avg    decimal.Decimal
}

type Exchange struct {
	mu       sync.Mutex
	prices   interfaces.PriceSource
	quoteCcy string
	fee      decimal.Decimal
	quote    decimal.Decimal
	pos      map[types.Instrument]*position
}

var _ interfaces.Exchange = (*Exchange)(nil)

func New(prices interfaces.PriceSource, quoteCurrency string, initialQuote, feeRate float64) *Exchange {
	return &Exchange{
		prices:   prices,
		quoteCcy: quoteCurrency,
		fee:      decimal.NewFromFloat(feeRate),
		quote:    decimal.NewFromFloat(initialQuote),
		pos:      make(map[types.Instrument]*position),
	}
}

// Seed sets an existing position, for tests and for resuming a simulated book.
func (e *Exchange) Seed(instrument types.Instrument, volume, avgPrice float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos[instrument] = &position{volume: decimal.NewFromFloat(volume), avg: decimal.NewFromFloat(avgPrice)}
}

func (e *Exchange) Name() string { return "paper" }

func (e *Exchange) QuoteBalance(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quote.InexactFloat64(), nil
}

func (e *Exchange) PositionBalance(ctx context.Context, instrument types.Instrument) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pos[instrument]; ok {
		return p.volume.InexactFloat64(), nil
	}
	return 0, nil
}

func (e *Exchange) AveragePrice(ctx context.Context, instrument types.Instrument) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pos[instrument]; ok {
		return p.avg.InexactFloat64(), nil
	}
	return 0, nil
}

func (e *Exchange) CurrentPrice(ctx context.Context, instrument types.Instrument) (float64, error) {
	return e.prices.CurrentPrice(ctx, instrument)
}

func (e *Exchange) Balances(ctx context.Context) ([]types.Holding, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := []types.Holding{{Currency: e.quoteCcy, Balance: e.quote.InexactFloat64(), AvgEntryPrice: 0}}
	keys := make([]string, 0, len(e.pos))
	for k := range e.pos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := e.pos[k]
		if p.volume.IsZero() {
			continue
		}
		out = append(out, types.Holding{
			Currency:      types.BaseCurrency(k),
			Balance:       p.volume.InexactFloat64(),
			AvgEntryPrice: p.avg.InexactFloat64(),
		})
	}
	return out, nil
}

func (e *Exchange) MarketBuy(ctx context.Context, instrument types.Instrument, quoteAmount float64) (types.OrderResp, error) {
	if quoteAmount <= 0 {
		return types.OrderResp{}, fmt.Errorf("paper buy %s: non-positive amount %.2f", instrument, quoteAmount)
	}
	price, err := e.prices.CurrentPrice(ctx, instrument)
	if err != nil {
		return types.OrderResp{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	amount := decimal.NewFromFloat(quoteAmount)
	if amount.GreaterThan(e.quote) {
		return types.OrderResp{}, fmt.Errorf("paper buy %s: %w: need %s have %s",
			instrument, types.ErrInsufficientCapital, amount.StringFixed(0), e.quote.StringFixed(0))
	}
	px := decimal.NewFromFloat(price)
	net := amount.Mul(decimal.NewFromInt(1).Sub(e.fee))
	vol := net.Div(px).Truncate(8)

	p, ok := e.pos[instrument]
	if !ok {
		p = &position{}
		e.pos[instrument] = p
	}
	// cost basis includes the fee, as on the live exchange
	total := p.volume.Mul(p.avg).Add(amount)
	p.volume = p.volume.Add(vol)
	if p.volume.IsPositive() {
		p.avg = total.Div(p.volume)
	}
	e.quote = e.quote.Sub(amount)

	return types.OrderResp{
		OrderID: uuid.NewString(),
		Status:  "done",
		Price:   price,
		Volume:  vol.InexactFloat64(),
		Amount:  quoteAmount,
	}, nil
}

func (e *Exchange) MarketSell(ctx context.Context, instrument types.Instrument, volume float64) (types.OrderResp, error) {
	if volume <= 0 {
		return types.OrderResp{}, fmt.Errorf("paper sell %s: non-positive volume", instrument)
	}
	price, err := e.prices.CurrentPrice(ctx, instrument)
	if err != nil {
		return types.OrderResp{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pos[instrument]
	vol := decimal.NewFromFloat(volume)
	if !ok || vol.GreaterThan(p.volume) {
		return types.OrderResp{}, fmt.Errorf("paper sell %s: %w", instrument, types.ErrInsufficientCapital)
	}
	gross := vol.Mul(decimal.NewFromFloat(price))
	proceeds := gross.Mul(decimal.NewFromInt(1).Sub(e.fee))

	p.volume = p.volume.Sub(vol)
	if p.volume.IsZero() {
		delete(e.pos, instrument)
	}
	e.quote = e.quote.Add(proceeds)

	return types.OrderResp{
		OrderID: uuid.NewString(),
		Status:  "done",
		Price:   price,
		Volume:  volume,
		Amount:  proceeds.InexactFloat64(),
	}, nil
}
