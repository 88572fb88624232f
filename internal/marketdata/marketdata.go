package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"llm-crypto-trader/internal/api"
	"llm-crypto-trader/internal/ta"
	"llm-crypto-trader/internal/types"
)

const (
	DefaultBaseURL = "https://api.upbit.com"
	pageSize       = 200
	recentCandles  = 24
	minCandles     = 60
)

// Client reads public Upbit quotation endpoints and turns them into snapshots.
type Client struct {
	http            *api.Client
	intervalMinutes int
	candleCount     int
	now             func() time.Time
}

type Option func(*Client)

func WithNow(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, intervalMinutes, candleCount int, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(10*time.Second),
			api.WithRetry(2, 500*time.Millisecond, 2*time.Second),
			api.WithLogging(true),
		),
		intervalMinutes: intervalMinutes,
		candleCount:     candleCount,
		now:             time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type candleDTO struct {
	Market    string  `json:"market"`
	UTC       string  `json:"candle_date_time_utc"`
	Open      float64 `json:"opening_price"`
	High      float64 `json:"high_price"`
	Low       float64 `json:"low_price"`
	Close     float64 `json:"trade_price"`
	Volume    float64 `json:"candle_acc_trade_volume"`
	Timestamp int64   `json:"timestamp"`
}

type tickerDTO struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
}

// Candles returns up to count minute candles for instrument, oldest first.
func (c *Client) Candles(ctx context.Context, instrument types.Instrument, count int) ([]types.Candle, error) {
	var pages [][]candleDTO
	to := ""
	remaining := count
	for remaining > 0 {
		n := remaining
		if n > pageSize {
			n = pageSize
		}
		req := c.http.R(ctx).
			SetQueryParam("market", instrument).
			SetQueryParam("count", strconv.Itoa(n))
		if to != "" {
			req.SetQueryParam("to", to)
		}
		var page []candleDTO
		resp, err := req.Get(fmt.Sprintf("/v1/candles/minutes/%d", c.intervalMinutes))
		if err := api.DecodeJSON(resp, err, &page); err != nil {
			return nil, fmt.Errorf("candles %s: %w", instrument, err)
		}
		if len(page) == 0 {
			break
		}
		pages = append(pages, page)
		remaining -= len(page)
		// pages come newest first; the last entry is the oldest
		to = page[len(page)-1].UTC + "Z"
		if len(page) < n {
			break
		}
	}

	var out []types.Candle
	for p := len(pages) - 1; p >= 0; p-- {
		page := pages[p]
		for i := len(page) - 1; i >= 0; i-- {
			d := page[i]
			out = append(out, types.Candle{
				Ts: d.Timestamp, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Vol: d.Volume,
			})
		}
	}
	return out, nil
}

// CurrentPrice returns the last trade price, or types.ErrPriceUnavailable when
// the market is not quoted.
func (c *Client) CurrentPrice(ctx context.Context, instrument types.Instrument) (float64, error) {
	var tickers []tickerDTO
	resp, err := c.http.R(ctx).SetQueryParam("markets", instrument).Get("/v1/ticker")
	if err := api.DecodeJSON(resp, err, &tickers); err != nil {
		return 0, fmt.Errorf("ticker %s: %w", instrument, err)
	}
	for _, t := range tickers {
		if t.Market == instrument && t.TradePrice > 0 {
			return t.TradePrice, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", types.ErrPriceUnavailable, instrument)
}

func (c *Client) Snapshot(ctx context.Context, instrument types.Instrument) (*types.MarketSnapshot, error) {
	candles, err := c.Candles(ctx, instrument, c.candleCount)
	if err != nil {
		return nil, err
	}
	if len(candles) < minCandles {
		return nil, fmt.Errorf("%w: %s has %d candles, need %d", types.ErrNoMarketData, instrument, len(candles), minCandles)
	}
	snap := BuildSnapshot(instrument, candles)
	snap.Time = c.now().Unix()
	return snap, nil
}

// BuildSnapshot computes the indicator set from oldest-first candles.
func BuildSnapshot(instrument types.Instrument, candles []types.Candle) *types.MarketSnapshot {
	closes := make([]float64, len(candles))
	for i, k := range candles {
		closes[i] = k.Close
	}

	snap := &types.MarketSnapshot{
		Instrument: instrument,
		Price:      closes[len(closes)-1],
		MA5:        ta.SMA(closes, 5),
		MA20:       ta.SMA(closes, 20),
		MA60:       ta.SMA(closes, 60),
		RSI:        ta.RSI(closes, 14),
	}
	snap.BB.Middle, snap.BB.Upper, snap.BB.Lower = ta.Bollinger(closes, 20, 2)
	snap.MACD, snap.MACDSignal = ta.MACD(closes, 12, 26, 9)

	start := len(candles) - recentCandles
	if start < 0 {
		start = 0
	}
	snap.Recent = append([]types.Candle(nil), candles[start:]...)
	return snap
}
