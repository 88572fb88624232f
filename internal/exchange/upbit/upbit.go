// Package upbit is the live exchange client. Private endpoints authenticate
// with an HS256 JWT whose claims carry a SHA512 hash of the request parameters.
package upbit

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"llm-crypto-trader/internal/api"
	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/types"
)

const DefaultBaseURL = "https://api.upbit.com"

type Exchange struct {
	http      *api.Client
	prices    interfaces.PriceSource
	accessKey string
	secretKey string
	quoteCcy  string
}

var _ interfaces.Exchange = (*Exchange)(nil)

func New(baseURL, accessKey, secretKey, quoteCurrency string, prices interfaces.PriceSource) *Exchange {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Exchange{
		http: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(10*time.Second),
			api.WithLogging(true),
		),
		prices:    prices,
		accessKey: accessKey,
		secretKey: secretKey,
		quoteCcy:  quoteCurrency,
	}
}

func (e *Exchange) Name() string { return "upbit" }

type claims struct {
	AccessKey    string `json:"access_key"`
	Nonce        string `json:"nonce"`
	QueryHash    string `json:"query_hash,omitempty"`
	QueryHashAlg string `json:"query_hash_alg,omitempty"`
	jwt.RegisteredClaims
}

// token signs the auth header. params may be nil for parameterless calls.
func (e *Exchange) token(params url.Values) (string, error) {
	c := claims{AccessKey: e.accessKey, Nonce: uuid.NewString()}
	if len(params) > 0 {
		sum := sha512.Sum512([]byte(params.Encode()))
		c.QueryHash = hex.EncodeToString(sum[:])
		c.QueryHashAlg = "SHA512"
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(e.secretKey))
}

type accountDTO struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Locked       string `json:"locked"`
	AvgBuyPrice  string `json:"avg_buy_price"`
	UnitCurrency string `json:"unit_currency"`
}

type orderDTO struct {
	UUID            string `json:"uuid"`
	Side            string `json:"side"`
	OrdType         string `json:"ord_type"`
	Price           string `json:"price"`
	Volume          string `json:"volume"`
	State           string `json:"state"`
	Market          string `json:"market"`
	ExecutedVolume  string `json:"executed_volume"`
	PaidFee         string `json:"paid_fee"`
	RemainingVolume string `json:"remaining_volume"`
}

func num(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func (e *Exchange) accounts(ctx context.Context) ([]accountDTO, error) {
	tok, err := e.token(nil)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	var out []accountDTO
	resp, err := e.http.R(ctx).SetAuthToken(tok).Get("/v1/accounts")
	if err := api.DecodeJSON(resp, err, &out); err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	return out, nil
}

func (e *Exchange) account(ctx context.Context, currency string) (accountDTO, bool, error) {
	accts, err := e.accounts(ctx)
	if err != nil {
		return accountDTO{}, false, err
	}
	for _, a := range accts {
		if a.Currency == currency {
			return a, true, nil
		}
	}
	return accountDTO{}, false, nil
}

func (e *Exchange) QuoteBalance(ctx context.Context) (float64, error) {
	a, _, err := e.account(ctx, e.quoteCcy)
	if err != nil {
		return 0, err
	}
	return num(a.Balance), nil
}

func (e *Exchange) PositionBalance(ctx context.Context, instrument types.Instrument) (float64, error) {
	a, _, err := e.account(ctx, types.BaseCurrency(instrument))
	if err != nil {
		return 0, err
	}
	return num(a.Balance), nil
}

func (e *Exchange) AveragePrice(ctx context.Context, instrument types.Instrument) (float64, error) {
	a, _, err := e.account(ctx, types.BaseCurrency(instrument))
	if err != nil {
		return 0, err
	}
	return num(a.AvgBuyPrice), nil
}

func (e *Exchange) CurrentPrice(ctx context.Context, instrument types.Instrument) (float64, error) {
	return e.prices.CurrentPrice(ctx, instrument)
}

func (e *Exchange) Balances(ctx context.Context) ([]types.Holding, error) {
	accts, err := e.accounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Holding, 0, len(accts))
	for _, a := range accts {
		bal := num(a.Balance)
		if bal == 0 {
			continue
		}
		out = append(out, types.Holding{Currency: a.Currency, Balance: bal, AvgEntryPrice: num(a.AvgBuyPrice)})
	}
	return out, nil
}

// MarketBuy places a bid priced in quote currency. Upbit KRW prices are integers.
func (e *Exchange) MarketBuy(ctx context.Context, instrument types.Instrument, quoteAmount float64) (types.OrderResp, error) {
	params := url.Values{}
	params.Set("market", instrument)
	params.Set("side", "bid")
	params.Set("ord_type", "price")
	params.Set("price", decimal.NewFromFloat(quoteAmount).Floor().String())
	resp, err := e.placeOrder(ctx, params)
	if err != nil {
		return resp, err
	}
	resp.Amount = quoteAmount
	return resp, nil
}

// MarketSell places an ask for volume units of the base currency.
func (e *Exchange) MarketSell(ctx context.Context, instrument types.Instrument, volume float64) (types.OrderResp, error) {
	params := url.Values{}
	params.Set("market", instrument)
	params.Set("side", "ask")
	params.Set("ord_type", "market")
	params.Set("volume", decimal.NewFromFloat(volume).Truncate(8).String())
	return e.placeOrder(ctx, params)
}

func (e *Exchange) placeOrder(ctx context.Context, params url.Values) (types.OrderResp, error) {
	tok, err := e.token(params)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("sign request: %w", err)
	}
	body := make(map[string]string, len(params))
	for k := range params {
		body[k] = params.Get(k)
	}

	var o orderDTO
	resp, err := e.http.R(ctx).
		SetAuthToken(tok).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v1/orders")
	if err := api.DecodeJSON(resp, err, &o); err != nil {
		return types.OrderResp{}, fmt.Errorf("order %s %s: %w", params.Get("side"), params.Get("market"), err)
	}
	return types.OrderResp{
		OrderID: o.UUID,
		Status:  o.State,
		Price:   num(o.Price),
		Volume:  num(o.Volume),
	}, nil
}
