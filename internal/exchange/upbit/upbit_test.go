package upbit

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/types"
)

const secret = "test-secret"

type stubPrices struct{}

func (stubPrices) CurrentPrice(context.Context, types.Instrument) (float64, error) { return 100, nil }

func parseAuth(t *testing.T, r *http.Request) jwt.MapClaims {
	t.Helper()
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	c, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "access", c["access_key"])
	assert.NotEmpty(t, c["nonce"])
	return c
}

func TestBalances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts", r.URL.Path)
		c := parseAuth(t, r)
		_, hasHash := c["query_hash"]
		assert.False(t, hasHash)
		_, _ = w.Write([]byte(`[
			{"currency":"KRW","balance":"150000.5","avg_buy_price":"0","unit_currency":"KRW"},
			{"currency":"BTC","balance":"0.00123","avg_buy_price":"51000000","unit_currency":"KRW"},
			{"currency":"DOGE","balance":"0","avg_buy_price":"0","unit_currency":"KRW"}
		]`))
	}))
	defer srv.Close()

	ex := New(srv.URL, "access", secret, "KRW", stubPrices{})
	ctx := context.Background()

	hs, err := ex.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "BTC", hs[1].Currency)
	assert.Equal(t, 0.00123, hs[1].Balance)

	q, err := ex.QuoteBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150000.5, q)

	avg, err := ex.AveragePrice(ctx, "KRW-BTC")
	require.NoError(t, err)
	assert.Equal(t, 51_000_000.0, avg)

	vol, err := ex.PositionBalance(ctx, "KRW-ETH")
	require.NoError(t, err)
	assert.Zero(t, vol)
}

func TestMarketOrdersAreSignedWithQueryHash(t *testing.T) {
	var bodies []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		vals := url.Values{}
		for k, v := range body {
			vals.Set(k, v)
		}
		sum := sha512.Sum512([]byte(vals.Encode()))
		c := parseAuth(t, r)
		assert.Equal(t, hex.EncodeToString(sum[:]), c["query_hash"])
		assert.Equal(t, "SHA512", c["query_hash_alg"])

		_, _ = w.Write([]byte(`{"uuid":"abc-123","state":"wait","side":"` + body["side"] + `"}`))
	}))
	defer srv.Close()

	ex := New(srv.URL, "access", secret, "KRW", stubPrices{})
	ctx := context.Background()

	resp, err := ex.MarketBuy(ctx, "KRW-BTC", 200_000.7)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.OrderID)
	assert.Equal(t, 200_000.7, resp.Amount)

	_, err = ex.MarketSell(ctx, "KRW-BTC", 0.123456789)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, map[string]string{"market": "KRW-BTC", "side": "bid", "ord_type": "price", "price": "200000"}, bodies[0])
	assert.Equal(t, map[string]string{"market": "KRW-BTC", "side": "ask", "ord_type": "market", "volume": "0.12345678"}, bodies[1])
}

func TestOrderErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"name":"insufficient_funds_bid"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "access", secret, "KRW", stubPrices{}).MarketBuy(context.Background(), "KRW-BTC", 5000)
	assert.True(t, errors.Is(err, types.ErrTransport))
}
