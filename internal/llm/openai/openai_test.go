package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/types"
)

func TestDecide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])

		resp := map[string]any{"choices": []any{map[string]any{"message": map[string]any{
			"content": `{"action":"SELL","confidence":0.3,"reason_code":"LOSS_CUT"}`,
		}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := store.Default()
	cfg.LLM.Model = "gpt-test"
	got, err := NewOpenAIDecider(cfg, "sk", srv.URL).
		Decide(context.Background(), "KRW-ETH", types.MarketSnapshot{}, types.PortfolioContext{})
	require.NoError(t, err)
	assert.Equal(t, types.ActionSell, got.Action)
	assert.Equal(t, types.ReasonLossCut, got.Reason)
}

func TestDecideNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIDecider(store.Default(), "sk", srv.URL).
		Decide(context.Background(), "KRW-ETH", types.MarketSnapshot{}, types.PortfolioContext{})
	assert.True(t, errors.Is(err, types.ErrMalformedResponse))
}
