package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"llm-crypto-trader/internal/api"
	"llm-crypto-trader/internal/llm"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/trace"
	"llm-crypto-trader/internal/types"
)

const DefaultBaseURL = "https://api.openai.com"

type OpenAIDecider struct {
	cfg    *store.Config
	apiKey string
	http   *api.Client
}

func NewOpenAIDecider(cfg *store.Config, apiKey, baseURL string) *OpenAIDecider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIDecider{
		cfg:    cfg,
		apiKey: apiKey,
		http: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
			api.WithLogging(true),
		),
	}
}

func (d *OpenAIDecider) Decide(ctx context.Context, instrument types.Instrument, snap types.MarketSnapshot, pctx types.PortfolioContext) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if d.apiKey == "" {
		return types.Decision{}, errors.New("OPENAI_API_KEY missing")
	}

	system := d.cfg.LLM.System
	if system == "" {
		system = llm.DefaultSystem
	}
	body := map[string]any{
		"model": d.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": llm.BuildPrompt(instrument, snap, pctx)},
		},
		"temperature":     d.cfg.LLM.Temperature,
		"max_tokens":      d.cfg.LLM.MaxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	resp, err := d.http.R(ctx).
		SetAuthToken(d.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v1/chat/completions")
	if err := api.DecodeJSON(resp, err, &r); err != nil {
		return types.Decision{}, fmt.Errorf("openai: %w", err)
	}

	if len(r.Choices) == 0 {
		return types.Decision{}, fmt.Errorf("openai: %w: no choices", types.ErrMalformedResponse)
	}
	return llm.ParseDecision(r.Choices[0].Message.Content)
}
