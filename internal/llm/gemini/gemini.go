package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"llm-crypto-trader/internal/api"
	"llm-crypto-trader/internal/llm"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/trace"
	"llm-crypto-trader/internal/types"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

type GeminiDecider struct {
	cfg    *store.Config
	apiKey string
	http   *api.Client
}

type Option func(*options)

type options struct{ baseURL string }

func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = u } }

func NewGeminiDecider(cfg *store.Config, apiKey string, opts ...Option) *GeminiDecider {
	o := options{baseURL: DefaultBaseURL}
	for _, fn := range opts {
		fn(&o)
	}
	timeout := cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiDecider{
		cfg:    cfg,
		apiKey: apiKey,
		http: api.NewClient(
			api.WithBaseURL(o.baseURL),
			api.WithTimeout(timeout),
			api.WithHeader("x-goog-api-key", apiKey),
			api.WithLogging(true),
		),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content       `json:"systemInstruction,omitempty"`
	Contents          []content      `json:"contents"`
	GenerationConfig  map[string]any `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

func (d *GeminiDecider) Decide(ctx context.Context, instrument types.Instrument, snap types.MarketSnapshot, pctx types.PortfolioContext) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	if d.apiKey == "" {
		return types.Decision{}, errors.New("GEMINI_API_KEY missing")
	}

	system := d.cfg.LLM.System
	if system == "" {
		system = llm.DefaultSystem
	}
	body := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: system}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: llm.BuildPrompt(instrument, snap, pctx)}}}},
		GenerationConfig: map[string]any{
			"temperature":      d.cfg.LLM.Temperature,
			"maxOutputTokens":  d.cfg.LLM.MaxTokens,
			"responseMimeType": "application/json",
		},
	}

	start := time.Now()
	var r generateResponse
	resp, err := d.http.R(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", d.cfg.LLM.Model))
	if err := api.DecodeJSON(resp, err, &r); err != nil {
		return types.Decision{}, fmt.Errorf("gemini: %w", err)
	}
	logger.Debug(ctx, "Received response from Gemini",
		"instrument", instrument,
		"latency_ms", time.Since(start).Milliseconds(),
		"candidates", len(r.Candidates),
	)

	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return types.Decision{}, fmt.Errorf("gemini: %w: no candidates", types.ErrMalformedResponse)
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return llm.ParseDecision(sb.String())
}
