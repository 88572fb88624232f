package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"llm-crypto-trader/internal/engine"
	"llm-crypto-trader/internal/engine/engineobs"
	"llm-crypto-trader/internal/exchange/exchangeobs"
	"llm-crypto-trader/internal/exchange/paper"
	"llm-crypto-trader/internal/exchange/upbit"
	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/ledger"
	"llm-crypto-trader/internal/llm/gemini"
	"llm-crypto-trader/internal/llm/llmobs"
	"llm-crypto-trader/internal/llm/noop"
	"llm-crypto-trader/internal/llm/openai"
	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/marketdata"
	"llm-crypto-trader/internal/metrics"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/trace"
)

// app is everything a command needs after bootstrap.
type app struct {
	cfg     *store.Config
	engine  interfaces.Engine
	metrics *metrics.Metrics
}

// initializeSystem loads .env and sets up the logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush tracer: %v\n", err)
	}
	logger.Sync()
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig(configPath, configEnv)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", configPath, "env", configEnv)
		return nil, err
	}
	return cfg, nil
}

// initializeExchange picks the live exchange only in LIVE mode with both keys
// present. Everything else trades against the simulated account.
func initializeExchange(ctx context.Context, cfg *store.Config, md *marketdata.Client, m *metrics.Metrics) interfaces.Exchange {
	var ex interfaces.Exchange

	access, secret := os.Getenv("UPBIT_ACCESS_KEY"), os.Getenv("UPBIT_SECRET_KEY")
	switch {
	case cfg.Mode == "LIVE" && access != "" && secret != "":
		ex = upbit.New(os.Getenv("UPBIT_BASE_URL"), access, secret, cfg.Trader.QuoteCurrency, md)
		logger.Warn(ctx, "Running in LIVE mode - orders will be sent to the exchange")
	case cfg.Mode == "LIVE":
		logger.Warn(ctx, "LIVE mode without UPBIT_ACCESS_KEY/UPBIT_SECRET_KEY - falling back to paper trading")
		fallthrough
	default:
		ex = paper.New(md, cfg.Trader.QuoteCurrency, cfg.Paper.InitialQuoteBalance, cfg.Paper.FeeRate)
		logger.Info(ctx, "Running in DRY_RUN mode - orders will be simulated",
			"initial_quote_balance", cfg.Paper.InitialQuoteBalance,
			"fee_rate", cfg.Paper.FeeRate,
		)
	}

	return exchangeobs.Wrap(ex, m)
}

// initializeDecider builds the advisory client for cfg.LLM.Provider. A
// provider without an API key degrades to the Noop decider (always HOLD).
func initializeDecider(ctx context.Context, cfg *store.Config) interfaces.Decider {
	var decider interfaces.Decider

	switch cfg.LLM.Provider {
	case "GEMINI":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			decider = gemini.NewGeminiDecider(cfg, key)
		}
	case "OPENAI":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			decider = openai.NewOpenAIDecider(cfg, key, os.Getenv("OPENAI_BASE_URL"))
		}
	}
	if decider == nil {
		decider = noop.NewNoopDecider()
		logger.Warn(ctx, "No LLM provider available - using Noop decider (always HOLD)", "provider", cfg.LLM.Provider)
	}

	return llmobs.Wrap(decider)
}

func initializeEngine(cfg *store.Config, ex interfaces.Exchange, md interfaces.MarketData, d interfaces.Decider, l *ledger.Ledger, m *metrics.Metrics) interfaces.Engine {
	eng := engine.New(cfg, ex, md, d, l, m)
	return engineobs.Wrap(eng)
}

// bootstrap wires the full trading stack from the loaded config.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	md := marketdata.New(os.Getenv("UPBIT_BASE_URL"), cfg.Trader.IntervalMinutes, cfg.Trader.CandleCount)
	ex := initializeExchange(ctx, cfg, md, m)
	d := initializeDecider(ctx, cfg)
	l := ledger.New(cfg.Ledger.Path, cfg.Ledger.HistoryCap, cfg.Trader.QuoteCurrency)

	return &app{
		cfg:     cfg,
		engine:  initializeEngine(cfg, ex, md, d, l, m),
		metrics: m,
	}, nil
}

// startMetricsServer serves /metrics and /healthz until ctx is done.
func startMetricsServer(ctx context.Context, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info(ctx, "Metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Metrics server stopped", err, "addr", addr)
		}
	}()
}
