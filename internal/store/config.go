package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode   string `yaml:"mode"`
	Trader struct {
		Instruments     []string      `yaml:"instruments"`
		QuoteCurrency   string        `yaml:"quote_currency"`
		IntervalMinutes int           `yaml:"interval_minutes"`
		CandleCount     int           `yaml:"candle_count"`
		AdvisoryDelay   time.Duration `yaml:"advisory_delay"`
		SwapSettleDelay time.Duration `yaml:"swap_settle_delay"`
	} `yaml:"trader"`
	Capital struct {
		MaxCoinsHeld         int     `yaml:"max_coins_held"`
		InvestmentPerTrade   float64 `yaml:"investment_per_trade"`
		MaxAllocationPerCoin float64 `yaml:"max_allocation_per_coin"`
		MinOrderValue        float64 `yaml:"min_order_value"`
		MinOrderFloor        float64 `yaml:"min_order_floor"`
		DustThreshold        float64 `yaml:"dust_threshold"`
	} `yaml:"capital"`
	Strategy struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		SwapMargin          float64 `yaml:"swap_margin"`
	} `yaml:"strategy"`
	Risk struct {
		RiskPerTrade    float64 `yaml:"risk_per_trade"`
		StopLossDefault float64 `yaml:"stop_loss_default"`
		TakeProfitMin   float64 `yaml:"take_profit_min"`
	} `yaml:"risk"`
	LLM struct {
		Provider    string        `yaml:"provider"`
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature float32       `yaml:"temperature"`
		System      string        `yaml:"system"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Ledger struct {
		Path       string `yaml:"path"`
		HistoryCap int    `yaml:"history_cap"`
	} `yaml:"ledger"`
	Paper struct {
		InitialQuoteBalance float64 `yaml:"initial_quote_balance"`
		FeeRate             float64 `yaml:"fee_rate"`
	} `yaml:"paper"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns a config populated with the aggressive-strategy defaults.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Trader.QuoteCurrency == "" {
		c.Trader.QuoteCurrency = "KRW"
	}
	if c.Trader.IntervalMinutes == 0 {
		c.Trader.IntervalMinutes = 60
	}
	if c.Trader.CandleCount == 0 {
		c.Trader.CandleCount = 240
	}
	if c.Trader.AdvisoryDelay == 0 {
		c.Trader.AdvisoryDelay = time.Second
	}
	if c.Trader.SwapSettleDelay == 0 {
		c.Trader.SwapSettleDelay = 500 * time.Millisecond
	}
	if c.Capital.MaxCoinsHeld == 0 {
		c.Capital.MaxCoinsHeld = 3
	}
	if c.Capital.InvestmentPerTrade == 0 {
		c.Capital.InvestmentPerTrade = 0.3
	}
	if c.Capital.MaxAllocationPerCoin == 0 {
		c.Capital.MaxAllocationPerCoin = 1.0
	}
	if c.Capital.MinOrderValue == 0 {
		c.Capital.MinOrderValue = 5000
	}
	if c.Capital.MinOrderFloor == 0 {
		c.Capital.MinOrderFloor = 5500
	}
	if c.Capital.DustThreshold == 0 {
		c.Capital.DustThreshold = 5000
	}
	if c.Strategy.ConfidenceThreshold == 0 {
		c.Strategy.ConfidenceThreshold = 0.55
	}
	if c.Strategy.SwapMargin == 0 {
		c.Strategy.SwapMargin = 0.20
	}
	if c.Risk.RiskPerTrade == 0 {
		c.Risk.RiskPerTrade = 0.01
	}
	if c.Risk.StopLossDefault == 0 {
		c.Risk.StopLossDefault = -0.02
	}
	if c.Risk.TakeProfitMin == 0 {
		c.Risk.TakeProfitMin = 0.03
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "GEMINI"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = filepath.Join("data", "trade", "status.json")
	}
	if c.Ledger.HistoryCap == 0 {
		c.Ledger.HistoryCap = 1000
	}
	if c.Paper.InitialQuoteBalance == 0 {
		c.Paper.InitialQuoteBalance = 1_000_000
	}
	if c.Paper.FeeRate == 0 {
		c.Paper.FeeRate = 0.0005
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if len(c.Trader.Instruments) == 0 {
		return errors.New("trader.instruments cannot be empty")
	}
	prefix := c.Trader.QuoteCurrency + "-"
	for _, inst := range c.Trader.Instruments {
		if !strings.HasPrefix(inst, prefix) {
			return fmt.Errorf("instrument '%s' is not quoted in %s", inst, c.Trader.QuoteCurrency)
		}
	}
	if c.Capital.MaxCoinsHeld < 1 {
		return fmt.Errorf("capital.max_coins_held must be >= 1, got %d", c.Capital.MaxCoinsHeld)
	}
	if c.Capital.InvestmentPerTrade <= 0 || c.Capital.InvestmentPerTrade > 1 {
		return fmt.Errorf("capital.investment_per_trade must be in (0,1], got %.2f", c.Capital.InvestmentPerTrade)
	}
	if c.Capital.MaxAllocationPerCoin <= 0 || c.Capital.MaxAllocationPerCoin > 1 {
		return fmt.Errorf("capital.max_allocation_per_coin must be in (0,1], got %.2f", c.Capital.MaxAllocationPerCoin)
	}
	if c.Capital.MinOrderFloor < c.Capital.MinOrderValue {
		return fmt.Errorf("capital.min_order_floor (%.0f) must be >= min_order_value (%.0f)", c.Capital.MinOrderFloor, c.Capital.MinOrderValue)
	}
	if c.Strategy.ConfidenceThreshold < 0 || c.Strategy.ConfidenceThreshold > 1 {
		return fmt.Errorf("strategy.confidence_threshold must be in [0,1], got %.2f", c.Strategy.ConfidenceThreshold)
	}
	if c.Strategy.SwapMargin < 0 || c.Strategy.SwapMargin > 1 {
		return fmt.Errorf("strategy.swap_margin must be in [0,1], got %.2f", c.Strategy.SwapMargin)
	}
	switch c.LLM.Provider {
	case "GEMINI", "OPENAI", "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'GEMINI', 'OPENAI' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	if c.Ledger.HistoryCap < 1 {
		return fmt.Errorf("ledger.history_cap must be >= 1, got %d", c.Ledger.HistoryCap)
	}
	return nil
}

// LoadConfig reads path and, when env is set, overlays <dir of path>/<env>.yaml
// on top of it. A missing overlay file is not an error.
func LoadConfig(path, env string) (*Config, error) {
	layers := []string{path}
	if env != "" {
		layers = append(layers, filepath.Join(filepath.Dir(path), env+".yaml"))
	}
	return LoadLayers(layers...)
}

// LoadLayers decodes each file in order over Default(), so every file
// overrides only the fields it sets, explicit zeros included. The first file
// must exist.
func LoadLayers(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		return nil, errors.New("no config file given")
	}
	c := Default()
	for i, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			if i > 0 && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
