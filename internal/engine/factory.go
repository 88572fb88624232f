package engine

import (
	"llm-crypto-trader/internal/interfaces"
	"llm-crypto-trader/internal/ledger"
	"llm-crypto-trader/internal/metrics"
	"llm-crypto-trader/internal/store"
)

func New(cfg *store.Config, ex interfaces.Exchange, md interfaces.MarketData, d interfaces.Decider, l *ledger.Ledger, m *metrics.Metrics, opts ...Option) interfaces.Engine {
	return newEngine(cfg, ex, md, d, l, m, opts...)
}
