package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the trader's collectors. Each instance owns its registry so
// tests can build one without touching the global default.
type Metrics struct {
	Registry *prometheus.Registry

	Cycles        *prometheus.CounterVec
	Decisions     *prometheus.CounterVec
	Orders        *prometheus.CounterVec
	Equity        prometheus.Gauge
	SlotsUsed     prometheus.Gauge
	Swaps         prometheus.Counter
	CycleDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_cycles_total",
			Help: "Decision cycles run, by result.",
		}, []string{"result"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_decisions_total",
			Help: "Final per-instrument decisions, by action and reason code.",
		}, []string{"action", "reason"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_total",
			Help: "Orders placed on the exchange, by mode, side and result.",
		}, []string{"mode", "side", "result"}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_equity",
			Help: "Total account equity in the quote currency at cycle start.",
		}),
		SlotsUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_slots_used",
			Help: "Held positions above the dust threshold after sequencing.",
		}),
		Swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_swaps_total",
			Help: "Opportunity swaps completed.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_cycle_duration_seconds",
			Help:    "Wall time of a full decision cycle.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
	}
	m.Registry.MustRegister(
		m.Cycles, m.Decisions, m.Orders, m.Equity, m.SlotsUsed, m.Swaps, m.CycleDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveOrder(mode, side string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Orders.WithLabelValues(mode, side, result).Inc()
}

func (m *Metrics) ObserveDecision(action, reason string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) ObserveCycle(seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Cycles.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(seconds)
}

func (m *Metrics) SetEquity(v float64) {
	if m == nil {
		return
	}
	m.Equity.Set(v)
}

func (m *Metrics) SetSlotsUsed(n int) {
	if m == nil {
		return
	}
	m.SlotsUsed.Set(float64(n))
}

func (m *Metrics) IncSwaps() {
	if m == nil {
		return
	}
	m.Swaps.Inc()
}
