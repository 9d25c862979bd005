// Package metrics exposes the shop's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartshop"

// Checkout outcome labels.
const (
	OutcomeCompleted    = "completed"
	OutcomeEmptyCart    = "empty_cart"
	OutcomeInsufficient = "insufficient_balance"
	OutcomeError        = "error"
)

type ShopMetrics struct {
	Checkouts      *prometheus.CounterVec
	CartMutations  *prometheus.CounterVec
	Balance        prometheus.Gauge
	HandlerLatency *prometheus.HistogramVec
}

// NewShopMetrics creates the instruments and registers them with reg.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "mutations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"op"})
	balance := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "balance",
		Help:      "Current shopper balance.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_ms",
		Help:      "Command handler latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"method", "code"})

	reg.MustRegister(checkouts, mutations, balance, latency)
	return &ShopMetrics{
		Checkouts:      checkouts,
		CartMutations:  mutations,
		Balance:        balance,
		HandlerLatency: latency,
	}
}

func (m *ShopMetrics) ObserveCheckout(outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome).Inc()
}

func (m *ShopMetrics) ObserveMutation(op string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(op).Inc()
}

func (m *ShopMetrics) SetBalance(v float64) {
	if m == nil {
		return
	}
	m.Balance.Set(v)
}

func (m *ShopMetrics) ObserveLatency(method, code string, ms float64) {
	if m == nil {
		return
	}
	m.HandlerLatency.WithLabelValues(method, code).Observe(ms)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
