// Package metrics defines the Prometheus collectors exported by the chat relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeCached  = "cached"
	OutcomeFailure = "failure"
)

// Metrics groups the relay's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ConnectedClients  prometheus.Gauge
	Broadcasts        prometheus.Counter
	BroadcastFailures prometheus.Counter
	Commands          *prometheus.CounterVec
	RateFetches       *prometheus.CounterVec
	FetchLatency      prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exchange_chat_connected_clients",
			Help: "Number of WebSocket clients currently registered with the hub",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchange_chat_broadcasts_total",
			Help: "Total number of messages broadcast to all clients",
		}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchange_chat_broadcast_failures_total",
			Help: "Total number of per-client deliveries that could not be queued",
		}),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_chat_commands_total",
				Help: "Total number of inbound chat lines by classification",
			},
			[]string{"kind"},
		),
		RateFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_chat_rate_fetches_total",
				Help: "Total number of daily exchange rate lookups by outcome",
			},
			[]string{"outcome"},
		),
		FetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exchange_chat_rate_fetch_latency_seconds",
			Help:    "Latency in seconds of upstream exchange rate requests",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.ConnectedClients,
		m.Broadcasts,
		m.BroadcastFailures,
		m.Commands,
		m.RateFetches,
		m.FetchLatency,
	)
	return m
}

// SetConnected records the current hub membership.
func (m *Metrics) SetConnected(n int) {
	if m == nil {
		return
	}
	m.ConnectedClients.Set(float64(n))
}

// ObserveBroadcast records one broadcast and the number of failed deliveries.
func (m *Metrics) ObserveBroadcast(failed int) {
	if m == nil {
		return
	}
	m.Broadcasts.Inc()
	m.BroadcastFailures.Add(float64(failed))
}

// ObserveCommand counts an inbound line of the given kind.
func (m *Metrics) ObserveCommand(kind string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(kind).Inc()
}

// ObserveFetch counts a rate lookup and, for upstream requests, its latency.
func (m *Metrics) ObserveFetch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.RateFetches.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCached {
		m.FetchLatency.Observe(seconds)
	}
}
