// Package observability holds the service's Prometheus metrics and the sink
// that makes swallowed persistence errors visible.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	WebhookRequests     *prometheus.CounterVec
	LLMDuration         *prometheus.HistogramVec
	PersistenceFailures *prometheus.CounterVec
	Handoffs            *prometheus.CounterVec
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WebhookRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_webhook_requests_total",
			Help: "Webhook requests handled, by route and resulting IVR state.",
		}, []string{"route", "state"}),
		LLMDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_llm_request_duration_seconds",
			Help:    "Latency of model calls, by outcome.",
			Buckets: []float64{0.25, 0.5, 1, 1.5, 2, 3, 4, 6},
		}, []string{"outcome"}),
		PersistenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_persistence_failures_total",
			Help: "Datastore writes or reads that failed and were swallowed, by operation.",
		}, []string{"op"}),
		Handoffs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_handoffs_total",
			Help: "Transfers from the AI loop to a human agent, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) Webhook(route, state string) {
	if m == nil {
		return
	}
	m.WebhookRequests.WithLabelValues(route, state).Inc()
}

func (m *Metrics) LLMCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) PersistenceFailure(op string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) Handoff(reason string) {
	if m == nil {
		return
	}
	m.Handoffs.WithLabelValues(reason).Inc()
}
