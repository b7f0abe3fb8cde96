// Package metrics defines the Prometheus instruments for the chat relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument the relay exports. It is constructed
// once at startup against a caller-supplied registry and passed by
// injection; there are no package-level singletons.
type Metrics struct {
	Messages       *prometheus.CounterVec
	RateLimitHits  *prometheus.CounterVec
	APICalls       *prometheus.CounterVec
	Processing     prometheus.Histogram
	APIResponse    prometheus.Histogram
	ActiveSessions prometheus.Gauge
}

// New registers the relay's instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whatsapp_messages_total",
			Help: "Total messages processed",
		}, []string{"message_type", "status"}),
		RateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whatsapp_rate_limits_total",
			Help: "Total rate limit hits",
		}, []string{"user"}),
		APICalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whatsapp_api_calls_total",
			Help: "Total WhatsApp API calls",
		}, []string{"endpoint", "status"}),
		Processing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "whatsapp_message_processing_seconds",
			Help: "Time spent processing messages",
		}),
		APIResponse: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "whatsapp_api_response_seconds",
			Help: "WhatsApp API response time",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whatsapp_active_sessions",
			Help: "Number of active user sessions",
		}),
	}

	reg.MustRegister(
		m.Messages,
		m.RateLimitHits,
		m.APICalls,
		m.Processing,
		m.APIResponse,
		m.ActiveSessions,
	)
	return m
}
