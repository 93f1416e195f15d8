package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeOK           = "ok"
	OutcomeNetwork      = "network_error"
	OutcomeCredential   = "credential_error"
	OutcomeUnauthorized = "unauthorized"
)

// Metrics holds the Prometheus metrics for backend requests
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the gateway metrics and registers them on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_auth_gateway_requests_total",
			Help: "Total number of auth backend requests by operation and outcome",
		}, []string{"op", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_auth_gateway_request_duration_seconds",
			Help:    "Latency of auth backend requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (m *Metrics) observe(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(op, outcome).Inc()
	m.Duration.WithLabelValues(op).Observe(elapsed.Seconds())
}
