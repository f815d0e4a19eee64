package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics tracks checkout, completion and provider health.
type PaymentMetrics struct {
	Checkouts        *prometheus.CounterVec
	Completions      *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	m := &PaymentMetrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "checkouts_total",
			Help:      "Checkout attempts, by provider and result.",
		}, []string{"provider", "result"}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "completions_total",
			Help:      "Purchase settlement outcomes, by provider, source and result.",
		}, []string{"provider", "source", "result"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of payment provider API calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"provider", "operation"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "circuit_breaker_state",
			Help:      "Provider circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"provider"}),
	}

	reg.MustRegister(m.Checkouts, m.Completions, m.WebhookEvents, m.ProviderDuration, m.BreakerState)
	return m
}
