package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts movements of the like economy.
type LedgerMetrics struct {
	Likes        *prometheus.CounterVec
	Unlikes      prometheus.Counter
	Matches      prometheus.Counter
	Insufficient *prometheus.CounterVec
	RateLimited  *prometheus.CounterVec
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		Likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "likes_total",
			Help:      "Likes given, by type.",
		}, []string{"type"}),
		Unlikes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "unlikes_total",
			Help:      "Unlikes given.",
		}),
		Matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "matches_total",
			Help:      "Matches created.",
		}),
		Insufficient: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "insufficient_balance_total",
			Help:      "Debits refused for lack of balance, by action.",
		}, []string{"action"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rate_limited_total",
			Help:      "Actions refused by the per-user rate limiter, by action.",
		}, []string{"action"}),
	}

	reg.MustRegister(m.Likes, m.Unlikes, m.Matches, m.Insufficient, m.RateLimited)
	return m
}
