package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cartengine"

// Notification outcomes.
const (
	OutcomeSent       = "sent"
	OutcomeFailed     = "failed"
	OutcomeSuppressed = "suppressed"
	OutcomeStale      = "stale"
)

var (
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification decisions by kind and outcome.",
	}, []string{"kind", "outcome"})

	Reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciled_lines_total",
		Help:      "Cart lines classified by reconciliation.",
	}, []string{"result"})

	ArmedCycles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "armed_reminder_cycles",
		Help:      "Users with a live abandonment reminder cycle.",
	})
)

func init() {
	prometheus.MustRegister(Notifications, Reconciliations, ArmedCycles)
}
