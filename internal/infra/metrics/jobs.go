package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		lifecycleRunsTotal,
		notificationsTotal,
	)
}

var (
	lifecycleRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_runs_total",
			Help: "Lifecycle sweep runs, labeled by status.",
		},
		[]string{"status"}, // 'success', 'partial_fail'
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_notifications_total",
			Help: "Lifecycle notifications attempted, labeled by outcome.",
		},
		[]string{"outcome"}, // 'sent', 'failed'
	)
)

func IncLifecycleRun(status string) {
	lifecycleRunsTotal.WithLabelValues(norm(status)).Inc()
}

func IncNotification(outcome string) {
	notificationsTotal.WithLabelValues(norm(outcome)).Inc()
}
