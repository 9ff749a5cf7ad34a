package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		webhookRequestsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment transitions by provider and status (pending/paid/canceled/failed).",
		},
		[]string{"provider", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_uzs_total",
			Help: "Total UZS value of settled payments, labeled by provider.",
		},
		[]string{"provider"},
	)

	webhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_requests_total",
			Help: "Webhook callbacks by provider and outcome (ok/fault).",
		},
		[]string{"provider", "outcome"},
	)
)

func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddPaymentRevenue(provider string, amountUzs int64) {
	paymentsRevenueTotal.WithLabelValues(norm(provider)).Add(float64(amountUzs))
}

func IncWebhookRequest(provider, outcome string) {
	webhookRequestsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}
