package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for order lifecycle and webhook delivery
var (
	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		},
	)

	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"from", "to"},
	)

	WebhookAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_attempts_total",
			Help: "Total number of webhook POST attempts",
		},
		[]string{"result"},
	)

	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total number of webhook deliveries by destination kind and outcome",
		},
		[]string{"destination", "outcome"},
	)

	WebhookDeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_delivery_duration_seconds",
			Help:    "Duration of a webhook delivery including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"destination"},
	)

	OrdersByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orders_by_status",
			Help: "Number of orders per status at the last stats refresh",
		},
		[]string{"status"},
	)

	PendingAccounts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orders_pending_accounts",
			Help: "Accounts awaiting provisioning per timezone",
		},
		[]string{"timezone"},
	)

	NotificationsDedupedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_deduplicated_total",
			Help: "Total number of notify calls that joined an in-flight fan-out",
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(OrdersCreatedTotal)
	prometheus.MustRegister(OrderTransitionsTotal)
	prometheus.MustRegister(WebhookAttemptsTotal)
	prometheus.MustRegister(WebhookDeliveriesTotal)
	prometheus.MustRegister(WebhookDeliveryDuration)
	prometheus.MustRegister(NotificationsDedupedTotal)
	prometheus.MustRegister(OrdersByStatus)
	prometheus.MustRegister(PendingAccounts)
}
