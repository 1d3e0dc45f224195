package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		notificationsTotal,
		notificationDuplicatesTotal,
		notificationSecretScrubsTotal,
	)
}

var (
	// outcome: accepted|rejected|regression|error
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Webhook notifications by status and outcome.",
		},
		[]string{"status", "outcome"},
	)

	notificationDuplicatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_notification_duplicates_total",
			Help: "Re-delivered notifications absorbed by the dedup store.",
		},
	)

	notificationSecretScrubsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_notification_secret_scrubs_total",
			Help: "Notifications that carried a secret before the completed state.",
		},
	)
)

func IncNotification(status, outcome string) {
	notificationsTotal.WithLabelValues(norm(status), norm(outcome)).Inc()
}

func IncNotificationDuplicate() { notificationDuplicatesTotal.Inc() }

func IncSecretScrub() { notificationSecretScrubsTotal.Inc() }
