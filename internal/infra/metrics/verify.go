package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		VerifyRequests,
		VerifyDuration,
	)
}

var (
	// Count of verification pulls grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): declined|transport|empty_id
	VerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of gateway verification pulls by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of the verification round trip grouped by result.
	VerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of gateway verification pulls in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
)
