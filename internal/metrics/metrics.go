package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for reset requests.
const (
	OutcomeSent           = "sent"
	OutcomeInvalid        = "invalid"
	OutcomeDeliveryFailed = "delivery_failed"
)

var (
	resetRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reset_mailer_requests_total",
			Help: "Total number of password reset requests handled, by transport and outcome",
		},
		[]string{"transport", "outcome"},
	)

	emailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reset_mailer_send_duration_seconds",
			Help:    "Mail provider call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "result"},
	)

	messagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reset_mailer_messages_consumed_total",
			Help: "Total number of messages consumed from RabbitMQ, by ack decision",
		},
		[]string{"queue", "decision"},
	)
)

// RecordRequest counts one handled request.
func RecordRequest(transport, outcome string) {
	resetRequestsTotal.WithLabelValues(transport, outcome).Inc()
}

// RecordSend observes one provider call.
func RecordSend(provider string, ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	emailSendDuration.WithLabelValues(provider, result).Observe(d.Seconds())
}

// RecordMessageConsumed counts one delivery and what was done with it (ack, drop, dead_letter).
func RecordMessageConsumed(queue, decision string) {
	messagesConsumedTotal.WithLabelValues(queue, decision).Inc()
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
