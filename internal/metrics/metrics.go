package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centreconnect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "centreconnect_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CheckoutSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centreconnect_checkout_sessions_total",
			Help: "Checkout session requests by outcome",
		},
		[]string{"outcome"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centreconnect_webhook_events_total",
			Help: "Processed webhook deliveries by event type and response status",
		},
		[]string{"type", "status"},
	)

	TokenCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centreconnect_token_credits_total",
			Help: "Reconcile attempts by result (credited, duplicate, failed)",
		},
		[]string{"result"},
	)

	TokensCreditedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "centreconnect_tokens_credited_total",
			Help: "Total number of tokens credited from purchases",
		},
	)

	TokensDeductedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "centreconnect_tokens_deducted_total",
			Help: "Total number of tokens spent",
		},
	)

	SweepSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centreconnect_sweep_sessions_total",
			Help: "Checkout sessions inspected by the reconciliation sweep",
		},
		[]string{"outcome"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centreconnect_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "centreconnect_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCheckoutSession(outcome string) {
	CheckoutSessionsTotal.WithLabelValues(outcome).Inc()
}

func RecordWebhookEvent(eventType, status string) {
	WebhookEventsTotal.WithLabelValues(eventType, status).Inc()
}

// RecordTokenCredit counts a reconcile outcome. tokens is added to the
// credited total only for the "credited" result.
func RecordTokenCredit(result string, tokens int64) {
	TokenCreditsTotal.WithLabelValues(result).Inc()
	if result == "credited" && tokens > 0 {
		TokensCreditedTotal.Add(float64(tokens))
	}
}

func RecordTokenDeduction(tokens int64) {
	TokensDeductedTotal.Add(float64(tokens))
}

func RecordSweepSession(outcome string) {
	SweepSessionsTotal.WithLabelValues(outcome).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func SetEmailQueueLength(n int64) {
	EmailQueueLength.Set(float64(n))
}
