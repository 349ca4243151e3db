package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookDeliveries counts delivery attempts by outcome ("success" or "failure").
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teamsync",
		Subsystem: "webhooks",
		Name:      "deliveries_total",
		Help:      "Webhook delivery attempts by outcome.",
	}, []string{"outcome", "event"})

	// WebhookDeliveryDuration observes wall time of a single delivery attempt.
	WebhookDeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "teamsync",
		Subsystem: "webhooks",
		Name:      "delivery_duration_seconds",
		Help:      "Duration of webhook delivery attempts.",
		Buckets:   prometheus.DefBuckets,
	})

	// DispatchesSkipped counts dispatch calls that ended before any delivery.
	DispatchesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teamsync",
		Subsystem: "webhooks",
		Name:      "dispatches_skipped_total",
		Help:      "Dispatch calls that produced no deliveries, by reason.",
	}, []string{"reason"})
)
