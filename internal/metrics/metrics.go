// Package metrics holds the Prometheus collectors shared by the billing,
// webhook and quota paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequestsTotal counts gateway webhook requests by event type and HTTP status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "projectforge",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Total payment webhook requests by event type and HTTP status.",
	}, []string{"event_type", "status"})

	// WebhookDuration tracks webhook processing latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "projectforge",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Payment webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// GatewayCallsTotal counts outbound payment gateway calls.
	GatewayCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "projectforge",
		Subsystem: "billing",
		Name:      "gateway_calls_total",
		Help:      "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	// LifecycleOperationsTotal counts subscription lifecycle operations.
	LifecycleOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "projectforge",
		Subsystem: "billing",
		Name:      "lifecycle_operations_total",
		Help:      "Subscription lifecycle operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// QuotaDenialsTotal counts rejected resource creations.
	QuotaDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "projectforge",
		Subsystem: "quota",
		Name:      "denials_total",
		Help:      "Resource creations rejected by the quota gate.",
	}, []string{"resource", "reason"})

	// QuotaResetsTotal counts tenants whose daily research counter was restored.
	QuotaResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "projectforge",
		Subsystem: "quota",
		Name:      "daily_resets_total",
		Help:      "Daily research counter resets applied.",
	})
)
