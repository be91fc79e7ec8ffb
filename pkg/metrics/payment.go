package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Domain counters for the payment flow. HTTP-level metrics come from the gin
// middleware in this package; these track business events.
var (
	PaymentsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "payments",
			Name:      "started_total",
			Help:      "Charge attempts started, partitioned by method and gateway.",
		},
		[]string{"method", "gateway"},
	)

	WebhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "payments",
			Name:      "webhooks_received_total",
			Help:      "Gateway webhook deliveries, partitioned by handling outcome.",
		},
		[]string{"outcome"},
	)

	PaidEffects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "payments",
			Name:      "application_paid_total",
			Help:      "Times the one-time application paid effect actually fired.",
		},
	)

	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "payments",
			Name:      "gateway_calls_total",
			Help:      "Outbound gateway calls, partitioned by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	GatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: "payments",
			Name:      "gateway_call_duration_ms",
			Help:      "Outbound gateway call latency in milliseconds, partitioned by operation.",
			Buckets:   HistogramBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(PaymentsStarted, WebhooksReceived, PaidEffects, GatewayCalls, GatewayCallDuration)
}
