// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClaimsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expense_claims_submitted_total",
			Help: "Total number of expense claims submitted",
		},
	)

	ClaimTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_claim_transitions_total",
			Help: "Total number of approval decisions applied, by level and resulting status",
		},
		[]string{"level", "status"},
	)

	ClaimDecisionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_claim_decisions_refused_total",
			Help: "Total number of decide calls refused, by error category",
		},
		[]string{"category"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notification records persisted per transition type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ChannelDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_deliveries_total",
			Help: "Delivery attempts per channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	DevicesDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_devices_deactivated_total",
			Help: "Device endpoints deactivated after a failed delivery",
		},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_dispatch_duration_seconds",
			Help: "Duration of a full dispatch fan-out in seconds",
		},
		[]string{"type"},
	)

	EventQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transition_event_queue_depth",
			Help: "Transition events waiting for a dispatch worker",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transition_events_dropped_total",
			Help: "Transition events refused because the queue was full or closed",
		},
	)
)
