package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachteam",
			Name:      "routing_decisions_total",
			Help:      "Total routing decisions by rule and mode",
		},
		[]string{"rule", "mode"},
	)

	handoffEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachteam",
			Name:      "handoff_events_total",
			Help:      "Total handoff lifecycle events",
		},
		[]string{"event"}, // "proposed", "confirmed", "rejected", "seamless"
	)

	completionCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachteam",
			Name:      "completion_calls_total",
			Help:      "Total completion service calls",
		},
		[]string{"role", "status"},
	)

	completionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coachteam",
			Name:      "completion_duration_seconds",
			Help:      "Duration of completion service calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"role"},
	)

	turnsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coachteam",
			Name:      "turns_active",
			Help:      "Number of message turns currently being processed",
		},
	)
)
