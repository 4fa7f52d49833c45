package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsFetchedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "records_fetched_total",
			Help:      "Total raw records returned by the upstream panel.",
		},
	)

	pollFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "poll_failures_total",
			Help:      "Total failed upstream poll cycles.",
		},
		[]string{"reason"}, // "auth_expired", "unavailable"
	)

	duplicatesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "duplicates_total",
			Help:      "Total records filtered as duplicates.",
		},
	)

	malformedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "malformed_records_total",
			Help:      "Total records dropped for missing number or text.",
		},
	)

	extractedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "extracted_total",
			Help:      "Extraction outcomes by confidence.",
		},
		[]string{"confidence"},
	)

	enqueuedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "enqueued_total",
			Help:      "Items accepted into a delivery queue.",
		},
		[]string{"class"},
	)

	queueDroppedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "queue_dropped_total",
			Help:      "Items dropped because a delivery queue was full.",
		},
		[]string{"class"},
	)

	queueDepthGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "otp_relay",
			Name:      "queue_depth",
			Help:      "Current depth of each delivery queue.",
		},
		[]string{"class"},
	)

	deliveredCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "delivered_total",
			Help:      "Successful sends by destination class.",
		},
		[]string{"class"},
	)

	sendFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "send_failures_total",
			Help:      "Permanently failed sends, dropped without retry.",
		},
		[]string{"class"},
	)

	rateLimitedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "rate_limited_total",
			Help:      "Sends deferred by the messaging API's rate limiter.",
		},
		[]string{"class"},
	)

	retentionPurgedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "otp_relay",
			Name:      "retention_purged_rows_total",
			Help:      "History rows removed by the retention sweep.",
		},
	)

	dedupWindowGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "otp_relay",
			Name:      "dedup_window_size",
			Help:      "Fingerprints currently held by the dedup window.",
		},
	)
)
