package amqp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amqp_consumer_messages_processed_total",
			Help: "Total number of messages handled and acknowledged",
		},
		[]string{"queue"},
	)

	handlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amqp_consumer_handler_failures_total",
			Help: "Total number of handler failures (messages left unacked)",
		},
		[]string{"queue"},
	)

	processingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amqp_consumer_processing_duration_seconds",
			Help:    "Duration of message handler execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue"},
	)

	reconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amqp_consumer_reconnects_total",
			Help: "Total number of consume cycles aborted by transport errors",
		},
		[]string{"queue"},
	)

	publishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amqp_publisher_messages_published_total",
			Help: "Total number of messages published",
		},
		[]string{"queue"},
	)

	publishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amqp_publisher_publish_errors_total",
			Help: "Total number of publish failures",
		},
		[]string{"queue"},
	)
)
