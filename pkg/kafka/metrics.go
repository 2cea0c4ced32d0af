package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "cvsearch"

func eventCounter(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "events",
		Name:      name,
		Help:      help,
	}, labels)
}

var (
	consumerMessagesProcessed = eventCounter("consumed_total",
		"Transcription events applied to the index", "topic", "consumer_group")
	consumerMessagesFailed = eventCounter("failed_total",
		"Transcription events that could not be applied and went to the dead letter topic", "topic", "consumer_group")
	consumerMessagesDuplicate = eventCounter("duplicate_total",
		"Redelivered transcription events skipped by the idempotency store", "topic")
	producerMessagesPublished = eventCounter("published_total",
		"Transcription events written to Kafka", "topic")
	producerPublishErrors = eventCounter("publish_errors_total",
		"Transcription events Kafka refused", "topic")

	consumerProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "events",
			Name:      "processing_duration_seconds",
			Help:      "Time spent applying one transcription event",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic", "consumer_group"},
	)
)
