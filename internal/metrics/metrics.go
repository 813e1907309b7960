package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classification
	ParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transition_parse_total",
			Help: "Inputs classified, by sub-format and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Relay
	RelayTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transition_relay_total",
			Help: "POSTs to the aggregation service, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	RelayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transition_relay_duration_seconds",
			Help:    "Duration of relay POSTs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Kafka mirror
	MirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transition_mirror_errors_total",
			Help: "Submissions that could not be mirrored to Kafka",
		},
	)

	// Inbound
	InboundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transition_inbound_total",
			Help: "Strings received from tracking clients, by source",
		},
		[]string{"source"},
	)
)
