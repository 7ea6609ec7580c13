package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stream metrics
	EventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_router_stream_events_total",
			Help: "Total number of events read from the stream",
		},
	)

	BatchesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_router_stream_batches_total",
			Help: "Total number of event batches read from the stream",
		},
	)

	StreamErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_router_stream_errors_total",
			Help: "Total number of stream-level errors",
		},
	)

	// Routing metrics
	EventsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_router_events_routed_total",
			Help: "Total number of events sent to a queue",
		},
		[]string{"queue", "status"},
	)

	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_router_send_duration_seconds",
			Help:    "Duration of a single queue send, including sender open and close",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue"},
	)

	// Listener metrics
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_router_queue_messages_total",
			Help: "Total number of messages received from a queue",
		},
		[]string{"queue"},
	)

	ReceiveErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_router_queue_receive_errors_total",
			Help: "Total number of queue receive errors",
		},
		[]string{"queue"},
	)

	// Persistence metrics
	RecordsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_router_records_persisted_total",
			Help: "Total number of delivery records written",
		},
		[]string{"queue", "status"},
	)

	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_router_persist_duration_seconds",
			Help:    "Duration of delivery record writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Queue metrics
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_router_queue_depth",
			Help: "Current number of messages waiting on a queue",
		},
		[]string{"queue"},
	)
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StatusOf maps an operation result to a status label
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
