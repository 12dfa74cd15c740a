package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Ingestion metrics
	transfersSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfers_submitted_total",
			Help: "Total number of transfer submissions",
		},
		[]string{"result"},
	)

	// Queue metrics
	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of messages waiting for delivery",
		},
		[]string{"queue_name"},
	)

	queueDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_deliveries_total",
			Help: "Total number of message deliveries by outcome",
		},
		[]string{"queue_name", "outcome"},
	)

	// Settlement metrics
	settlementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Settlement processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	deadLetteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dead_lettered_total",
			Help: "Total number of messages moved to the dead-letter queue",
		},
		[]string{"queue_name", "reason"},
	)

	systemErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "component"},
	)
)

// HTTP Metrics
func RecordHTTPRequest(method, endpoint, statusCode string, duration float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration)
}

// Ingestion Metrics
func RecordSubmission(result string) {
	transfersSubmittedTotal.WithLabelValues(result).Inc()
}

// Queue Metrics
func SetQueueDepth(queueName string, depth float64) {
	queueDepth.WithLabelValues(queueName).Set(depth)
}

func RecordDelivery(queueName, outcome string) {
	queueDeliveriesTotal.WithLabelValues(queueName, outcome).Inc()
}

func RecordDeadLetter(queueName, reason string) {
	deadLetteredTotal.WithLabelValues(queueName, reason).Inc()
}

// Settlement Metrics
func RecordSettlement(outcome string, duration float64) {
	settlementDuration.WithLabelValues(outcome).Observe(duration)
}

// Application Metrics
func RecordSystemError(errorType, component string) {
	systemErrorsTotal.WithLabelValues(errorType, component).Inc()
}
