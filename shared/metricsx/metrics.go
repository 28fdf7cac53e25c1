package metricsx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_published_total",
			Help: "Domain events published, by event kind.",
		},
		[]string{"kind"},
	)
	eventHandlerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_event_handler_failures_total",
			Help: "Event handler failures, by event kind.",
		},
		[]string{"kind"},
	)
	eventLogWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "event_log_write_failures_total",
			Help: "Failed appends to the durable event log.",
		},
	)
	txnCommits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transactions_committed_total",
			Help: "Unit-of-work transactions committed.",
		},
	)
	txnRollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transactions_rolled_back_total",
			Help: "Unit-of-work transactions rolled back.",
		},
	)
	bulkOperations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bulk_transaction_operations",
			Help:    "Operations executed per bulk transaction.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)
	kafkaPublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kafka_publish_failures_total",
			Help: "Total Kafka publish failures.",
		},
	)
	influxWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "influx_write_failures_total",
			Help: "Total InfluxDB write failures.",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		httpRequests, httpLatency,
		eventsPublished, eventHandlerFailures, eventLogWriteFailures,
		txnCommits, txnRollbacks, bulkOperations,
		kafkaPublishFailures, influxWriteFailures,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		status := strconv.Itoa(lrw.statusCode)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpLatency.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}

func IncEventPublished(kind string) {
	eventsPublished.WithLabelValues(kind).Inc()
}

func IncEventHandlerFailure(kind string) {
	eventHandlerFailures.WithLabelValues(kind).Inc()
}

func IncEventLogWriteFailure() {
	eventLogWriteFailures.Inc()
}

func IncTxnCommit() {
	txnCommits.Inc()
}

func IncTxnRollback() {
	txnRollbacks.Inc()
}

func ObserveBulkOperations(count int) {
	bulkOperations.Observe(float64(count))
}

func IncKafkaPublishFailure() {
	kafkaPublishFailures.Inc()
}

func IncInfluxWriteFailure() {
	influxWriteFailures.Inc()
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
