package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "maintenance_"

// Result labels for ingest observations.
const (
	IngestResultSuccess = "success"
	IngestResultError   = "error"
)

var (
	registerOnce sync.Once

	readingsProcessed prometheus.Counter
	readingsRejected  *prometheus.CounterVec
	alertsTotal       *prometheus.CounterVec

	chunkRows    prometheus.Histogram
	chunkLatency prometheus.Histogram

	sinkErrors prometheus.Counter

	ingestRequests *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
)

// Init registers engine metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		readingsProcessed = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_processed_total",
				Help: "Total readings classified and applied to windows",
			},
		)
		readingsRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_rejected_total",
				Help: "Total readings rejected at the validation boundary, by reason",
			},
			[]string{"reason"},
		)
		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Total alert records emitted, by severity",
			},
			[]string{"severity"},
		)
		chunkRows = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "chunk_rows",
				Help:    "Rows per processed chunk in chunked mode",
				Buckets: prometheus.ExponentialBuckets(1, 4, 6),
			},
		)
		chunkLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "chunk_latency_seconds",
				Help:    "Chunk processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		sinkErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "sink_errors_total",
				Help: "Total alert sink emission failures",
			},
		)
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total HTTP reading submissions by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "HTTP reading submission latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			readingsProcessed,
			readingsRejected,
			alertsTotal,
			chunkRows,
			chunkLatency,
			sinkErrors,
			ingestRequests,
			ingestLatency,
		)
	})
}

// IncReadingProcessed counts one classified reading.
func IncReadingProcessed() {
	if readingsProcessed != nil {
		readingsProcessed.Inc()
	}
}

// IncReadingRejected counts one rejected reading by reason.
func IncReadingRejected(reason string) {
	if readingsRejected != nil {
		readingsRejected.WithLabelValues(reason).Inc()
	}
}

// IncAlert counts one emitted record by severity.
func IncAlert(severity string) {
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(severity).Inc()
	}
}

// ObserveChunk records one processed chunk.
func ObserveChunk(rows int, elapsed time.Duration) {
	if chunkRows != nil {
		chunkRows.Observe(float64(rows))
	}
	if chunkLatency != nil {
		chunkLatency.Observe(elapsed.Seconds())
	}
}

// IncSinkError counts one sink emission failure.
func IncSinkError() {
	if sinkErrors != nil {
		sinkErrors.Inc()
	}
}

// ObserveIngest records one HTTP reading submission.
func ObserveIngest(result string, elapsed time.Duration) {
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(elapsed.Seconds())
	}
}
