// Package metrics provides Prometheus metrics for the feature ingestion pipeline.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Rejection classes used as the "class" label on rejected records.
const (
	ClassTransport = "transport"
	ClassClient    = "status_4xx"
	ClassServer    = "status_5xx"
	ClassOther     = "status_other"
)

// Manager manages all Prometheus metrics for the ingestion pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         *prometheus.Registry

	// Pipeline throughput
	rowsRead         prometheus.Counter
	recordsBuilt     prometheus.Counter
	featuresExcluded prometheus.Counter

	// Delivery outcomes
	recordsAccepted prometheus.Counter
	recordsRejected *prometheus.CounterVec
	putLatency      prometheus.Histogram

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge

	// Batch
	batchDuration    prometheus.Gauge
	batchLastRunUnix prometheus.Gauge
	exportRows       prometheus.Counter

	// Status server
	httpRequests *prometheus.CounterVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fsingest",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Registry returns the registry the manager's metrics live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "rows_read_total",
		Help: "Total number of dataset rows read",
	})
	m.recordsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "records_built_total",
		Help: "Total number of feature records built",
	})
	m.featuresExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "features_excluded_total",
		Help: "Total number of feature values left out as missing",
	})

	m.recordsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "records_accepted_total",
		Help: "Total number of records accepted by the feature store",
	})
	m.recordsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "records_rejected_total",
		Help: "Total number of records rejected, by rejection class",
	}, []string{"class"})
	m.putLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "put_latency_milliseconds",
		Help:    "Latency of single-record puts in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "queue_size",
		Help: "Current number of rows waiting for a worker",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "queue_capacity",
		Help: "Maximum row queue capacity",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "worker_count",
		Help: "Number of ingestion workers",
	})

	m.batchDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "batch_duration_seconds",
		Help: "Duration of the last batch in seconds",
	})
	m.batchLastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "batch_last_run_unix",
		Help: "Unix time the last batch finished",
	})
	m.exportRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "export_rows_total",
		Help: "Total number of rows written to the processed-features export",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "requests_total",
		Help: "Total number of status server requests",
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_by_component_total",
		Help: "Total number of errors by component",
	}, []string{"component", "error_type"})
}

// RejectionClass maps a response status (0 for transport failures) to a label.
func RejectionClass(statusCode int) string {
	switch {
	case statusCode == 0:
		return ClassTransport
	case statusCode >= 400 && statusCode < 500:
		return ClassClient
	case statusCode >= 500:
		return ClassServer
	default:
		return ClassOther
	}
}

// RecordRowsRead adds n rows to the rows read counter.
func (m *Manager) RecordRowsRead(n int) {
	if m.enabled {
		m.rowsRead.Add(float64(n))
	}
}

// RecordRecordBuilt counts one built record and its excluded features.
func (m *Manager) RecordRecordBuilt(excluded int) {
	if !m.enabled {
		return
	}
	m.recordsBuilt.Inc()
	if excluded > 0 {
		m.featuresExcluded.Add(float64(excluded))
	}
}

// RecordPut records one put attempt's outcome and latency.
func (m *Manager) RecordPut(accepted bool, statusCode int, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.putLatency.Observe(latencyMs)
	if accepted {
		m.recordsAccepted.Inc()
		return
	}
	m.recordsRejected.WithLabelValues(RejectionClass(statusCode)).Inc()
}

// UpdateQueue sets the queue size and capacity gauges.
func (m *Manager) UpdateQueue(size, capacity int) {
	if m.enabled {
		m.queueSize.Set(float64(size))
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateWorkerCount sets the worker gauge.
func (m *Manager) UpdateWorkerCount(n int) {
	if m.enabled {
		m.workerCount.Set(float64(n))
	}
}

// RecordBatch records the duration and finish time of a batch.
func (m *Manager) RecordBatch(durationSeconds float64, finishedUnix int64) {
	if m.enabled {
		m.batchDuration.Set(durationSeconds)
		m.batchLastRunUnix.Set(float64(finishedUnix))
	}
}

// RecordExportRows adds n rows to the export counter.
func (m *Manager) RecordExportRows(n int) {
	if m.enabled {
		m.exportRows.Add(float64(n))
	}
}

// RecordHTTPRequest counts one status server request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordError counts an error for a component.
func (m *Manager) RecordError(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// Push sends every metric of the manager to a Pushgateway, grouped by run ID.
func (m *Manager) Push(ctx context.Context, url, job, runID string) error {
	p := push.New(url, job).Gatherer(m.registry)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}

// Global helpers operate on the package manager.

// Default returns the package-level manager.
func Default() *Manager { return globalManager }

// RecordRowsRead adds n rows to the rows read counter.
func RecordRowsRead(n int) { globalManager.RecordRowsRead(n) }

// RecordRecordBuilt counts one built record and its excluded features.
func RecordRecordBuilt(excluded int) { globalManager.RecordRecordBuilt(excluded) }

// RecordPut records one put attempt's outcome and latency.
func RecordPut(accepted bool, statusCode int, latencyMs float64) {
	globalManager.RecordPut(accepted, statusCode, latencyMs)
}

// UpdateQueue sets the queue size and capacity gauges.
func UpdateQueue(size, capacity int) { globalManager.UpdateQueue(size, capacity) }

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(n int) { globalManager.UpdateWorkerCount(n) }

// RecordBatch records the duration and finish time of a batch.
func RecordBatch(durationSeconds float64, finishedUnix int64) {
	globalManager.RecordBatch(durationSeconds, finishedUnix)
}

// RecordExportRows adds n rows to the export counter.
func RecordExportRows(n int) { globalManager.RecordExportRows(n) }

// RecordHTTPRequest counts one status server request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordError counts an error for a component.
func RecordError(component, errorType string) { globalManager.RecordError(component, errorType) }

// Push sends the package-level metrics to a Pushgateway.
func Push(ctx context.Context, url, job, runID string) error {
	return globalManager.Push(ctx, url, job, runID)
}

// GetRegistry returns the custom registry for metrics exposure.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
