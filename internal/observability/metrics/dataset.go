// Package metrics provides dataset and classification metrics for observability
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatasetMetrics contains Prometheus metrics for snapshot parsing, caching and classification
type DatasetMetrics struct {
	loadsTotal       *prometheus.CounterVec
	loadDuration     prometheus.Histogram
	recordsGauge     prometheus.Gauge
	skippedRowsGauge prometheus.Gauge
	cacheOpsTotal    *prometheus.CounterVec
	watcherEvents    *prometheus.CounterVec
	exportsTotal     *prometheus.CounterVec
	categoryGauge    *prometheus.GaugeVec
}

// NewDatasetMetrics creates and registers new dataset metrics
func NewDatasetMetrics(registry *prometheus.Registry) (*DatasetMetrics, error) {
	m := &DatasetMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatasetMetrics) initMetrics() {
	m.loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_dataset_loads_total",
			Help: "Total number of snapshot parse operations",
		},
		[]string{"status"},
	)

	m.loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "exodash_dataset_load_duration_seconds",
		Help: "Time taken to parse and classify a snapshot",
		// 1ms to ~4s
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
	})

	m.recordsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exodash_dataset_records",
		Help: "Number of canonical planet records in the current snapshot",
	})

	m.skippedRowsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exodash_dataset_skipped_rows",
		Help: "Number of malformed rows skipped in the current snapshot",
	})

	m.cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_dataset_cache_operations_total",
			Help: "Snapshot cache operations by result",
		},
		[]string{"result"}, // result: hit, miss, evict, collapsed
	)

	m.watcherEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_dataset_watcher_events_total",
			Help: "File system events that invalidated the snapshot cache",
		},
		[]string{"op"},
	)

	m.exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_dataset_exports_total",
			Help: "CSV exports written by kind and status",
		},
		[]string{"kind", "status"},
	)

	m.categoryGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exodash_planets_by_category",
			Help: "Number of planets per size/mass category in the current snapshot",
		},
		[]string{"category"},
	)
}

// Describe implements the Collector interface
func (m *DatasetMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.loadsTotal.Describe(ch)
	m.loadDuration.Describe(ch)
	m.recordsGauge.Describe(ch)
	m.skippedRowsGauge.Describe(ch)
	m.cacheOpsTotal.Describe(ch)
	m.watcherEvents.Describe(ch)
	m.exportsTotal.Describe(ch)
	m.categoryGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *DatasetMetrics) Collect(ch chan<- prometheus.Metric) {
	m.loadsTotal.Collect(ch)
	m.loadDuration.Collect(ch)
	m.recordsGauge.Collect(ch)
	m.skippedRowsGauge.Collect(ch)
	m.cacheOpsTotal.Collect(ch)
	m.watcherEvents.Collect(ch)
	m.exportsTotal.Collect(ch)
	m.categoryGauge.Collect(ch)
}

// RecordLoad records a snapshot parse
func (m *DatasetMetrics) RecordLoad(status string, records, skipped int, duration time.Duration) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(status).Inc()
	m.loadDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		m.recordsGauge.Set(float64(records))
		m.skippedRowsGauge.Set(float64(skipped))
	}
}

// RecordCache records a cache lookup result
func (m *DatasetMetrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.cacheOpsTotal.WithLabelValues(result).Inc()
}

// RecordWatcherEvent records a file system event seen by the snapshot watcher
func (m *DatasetMetrics) RecordWatcherEvent(op string) {
	if m == nil {
		return
	}
	m.watcherEvents.WithLabelValues(op).Inc()
}

// RecordExport records a CSV export
func (m *DatasetMetrics) RecordExport(kind, status string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(kind, status).Inc()
}

// SetCategoryCounts replaces the per-category planet gauges
func (m *DatasetMetrics) SetCategoryCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.categoryGauge.Reset()
	for category, n := range counts {
		m.categoryGauge.WithLabelValues(category).Set(float64(n))
	}
}
