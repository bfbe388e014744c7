// Package metrics provides archive download metrics for observability
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ArchiveMetrics contains Prometheus metrics for exoplanet archive downloads
type ArchiveMetrics struct {
	freshnessChecksTotal *prometheus.CounterVec
	downloadsTotal       *prometheus.CounterVec
	downloadBytes        prometheus.Histogram
	downloadDuration     prometheus.Histogram
	httpStatusTotal      *prometheus.CounterVec
	snapshotModTime      prometheus.Gauge
}

// NewArchiveMetrics creates and registers new archive metrics
func NewArchiveMetrics(registry *prometheus.Registry) (*ArchiveMetrics, error) {
	m := &ArchiveMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ArchiveMetrics) initMetrics() {
	m.freshnessChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_archive_freshness_checks_total",
			Help: "Total number of snapshot freshness checks",
		},
		[]string{"result"}, // result: fresh, stale, missing
	)

	m.downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_archive_downloads_total",
			Help: "Total number of archive download attempts by outcome",
		},
		[]string{"outcome"},
	)

	m.downloadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "exodash_archive_download_bytes",
		Help: "Size of downloaded archive snapshots",
		// 1KB to ~256MB
		Buckets: prometheus.ExponentialBuckets(BucketStart1KB, BucketFactor4, BucketCount10),
	})

	m.downloadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "exodash_archive_download_duration_seconds",
		Help: "Time taken by a single archive download attempt",
		// 100ms to ~51s
		Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
	})

	m.httpStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_archive_http_status_total",
			Help: "HTTP status codes returned by the archive",
		},
		[]string{"status_code"},
	)

	m.snapshotModTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exodash_archive_snapshot_modified_timestamp_seconds",
		Help: "Modification time of the local snapshot file",
	})
}

// Describe implements the Collector interface
func (m *ArchiveMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.freshnessChecksTotal.Describe(ch)
	m.downloadsTotal.Describe(ch)
	m.downloadBytes.Describe(ch)
	m.downloadDuration.Describe(ch)
	m.httpStatusTotal.Describe(ch)
	m.snapshotModTime.Describe(ch)
}

// Collect implements the Collector interface
func (m *ArchiveMetrics) Collect(ch chan<- prometheus.Metric) {
	m.freshnessChecksTotal.Collect(ch)
	m.downloadsTotal.Collect(ch)
	m.downloadBytes.Collect(ch)
	m.downloadDuration.Collect(ch)
	m.httpStatusTotal.Collect(ch)
	m.snapshotModTime.Collect(ch)
}

// RecordFreshnessCheck records the result of a freshness check
func (m *ArchiveMetrics) RecordFreshnessCheck(result string) {
	if m == nil {
		return
	}
	m.freshnessChecksTotal.WithLabelValues(result).Inc()
}

// RecordDownload records one download attempt
func (m *ArchiveMetrics) RecordDownload(outcome string, statusCode int, bytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(outcome).Inc()
	m.downloadDuration.Observe(duration.Seconds())
	if statusCode > 0 {
		m.httpStatusTotal.WithLabelValues(statusLabel(statusCode)).Inc()
	}
	if bytes > 0 {
		m.downloadBytes.Observe(float64(bytes))
	}
}

// SetSnapshotModTime records the modification time of the snapshot on disk
func (m *ArchiveMetrics) SetSnapshotModTime(t time.Time) {
	if m == nil || t.IsZero() {
		return
	}
	m.snapshotModTime.Set(float64(t.Unix()))
}
