// Package metrics provides constants used across metric definitions.
package metrics

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Download outcome label values.
const (
	OutcomeFresh      = "fresh"
	OutcomeDownloaded = "downloaded"
	OutcomeHTTPError  = "http_error"
	OutcomeTransport  = "transport_error"
	OutcomeWriteError = "write_error"
)

// RefreshLimited is the refresh result when the rate limiter rejects a request.
const RefreshLimited = "rate_limited"

// Cache label values.
const (
	CacheHit       = "hit"
	CacheMiss      = "miss"
	CacheEvict     = "evict"
	CacheCollapsed = "collapsed"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~4s range with 12 buckets).
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart1KB is the starting bucket for byte size histograms.
	BucketStart1KB = 1024.0

	BucketFactor2 = 2
	BucketFactor4 = 4
	BucketCount10 = 10
	BucketCount12 = 12
)
