// Package archive keeps a local copy of the NASA Exoplanet Archive
// Planetary Systems table.
//
// The snapshot is downloaded at most once per check: a file modified today
// (local calendar) is used as is, an older or missing file triggers exactly
// one GET. There is no retry. Failed downloads are reported as status
// messages rather than errors; only a missing snapshot after the attempt is
// fatal.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/fileutil"
	"github.com/exodash/exodash/internal/httpclient"
	"github.com/exodash/exodash/internal/logger"
	"github.com/exodash/exodash/internal/observability/metrics"
)

// Status messages.
const (
	MsgFresh      = "The table exists and has today's date."
	MsgStale      = "The table exists but it is outdated."
	MsgAttempting = "Attempting to download the latest version of the NASA's exoplanet archive"
)

// Freshness check outcomes.
const (
	FreshnessFresh   = "fresh"
	FreshnessStale   = "stale"
	FreshnessMissing = "missing"
)

// ErrNoSnapshot means no local snapshot exists after the download attempt.
var ErrNoSnapshot = errors.NewStd("no archive snapshot available")

// SuccessMessage is reported after a snapshot was written.
func SuccessMessage(file string) string {
	return "Success! Retrieved " + file
}

// FailureMessage is reported for a non-200 response. Transport errors use
// status code 0.
func FailureMessage(statusCode int) string {
	return fmt.Sprintf("Failed to retrieve data. HTTP Status Code: %d", statusCode)
}

// IsFresh reports whether path exists and was modified on the same calendar
// day as now, in now's location.
func IsFresh(path string, now time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return SameDay(info.ModTime(), now)
}

// SameDay reports whether a falls on the same calendar day as b, in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Result describes one freshness check or refresh.
type Result struct {
	Path       string    `json:"path"`
	Fresh      bool      `json:"fresh"`
	Attempted  bool      `json:"attempted"`
	Downloaded bool      `json:"downloaded"`
	StatusCode int       `json:"status_code"`
	Messages   []string  `json:"messages"`
	Bytes      int64     `json:"bytes"`
	ModTime    time.Time `json:"mod_time"`
	CheckedAt  time.Time `json:"checked_at"`
	Err        error     `json:"-"`
}

// Message returns the last status message.
func (r Result) Message() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1]
}

func (r *Result) report(msg string) {
	r.Messages = append(r.Messages, msg)
	getLogger().Info(msg, logger.String("path", r.Path))
}

// Options configures a Fetcher.
type Options struct {
	URL     string
	Path    string
	Timeout time.Duration // zero uses the client default
	Client  *httpclient.Client
	Metrics *metrics.ArchiveMetrics
	Now     func() time.Time
}

// Fetcher downloads the archive table to a local snapshot file.
// Downloads are serialized.
type Fetcher struct {
	url     string
	path    string
	timeout time.Duration
	client  *httpclient.Client
	metrics *metrics.ArchiveMetrics
	now     func() time.Time

	mu sync.Mutex
}

// NewFetcher creates a Fetcher. A nil client gets the default httpclient.
func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.URL == "" {
		return nil, errors.Newf("archive URL is required").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if opts.Path == "" {
		return nil, errors.Newf("snapshot path is required").
			Category(errors.CategoryConfiguration).
			Build()
	}

	client := opts.Client
	if client == nil {
		cfg := httpclient.DefaultConfig()
		client = httpclient.New(&cfg)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Fetcher{
		url:     opts.URL,
		path:    opts.Path,
		timeout: opts.Timeout,
		client:  client,
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// Path returns the snapshot file path.
func (f *Fetcher) Path() string { return f.path }

// Ensure makes sure a snapshot from today exists, downloading it once if
// the file is missing or stale.
func (f *Fetcher) Ensure(ctx context.Context) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	res := Result{Path: f.path, CheckedAt: now}

	info, err := os.Stat(f.path)
	switch {
	case err == nil && SameDay(info.ModTime(), now):
		f.metrics.RecordFreshnessCheck(FreshnessFresh)
		f.metrics.SetSnapshotModTime(info.ModTime())
		res.Fresh = true
		res.ModTime = info.ModTime()
		res.report(MsgFresh)
		return res, nil
	case err == nil:
		f.metrics.RecordFreshnessCheck(FreshnessStale)
		res.report(MsgStale)
	default:
		f.metrics.RecordFreshnessCheck(FreshnessMissing)
	}

	f.download(ctx, &res)
	return res, f.finish(&res)
}

// Refresh downloads the snapshot regardless of its age.
func (f *Fetcher) Refresh(ctx context.Context) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := Result{Path: f.path, CheckedAt: f.now()}
	f.download(ctx, &res)
	return res, f.finish(&res)
}

// finish records the snapshot state after a download attempt.
func (f *Fetcher) finish(res *Result) error {
	info, err := os.Stat(f.path)
	if err != nil {
		getLogger().Error("No archive snapshot available",
			logger.String("path", f.path),
			logger.Int("status_code", res.StatusCode))
		if res.Err != nil {
			return errors.Join(ErrNoSnapshot, res.Err)
		}
		return ErrNoSnapshot
	}
	res.ModTime = info.ModTime()
	res.Fresh = SameDay(info.ModTime(), f.now())
	f.metrics.SetSnapshotModTime(info.ModTime())
	return nil
}

// download performs the single GET. Failures are recorded on res.
func (f *Fetcher) download(ctx context.Context, res *Result) {
	res.Attempted = true
	res.report(MsgAttempting)
	start := time.Now()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.client.Get(ctx, f.url)
	if err != nil {
		res.Err = errors.New(err).
			Category(errors.CategoryNetwork).
			NetworkContext(f.url, f.timeout).
			Context("operation", "download_archive").
			Build()
		f.metrics.RecordDownload(metrics.OutcomeTransport, 0, 0, time.Since(start))
		getLogger().Warn("Archive download failed", logger.Error(err))
		res.report(FailureMessage(0))
		return
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			getLogger().Debug("Failed to close response body", logger.Error(cerr))
		}
	}()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		res.Err = errors.Newf("archive returned HTTP %d", resp.StatusCode).
			Category(errors.CategoryHTTP).
			Context("status_code", resp.StatusCode).
			Context("url", f.url).
			Build()
		f.metrics.RecordDownload(metrics.OutcomeHTTPError, resp.StatusCode, 0, time.Since(start))
		res.report(FailureMessage(resp.StatusCode))
		return
	}

	var written int64
	err = fileutil.WriteAtomic(f.path, fileutil.DefaultFilePerm, func(w io.Writer) error {
		n, err := io.Copy(w, resp.Body)
		written = n
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryNetwork).
				Context("operation", "read_archive_body").
				Context("bytes_read", n).
				Build()
		}
		return nil
	})
	if err != nil {
		res.Err = err
		outcome := metrics.OutcomeWriteError
		statusCode := resp.StatusCode
		if errors.IsCategory(err, errors.CategoryNetwork) {
			// Body read failures are transport errors.
			outcome = metrics.OutcomeTransport
			statusCode = 0
		}
		f.metrics.RecordDownload(outcome, statusCode, written, time.Since(start))
		getLogger().Warn("Failed to store archive snapshot",
			logger.String("path", f.path),
			logger.Int64("bytes", written),
			logger.Error(err))
		res.report(FailureMessage(statusCode))
		return
	}

	res.Downloaded = true
	res.Bytes = written
	f.metrics.RecordDownload(metrics.OutcomeDownloaded, resp.StatusCode, written, time.Since(start))
	res.report(SuccessMessage(filepath.Base(f.path)))
}
