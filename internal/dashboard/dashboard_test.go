package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/exodash/exodash/internal/archive"
	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/observability/metrics"
	exotest "github.com/exodash/exodash/internal/testutil"
)

const header = "pl_name,hostname,default_flag,discoverymethod,pl_orbsmax,pl_rade,pl_bmasse,pl_bmassj,pl_eqt,st_spectype,st_teff\n"

const tableV1 = header +
	"Big One,Star A,1,Transit,5.2,5.0,,,,G2 V,5700\n" +
	"Superb,Star C,1,Transit,0.1,1.5,,,,,\n" +
	"Earthy,Star D,1,Imaging,1.0,0.5,0.4,,288,M3,3400\n"

const tableV2 = tableV1 +
	"Later,Star G,1,Microlensing,2.0,1.1,,,,,\n"

// fakeFetcher writes a table on Ensure and Refresh and counts the calls.
type fakeFetcher struct {
	path    string
	content atomic.Value // string written by the next download
	fail    atomic.Bool

	ensures   atomic.Int32
	refreshes atomic.Int32
	release   chan struct{} // blocks Ensure when set
}

func newFakeFetcher(t *testing.T, content string) *fakeFetcher {
	t.Helper()
	f := &fakeFetcher{path: filepath.Join(t.TempDir(), "full_table_nasa_url.csv")}
	f.content.Store(content)
	return f
}

func (f *fakeFetcher) Ensure(ctx context.Context) (archive.Result, error) {
	f.ensures.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.download()
}

func (f *fakeFetcher) Refresh(ctx context.Context) (archive.Result, error) {
	f.refreshes.Add(1)
	return f.download()
}

func (f *fakeFetcher) download() (archive.Result, error) {
	res := archive.Result{Path: f.path, Attempted: true}
	if f.fail.Load() {
		res.StatusCode = 503
		res.Messages = []string{archive.FailureMessage(503)}
		if _, err := os.Stat(f.path); err != nil {
			return res, archive.ErrNoSnapshot
		}
		return res, nil
	}
	if err := os.WriteFile(f.path, []byte(f.content.Load().(string)), 0o600); err != nil {
		return res, err
	}
	res.StatusCode = 200
	res.Downloaded = true
	res.Messages = []string{archive.SuccessMessage(filepath.Base(f.path))}
	return res, nil
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T, f *fakeFetcher, opts ...Option) (*Service, conf.DatasetSettings) {
	t.Helper()

	cache, err := dataset.NewCache(dataset.CacheOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cache.Close()) })

	dir := filepath.Dir(f.path)
	settings := conf.DatasetSettings{
		SnapshotPath:    f.path,
		FilteredPath:    filepath.Join(dir, "filtered_table.csv"),
		CategorizedPath: filepath.Join(dir, "filtered_categorized_table.csv"),
		ExportOnLoad:    true,
	}
	return New(settings, f, cache, opts...), settings
}

func TestStartLoadsSnapshotAndExports(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeFetcher(t, tableV1)
	svc, settings := newService(t, f)

	require.NoError(t, svc.Start(t.Context()))

	snap, err := svc.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, int32(1), f.ensures.Load())

	assert.FileExists(t, settings.FilteredPath)
	assert.FileExists(t, settings.CategorizedPath)

	categorized, err := os.ReadFile(settings.CategorizedPath)
	require.NoError(t, err)
	assert.Contains(t, string(categorized), "gas_giant")

	last := svc.LastFetch()
	assert.True(t, last.Downloaded)
	assert.Equal(t, archive.SuccessMessage("full_table_nasa_url.csv"), last.Message())
}

func TestStartWithoutSnapshotFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeFetcher(t, tableV1)
	f.fail.Store(true)
	svc, _ := newService(t, f)

	err := svc.Start(t.Context())
	require.ErrorIs(t, err, archive.ErrNoSnapshot)
	assert.Equal(t, archive.FailureMessage(503), svc.LastFetch().Message())
}

func TestFreshnessCheckedOncePerDay(t *testing.T) {
	defer goleak.VerifyNone(t)

	clk := &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	f := newFakeFetcher(t, tableV1)
	svc, _ := newService(t, f, WithClock(clk.Now))

	require.NoError(t, svc.Start(t.Context()))
	for range 3 {
		_, err := svc.Snapshot(t.Context())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.ensures.Load(), "same day reuses the check")

	clk.Advance(20 * time.Hour)
	_, err := svc.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.ensures.Load(), "a new day runs the check again")
}

func TestConcurrentChecksShareOneFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeFetcher(t, tableV1)
	f.release = make(chan struct{})
	svc, _ := newService(t, f)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Snapshot(context.Background())
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return f.ensures.Load() == 1 },
		time.Second, 5*time.Millisecond)
	// Give the other callers time to join the in-flight check.
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	exotest.WaitGroupDone(t, &wg, exotest.DefaultTestTimeout)

	assert.Equal(t, int32(1), f.ensures.Load())
}

func TestRefreshReloadsSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeFetcher(t, tableV1)
	svc, settings := newService(t, f)
	require.NoError(t, svc.Start(t.Context()))

	f.content.Store(tableV2)
	res, err := svc.Refresh(t.Context())
	require.NoError(t, err)
	assert.True(t, res.Downloaded)
	assert.Equal(t, int32(1), f.refreshes.Load())

	snap, err := svc.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Len())
	assert.True(t, snap.HasMethod("Microlensing"))

	filtered, err := os.ReadFile(settings.FilteredPath)
	require.NoError(t, err)
	assert.Contains(t, string(filtered), "Later")
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeFetcher(t, tableV1)
	svc, _ := newService(t, f)
	require.NoError(t, svc.Start(t.Context()))

	f.fail.Store(true)
	res, err := svc.Refresh(t.Context())
	require.NoError(t, err)
	assert.False(t, res.Downloaded)
	assert.Equal(t, 503, svc.LastFetch().StatusCode)

	snap, err := svc.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
}

func TestSummary(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeFetcher(t, tableV1)
	svc, _ := newService(t, f)
	require.NoError(t, svc.Start(t.Context()))

	summary, snap, err := svc.Summary(t.Context(), "Transit")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "Transit", summary.Method)
	assert.Equal(t, 2, summary.Total)

	_, _, err = svc.Summary(t.Context(), "Astrometry")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCategoryMetrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, err := metrics.NewDatasetMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	f := newFakeFetcher(t, tableV1)
	svc, _ := newService(t, f, WithMetrics(m))
	require.NoError(t, svc.Start(t.Context()))

	expected := `
# HELP exodash_planets_by_category Number of planets per size/mass category in the current snapshot
# TYPE exodash_planets_by_category gauge
exodash_planets_by_category{category="gas_giant"} 1
exodash_planets_by_category{category="super_earth"} 1
exodash_planets_by_category{category="terrestrial"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(expected), "exodash_planets_by_category"))
}
