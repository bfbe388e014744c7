package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/testutil"
)

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "full_table_nasa_url.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))
	return path
}

func TestCacheHitReturnsSameSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := NewCache(CacheOptions{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	path := writeSnapshot(t, t.TempDir())

	first, err := c.Load(t.Context(), path)
	require.NoError(t, err)
	second, err := c.Load(t.Context(), path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())
}

func TestCacheNewModTimeEvictsOlderEntry(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := NewCache(CacheOptions{TTL: time.Hour})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	path := writeSnapshot(t, t.TempDir())
	first, err := c.Load(t.Context(), path)
	require.NoError(t, err)

	later := time.Now().Add(24 * time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := c.Load(t.Context(), path)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, c.Len(), "older entry for the same path is evicted")
}

func TestCacheInvalidate(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := NewCache(CacheOptions{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	path := writeSnapshot(t, t.TempDir())
	_, err = c.Load(t.Context(), path)
	require.NoError(t, err)

	c.Invalidate(path)
	assert.Equal(t, 0, c.Len())
}

func TestCacheCollapsesConcurrentLoads(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := NewCache(CacheOptions{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	path := writeSnapshot(t, t.TempDir())

	var calls atomic.Int32
	release := make(chan struct{})
	c.load = func(p string) (*Snapshot, error) {
		calls.Add(1)
		<-release
		return LoadFile(p)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*Snapshot, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.Load(context.Background(), path)
			assert.NoError(t, err)
			results[i] = snap
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, snap := range results {
		assert.Same(t, results[0], snap)
	}
}

func TestCacheLoadHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := NewCache(CacheOptions{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	path := writeSnapshot(t, t.TempDir())

	release := make(chan struct{})
	done := make(chan struct{})
	c.load = func(p string) (*Snapshot, error) {
		defer close(done)
		<-release
		return LoadFile(p)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = c.Load(ctx, path)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	testutil.WaitForChannel(t, done, testutil.DefaultTestTimeout, "loader did not return")
}

func TestCacheMissingFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := NewCache(CacheOptions{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	_, err = c.Load(t.Context(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCacheWatcherInvalidatesOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := NewCache(CacheOptions{Watch: true})
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeSnapshot(t, dir)

	_, err = c.Load(t.Context(), path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))

	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"Late,Star,1,Transit,1,1,1,,,,,2024\n"), 0o600))

	assert.Eventually(t, func() bool { return c.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "second close is a no-op")
}
