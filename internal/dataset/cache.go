package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/logger"
	"github.com/exodash/exodash/internal/observability/metrics"
)

const keySeparator = "|"

// CacheOptions configures a snapshot Cache.
type CacheOptions struct {
	TTL     time.Duration // zero keeps entries until invalidated
	Watch   bool          // invalidate entries when the file changes on disk
	Metrics *metrics.DatasetMetrics
}

// Cache holds parsed snapshots keyed by file path and modification time.
// A newer modification time for a path evicts the older entries. Concurrent
// loads of the same key share one parse.
type Cache struct {
	store   *cache.Cache
	group   singleflight.Group
	metrics *metrics.DatasetMetrics
	load    func(path string) (*Snapshot, error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	dirs    map[string]struct{}
	paths   map[string]struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	closed  bool
}

// NewCache creates a snapshot cache. With Watch set it starts one goroutine
// that runs until Close.
func NewCache(opts CacheOptions) (*Cache, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	c := &Cache{
		// No janitor goroutine; expired entries are dropped on access.
		store:   cache.New(ttl, 0),
		metrics: opts.Metrics,
		load:    LoadFile,
		dirs:    make(map[string]struct{}),
		paths:   make(map[string]struct{}),
	}

	if opts.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategorySystem).
				Context("operation", "create_watcher").
				Build()
		}
		c.watcher = watcher
		c.stopCh = make(chan struct{})
		c.doneCh = make(chan struct{})
		go c.watch()
	}

	return c, nil
}

// Load returns the parsed snapshot for path, parsing it on a miss.
func (c *Cache) Load(ctx context.Context, path string) (*Snapshot, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		// LoadFile builds the categorized error.
		return c.load(path)
	}
	key := cacheKey(path, info.ModTime(), info.Size())

	if v, ok := c.store.Get(key); ok {
		c.metrics.RecordCache(metrics.CacheHit)
		return v.(*Snapshot), nil
	}
	c.metrics.RecordCache(metrics.CacheMiss)

	ch := c.group.DoChan(key, func() (any, error) {
		start := time.Now()
		snap, err := c.load(path)
		if err != nil {
			c.metrics.RecordLoad(metrics.StatusError, 0, 0, time.Since(start))
			return nil, err
		}
		c.metrics.RecordLoad(metrics.StatusSuccess, snap.Len(), snap.Skipped(), time.Since(start))

		c.evictOlder(path, key)
		c.store.Set(key, snap, cache.DefaultExpiration)
		c.track(path)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.RecordCache(metrics.CacheCollapsed)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Invalidate drops every cached snapshot for path.
func (c *Cache) Invalidate(path string) {
	c.evictOlder(filepath.Clean(path), "")
}

// Len returns the number of cached snapshots.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Close stops the watcher goroutine. It is safe to call more than once.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed || c.watcher == nil {
		c.closed = true
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stopCh)
	<-c.doneCh
	return c.watcher.Close()
}

func cacheKey(path string, modTime time.Time, size int64) string {
	return path + keySeparator + strconv.FormatInt(modTime.UnixNano(), 10) + keySeparator + strconv.FormatInt(size, 10)
}

// evictOlder deletes all entries for path except keep.
func (c *Cache) evictOlder(path, keep string) {
	c.store.DeleteExpired()
	prefix := path + keySeparator
	for key := range c.store.Items() {
		if key != keep && strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
			c.metrics.RecordCache(metrics.CacheEvict)
		}
	}
}

// track registers path with the watcher. The parent directory is watched
// because downloads replace the file by rename.
func (c *Cache) track(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil || c.closed {
		return
	}
	c.paths[path] = struct{}{}

	dir := filepath.Dir(path)
	if _, ok := c.dirs[dir]; ok {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		getLogger().Warn("Failed to watch snapshot directory",
			logger.String("dir", dir),
			logger.Error(err))
		return
	}
	c.dirs[dir] = struct{}{}
}

func (c *Cache) isTracked(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.paths[path]
	return ok
}

func (c *Cache) watch() {
	defer close(c.doneCh)

	for {
		select {
		case <-c.stopCh:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(event)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			getLogger().Warn("Snapshot watcher error", logger.Error(err))
		}
	}
}

func (c *Cache) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	if !c.isTracked(path) {
		return
	}

	c.metrics.RecordWatcherEvent(event.Op.String())
	c.Invalidate(path)

	getLogger().Debug("Snapshot cache invalidated",
		logger.String("path", path),
		logger.String("op", event.Op.String()))
}
