// Package dashboard ties snapshot acquisition, parsing and caching together
// and hands out immutable snapshots to the views.
package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/exodash/exodash/internal/aggregate"
	"github.com/exodash/exodash/internal/archive"
	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/logger"
	"github.com/exodash/exodash/internal/observability/metrics"
)

// Fetcher keeps the local snapshot file current.
type Fetcher interface {
	Ensure(ctx context.Context) (archive.Result, error)
	Refresh(ctx context.Context) (archive.Result, error)
}

// Loader parses snapshot files, usually through a cache.
type Loader interface {
	Load(ctx context.Context, path string) (*dataset.Snapshot, error)
	Invalidate(path string)
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records category counts and export results.
func WithMetrics(m *metrics.DatasetMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service serves the current snapshot. It checks freshness at most once per
// calendar day and re-exports the derived CSV files after each reload.
type Service struct {
	settings conf.DatasetSettings
	fetcher  Fetcher
	loader   Loader
	metrics  *metrics.DatasetMetrics
	now      func() time.Time
	group    singleflight.Group

	mu            sync.RWMutex
	current       *dataset.Snapshot
	lastFetch     archive.Result
	lastCheck     time.Time
	lastExportMod time.Time
}

// New creates a dashboard service.
func New(settings conf.DatasetSettings, fetcher Fetcher, loader Loader, opts ...Option) *Service {
	s := &Service{
		settings: settings,
		fetcher:  fetcher,
		loader:   loader,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the initial freshness check and loads the snapshot. It fails
// with archive.ErrNoSnapshot when no data is available.
func (s *Service) Start(ctx context.Context) error {
	_, err := s.check(ctx)
	return err
}

// Snapshot returns the current snapshot. On the first call of a new
// calendar day the freshness check runs first.
func (s *Service) Snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	s.mu.RLock()
	current := s.current
	checkedToday := !s.lastCheck.IsZero() && archive.SameDay(s.lastCheck, s.now())
	s.mu.RUnlock()

	if current != nil && checkedToday {
		// The loader picks up file changes made outside the service.
		snap, err := s.loader.Load(ctx, s.settings.SnapshotPath)
		if err != nil {
			getLogger().Warn("Reload failed, serving previous snapshot", logger.Error(err))
			return current, nil
		}
		s.setCurrent(snap)
		return snap, nil
	}

	return s.check(ctx)
}

// Refresh downloads the archive table now and reloads the snapshot.
func (s *Service) Refresh(ctx context.Context) (archive.Result, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		res, err := s.fetcher.Refresh(ctx)
		s.recordFetch(res)
		if err != nil {
			return res, err
		}
		s.loader.Invalidate(s.settings.SnapshotPath)
		if _, err := s.reload(ctx); err != nil {
			return res, err
		}
		return res, nil
	})
	res, _ := v.(archive.Result)
	return res, err
}

// LastFetch returns the result of the most recent freshness check or refresh.
func (s *Service) LastFetch() archive.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetch
}

// Summary aggregates the current snapshot for method.
func (s *Service) Summary(ctx context.Context, method string) (aggregate.Summary, *dataset.Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return aggregate.Summary{}, nil, err
	}
	if !snap.HasMethod(method) {
		return aggregate.Summary{}, snap, errors.Newf("unknown detection method %q", method).
			Category(errors.CategoryNotFound).
			Context("method", method).
			Build()
	}
	return aggregate.Aggregate(snap.Records(), method), snap, nil
}

// check runs the freshness check and loads the snapshot. Concurrent callers
// share one check.
func (s *Service) check(ctx context.Context) (*dataset.Snapshot, error) {
	v, err, _ := s.group.Do("check", func() (any, error) {
		res, err := s.fetcher.Ensure(ctx)
		s.recordFetch(res)
		if err != nil {
			return nil, err
		}
		return s.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Snapshot), nil
}

func (s *Service) recordFetch(res archive.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetch = res
	s.lastCheck = s.now()
}

func (s *Service) reload(ctx context.Context) (*dataset.Snapshot, error) {
	snap, err := s.loader.Load(ctx, s.settings.SnapshotPath)
	if err != nil {
		return nil, err
	}
	s.setCurrent(snap)
	return snap, nil
}

// setCurrent swaps in snap and writes the exports once per file version.
func (s *Service) setCurrent(snap *dataset.Snapshot) {
	s.mu.Lock()
	changed := s.current != snap
	s.current = snap
	needExport := s.settings.ExportOnLoad && !snap.ModTime().Equal(s.lastExportMod)
	if needExport {
		s.lastExportMod = snap.ModTime()
	}
	s.mu.Unlock()

	if changed {
		s.recordCategories(snap)
	}
	if needExport {
		s.export(snap)
	}
}

func (s *Service) recordCategories(snap *dataset.Snapshot) {
	if s.metrics == nil {
		return
	}
	counts := make(map[string]int, len(classify.Categories))
	for _, e := range aggregate.Aggregate(snap.Records(), dataset.AllMethods).Entries {
		counts[string(e.Category)] = e.Count
	}
	s.metrics.SetCategoryCounts(counts)
}

func (s *Service) export(snap *dataset.Snapshot) {
	exports := []struct {
		path string
		kind string
	}{
		{s.settings.FilteredPath, dataset.ExportFiltered},
		{s.settings.CategorizedPath, dataset.ExportCategorized},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := snap.ExportFile(e.path, e.kind); err != nil {
			s.metrics.RecordExport(e.kind, metrics.StatusError)
			getLogger().Error("Export failed",
				logger.String("kind", e.kind),
				logger.String("path", e.path),
				logger.Error(err))
			continue
		}
		s.metrics.RecordExport(e.kind, metrics.StatusSuccess)
	}
}
