// Package app wires the archive fetcher, snapshot cache and dashboard
// service together from settings. Every command builds on one App.
package app

import (
	"net/http"

	"github.com/exodash/exodash/internal/archive"
	"github.com/exodash/exodash/internal/buildinfo"
	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/dashboard"
	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/httpclient"
	"github.com/exodash/exodash/internal/logger"
	"github.com/exodash/exodash/internal/observability"
)

// App holds the long-lived components.
type App struct {
	Settings  *conf.Settings
	Build     *buildinfo.Context
	Metrics   *observability.Metrics
	Client    *httpclient.Client
	Fetcher   *archive.Fetcher
	Cache     *dataset.Cache
	Dashboard *dashboard.Service
}

// New builds the components. Nothing is downloaded or parsed until the
// dashboard service is started.
func New(settings *conf.Settings, build *buildinfo.Context) (*App, error) {
	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	userAgent := settings.Archive.UserAgent
	if userAgent == "" {
		userAgent = build.UserAgent()
	}
	client := httpclient.New(&httpclient.Config{
		DefaultTimeout: settings.Archive.Timeout,
		UserAgent:      userAgent,
	})
	client.SetAfterResponseHook(logResponse)

	fetcher, err := archive.NewFetcher(archive.Options{
		URL:     settings.Archive.URL,
		Path:    settings.Dataset.SnapshotPath,
		Timeout: settings.Archive.Timeout,
		Client:  client,
		Metrics: m.Archive,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	cache, err := dataset.NewCache(dataset.CacheOptions{
		TTL:     settings.Dataset.CacheTTL,
		Watch:   settings.Dataset.Watch,
		Metrics: m.Dataset,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	svc := dashboard.New(settings.Dataset, fetcher, cache, dashboard.WithMetrics(m.Dataset))

	return &App{
		Settings:  settings,
		Build:     build,
		Metrics:   m,
		Client:    client,
		Fetcher:   fetcher,
		Cache:     cache,
		Dashboard: svc,
	}, nil
}

// Close releases the cache watcher and idle connections.
func (a *App) Close() error {
	a.Client.Close()
	return a.Cache.Close()
}

func logResponse(req *http.Request, resp *http.Response, err error) {
	log := logger.Global().Module("archive")
	if err != nil {
		log.Debug("Archive request failed",
			logger.String("url", req.URL.Redacted()),
			logger.Error(err))
		return
	}
	log.Debug("Archive responded",
		logger.String("url", req.URL.Redacted()),
		logger.Int("status_code", resp.StatusCode),
		logger.Int64("content_length", resp.ContentLength))
}
