// internal/httpcontroller/server.go
package httpcontroller

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/dashboard"
	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/logger"
	"github.com/exodash/exodash/internal/observability"
	"github.com/exodash/exodash/internal/observability/metrics"
)

const shutdownTimeout = 10 * time.Second

// Server encapsulates the Echo server and the dashboard it serves.
type Server struct {
	Echo      *echo.Echo
	Settings  *conf.Settings
	Dashboard *dashboard.Service
	Metrics   *observability.Metrics // nil disables metrics

	refreshLimiter *rate.Limiter
}

// New initializes the HTTP server. Routes are registered immediately so the
// server can be exercised through Echo.ServeHTTP without listening.
func New(settings *conf.Settings, svc *dashboard.Service, m *observability.Metrics) (*Server, error) {
	s := &Server{
		Echo:           echo.New(),
		Settings:       settings,
		Dashboard:      svc,
		Metrics:        m,
		refreshLimiter: newRefreshLimiter(settings.WebServer.RefreshLimit),
	}

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Debug = settings.WebServer.Debug
	s.Echo.HTTPErrorHandler = s.httpErrorHandler
	s.Echo.Logger.SetOutput(&echoLogAdapter{log: getLogger()})

	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}
	s.Echo.Renderer = renderer

	s.configureMiddleware()
	s.initRoutes()
	return s, nil
}

// newRefreshLimiter returns an unlimited limiter when no interval is set.
func newRefreshLimiter(cfg conf.RefreshLimitSettings) *rate.Limiter {
	if cfg.Interval <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(cfg.Interval), burst)
}

// httpMetrics returns the HTTP collectors, nil when metrics are disabled.
// The record methods are no-ops on nil.
func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.Metrics == nil {
		return nil
	}
	return s.Metrics.HTTP
}

// Start listens on the configured address until ctx is canceled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Settings.WebServer.Address()
	s.Echo.Server.ReadTimeout = s.Settings.WebServer.ReadTimeout
	s.Echo.Server.WriteTimeout = s.Settings.WebServer.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	getLogger().Info("HTTP server started", logger.String("address", addr))

	select {
	case err := <-errCh:
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryNetwork).
				Context("operation", "http_listen").
				Context("address", addr).
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	getLogger().Info("Shutting down HTTP server")
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "http_shutdown").
			Build()
	}
	// Wait for the listener goroutine.
	<-errCh
	return nil
}
