package httpcontroller

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/exodash/exodash/internal/logger"
)

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.Echo.Use(s.RequestLoggerMiddleware())
	s.Echo.Use(s.GzipMiddleware())
	s.Echo.Use(s.CacheControlMiddleware())
}

// RequestLoggerMiddleware writes one access log line per request and
// records request metrics.
func (s *Server) RequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// Route pattern keeps the label set bounded.
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			s.httpMetrics().RecordRequest(v.Method, route, v.Status, v.Latency)

			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency),
				logger.String("remote_ip", v.RemoteIP),
				logger.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}

			log := getAccessLogger()
			switch {
			case v.Status >= 500:
				log.Error("Request failed", fields...)
			case v.Status >= 400:
				log.Warn("Request rejected", fields...)
			default:
				log.Info("Request handled", fields...)
			}
			return nil
		},
	})
}

// GzipMiddleware compresses larger responses.
func (s *Server) GzipMiddleware() echo.MiddlewareFunc {
	return middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     6,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			// PNG is already compressed.
			return strings.HasSuffix(c.Request().URL.Path, ".png")
		},
	})
}

// CacheControlMiddleware sets cache headers based on the request path.
func (s *Server) CacheControlMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			h := c.Response().Header()

			switch {
			case strings.HasPrefix(path, "/images/"):
				h.Set("Cache-Control", "public, max-age=604800")
			case strings.HasPrefix(path, "/api/"):
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
				h.Set("Expires", "0")
			default:
				h.Set("Cache-Control", "no-store")
			}
			return next(c)
		}
	}
}
