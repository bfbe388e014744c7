package httpcontroller

import (
	"github.com/labstack/echo/v4"
)

// initRoutes registers all routes.
func (s *Server) initRoutes() {
	e := s.Echo

	e.GET("/", s.dashboardHandler)
	e.GET("/healthz", s.healthHandler)

	api := e.Group("/api/v1")
	api.GET("/methods", s.methodsHandler)
	api.GET("/summary", s.summaryHandler)
	api.GET("/planets/:name", s.planetHandler)
	api.GET("/planets/:name/fields/:column", s.planetFieldHandler)
	api.GET("/scatter", s.scatterHandler)
	api.GET("/status", s.statusHandler)
	api.POST("/refresh", s.refreshHandler)

	e.GET("/charts/scatter", s.scatterChartHandler)

	export := e.Group("/export")
	export.GET("/csv", s.exportCSVHandler)
	export.GET("/pie.png", s.piePNGHandler)
	export.GET("/scatter.png", s.scatterPNGHandler)

	if dir := s.Settings.WebServer.ImagesDir; dir != "" {
		// Static rejects paths escaping dir.
		e.Static("/images", dir)
	}

	if s.Settings.Metrics.Enabled && s.Metrics != nil {
		path := s.Settings.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(s.Metrics.Handler()))
	}
}
