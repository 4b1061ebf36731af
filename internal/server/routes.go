package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/plugins", s.handleListPlugins)
	api.GET("/sentiment/global", s.handleGlobalSentiment)
	api.POST("/preview-endpoint", s.handlePreviewEndpoint)

	api.GET("/sources", s.handleListSources)
	api.POST("/sources", s.handleCreateSource)
	api.GET("/sources/:id", s.handleGetSource)
	api.PUT("/sources/:id", s.handleUpdateSource)
	api.DELETE("/sources/:id", s.handleDeleteSource)
	api.POST("/sources/:id/toggle", s.handleToggleSource)
	api.GET("/sources/:id/history", s.handleHistory)
	api.GET("/sources/:id/trend", s.handleTrend)
	api.GET("/sources/:id/contribution", s.handleContribution)
	api.POST("/sources/:id/healthcheck", s.handleHealthcheck)

	// Manual collection hits external endpoints, keep it from being hammered
	api.POST("/sources/:id/collect", s.handleCollectNow, newRateLimiter(1, 5))
}
