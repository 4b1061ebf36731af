// Package server exposes the HTTP API: source management, sentiment queries,
// and operational endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Thulrus/ParallaxIndex/internal/aggregate"
	"github.com/Thulrus/ParallaxIndex/internal/app"
	"github.com/Thulrus/ParallaxIndex/internal/config"
	apperrors "github.com/Thulrus/ParallaxIndex/internal/errors"
	"github.com/Thulrus/ParallaxIndex/internal/preview"
)

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	app        *app.Service
	aggregator *aggregate.Engine
	prober     *preview.Prober
}

func NewServer(cfg *config.Config, service *app.Service, aggregator *aggregate.Engine, prober *preview.Prober) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:       e,
		config:     cfg,
		app:        service,
		aggregator: aggregator,
		prober:     prober,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
