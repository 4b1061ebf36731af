package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/Thulrus/ParallaxIndex/internal/aggregate"
	"github.com/Thulrus/ParallaxIndex/internal/app"
	"github.com/Thulrus/ParallaxIndex/internal/config"
	"github.com/Thulrus/ParallaxIndex/internal/database"
	"github.com/Thulrus/ParallaxIndex/internal/httpfetch"
	"github.com/Thulrus/ParallaxIndex/internal/logging"
	"github.com/Thulrus/ParallaxIndex/internal/pipeline"
	"github.com/Thulrus/ParallaxIndex/internal/plugin"
	"github.com/Thulrus/ParallaxIndex/internal/plugin/numeric"
	"github.com/Thulrus/ParallaxIndex/internal/preview"
	"github.com/Thulrus/ParallaxIndex/internal/scheduler"
	"github.com/Thulrus/ParallaxIndex/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRegistry(fetch *httpfetch.Client, fetchTimeout time.Duration) *plugin.Registry {
	registry := plugin.NewRegistry()
	if err := registry.Register(numeric.New(fetch, fetchTimeout)); err != nil {
		slog.Error("Failed to register plugin", "error", err)
		os.Exit(1)
	}
	return registry
}

func runGracefulShutdown(srv *server.Server, sched *scheduler.Scheduler) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		sched.Stop()
		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	fetch := httpfetch.NewClient()
	registry := setupRegistry(fetch, time.Duration(cfg.FetchTimeout)*time.Second)

	sourceRepo := database.NewSourceRepo(pool)
	snapshotRepo := database.NewSnapshotRepo(pool)

	cycles := pipeline.New(sourceRepo, snapshotRepo, registry, clock)
	sched := scheduler.New(cycles)
	aggregator := aggregate.NewEngine(sourceRepo, snapshotRepo, clock)
	prober := preview.NewProber(fetch)

	appSvc := app.NewService(sourceRepo, snapshotRepo, registry, sched)

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	scheduled, err := appSvc.ScheduleEnabledSources(startCtx)
	cancel()
	if err != nil {
		logging.WithError(err).Error("Failed to schedule sources")
		os.Exit(1)
	}
	sched.Start()

	slog.Info("Collection scheduling ready",
		"plugins", len(registry.Definitions()),
		"scheduled_sources", scheduled,
	)

	srv := server.NewServer(cfg, appSvc, aggregator, prober)
	done := runGracefulShutdown(srv, sched)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.WithError(err).Error("Server error")
		os.Exit(1)
	}

	<-done
}
