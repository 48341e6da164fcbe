package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "domainwizard/internal/adapters/http"
	"domainwizard/internal/adapters/memory"
	pg "domainwizard/internal/adapters/postgres"
	"domainwizard/internal/adapters/rediscache"
	"domainwizard/internal/app"
	"domainwizard/internal/config"
	"domainwizard/internal/logger"
)

func main() {
	cfg, cfgErr := config.Load()
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNoDatabase) {
		log.Fatalf("config: %v", cfgErr)
	}

	lg, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.Env == "development"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("server exited", logger.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
	lg.Info("server exited properly")
}

func run(ctx context.Context, cfg config.Config, lg logger.Logger) error {
	var stores app.Stores
	checks := map[string]httpadapter.HealthCheck{}

	if cfg.DatabaseURL == "" {
		lg.Warn("DATABASE_URL not set, optimizer model and run history are kept in memory")
		stores.Models = memory.NewModelStore()
		stores.Runs = memory.NewRunRepository(cfg.RunHistory)
	} else {
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		stores.Models = pg.NewModelStore(db)
		stores.Runs = pg.NewRunRepository(db)
		checks["postgres"] = db.Ping
	}

	if cfg.RedisURL != "" {
		cache, err := rediscache.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			lg.Warn("redis unreachable, shared enrichment cache disabled", logger.Error(err))
		} else {
			stores.Shared = cache
			checks["redis"] = cache.Ping
		}
	}

	c, err := app.Build(cfg, lg, stores)
	if err != nil {
		return err
	}

	srv := httpadapter.New(c.Search, c.Appraiser, lg, httpadapter.Options{Runs: stores.Runs, Checks: checks})
	hs := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("listening", logger.String("addr", cfg.ListenAddr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Search.Close(shutdownCtx); err != nil {
			lg.Warn("search job did not stop in time", logger.Error(err))
		}
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
