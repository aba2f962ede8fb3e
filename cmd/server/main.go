package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Simplici0/printprice/internal/api"
	"github.com/Simplici0/printprice/internal/capital"
	"github.com/Simplici0/printprice/internal/catalog"
	"github.com/Simplici0/printprice/internal/config"
	"github.com/Simplici0/printprice/internal/db"
	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/migrations"
	"github.com/Simplici0/printprice/internal/obs"
	"github.com/Simplici0/printprice/internal/sales"
	"github.com/Simplici0/printprice/internal/seed"
	"github.com/Simplici0/printprice/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			logger.Fatal().Err(err).Msg("run database migrations")
		}
	}
	if version, err := migrations.Version(database); err == nil {
		logger.Info().Int64("version", version).Msg("database schema")
	}

	layers := settings.Layers{
		Local:  settings.NewSQLiteStore(database, settings.ScopeLocal),
		Logger: logger,
	}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		client := redis.NewClient(opts)
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, synced settings will be skipped until it recovers")
		}
		cancel()
		layers.Synced = settings.NewRedisStore(client, "")
	}

	stats, err := seed.Run(ctx, database, layers.Synced)
	if err != nil {
		logger.Warn().Err(err).Msg("startup seed incomplete")
	} else {
		logger.Info().Int("inserts", stats.Inserts).Int("settings", stats.Settings).Msg("startup seed done")
	}

	srv := api.New(api.Deps{
		DB:             database,
		Settings:       layers,
		Jobs:           jobs.NewStore(database),
		Catalog:        catalog.NewStore(database),
		Sales:          sales.NewStore(database),
		Capital:        capital.NewStore(database),
		Logger:         logger,
		Metrics:        obs.NewMetrics(cfg.MetricsNamespace, nil),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		JobsPageSize:   cfg.JobsPageSize,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("env", cfg.AppEnv).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
