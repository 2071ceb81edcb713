package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockedby/channel-stats/internal/api"
	"github.com/blockedby/channel-stats/internal/app"
	"github.com/blockedby/channel-stats/internal/config"
	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/logger"
)

var version = "dev"

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log.Info().Str("version", version).Msg("starting channel stats service")

	// 3. Setup context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Connect to database
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	// 5. Telegram
	if !cfg.HasTelegramCredentials() {
		log.Warn().Msg("TG_API_ID and TG_API_HASH are not set, ingestion will fail until configured")
	}
	tgManager, tgClient := app.NewTelegram(ctx, cfg, store, log)
	defer tgManager.Stop()

	// 6. Events (log + optional NATS)
	sink, closeSink := app.NewEventSink(ctx, cfg, log)
	defer closeSink()

	// 7. Ingestion service
	svc, err := app.NewIngestService(cfg, tgClient, store.Channels, sink)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ingestion service")
	}

	// 8. Scheduler
	watchlist, err := config.LoadWatchlist(cfg.WatchlistFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load watchlist")
	}
	scheduler := ingest.NewScheduler(svc, store.Channels, ingest.SchedulerConfig{
		Interval:    cfg.SchedulerInterval,
		Concurrency: cfg.SchedulerConcurrency,
		Limit:       cfg.IngestDefaultLimit,
		Watchlist:   watchlist.Channels,
	}, log)

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := scheduler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	// 9. API server
	server := api.NewServer(&api.Config{
		Port:        cfg.HTTPPort,
		Title:       "Channel Stats API",
		Description: "Telegram channel ingestion and daily growth tracking",
		Version:     version,
	}, &api.Dependencies{
		Ingester:     svc,
		ChannelsRepo: store.Channels,
		Telegram:     tgManager,
		DB:           store.DB,
		Logger:       log,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// 10. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("scheduler did not stop in time")
	}

	log.Info().Msg("shutdown complete")
}
