// Package app wires the components shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/blockedby/channel-stats/internal/config"
	"github.com/blockedby/channel-stats/internal/database"
	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/logger"
	"github.com/blockedby/channel-stats/internal/migrator"
	"github.com/blockedby/channel-stats/internal/nats"
	"github.com/blockedby/channel-stats/internal/publisher"
	"github.com/blockedby/channel-stats/internal/repository"
	"github.com/blockedby/channel-stats/internal/telegram"
	"github.com/blockedby/channel-stats/migrations"
)

// Store is an open database with its channels repository.
type Store struct {
	DB       *database.DB
	Channels *repository.ChannelsRepository
}

// OpenStore connects to the configured database and brings its schema up to
// date. Postgres uses the embedded migrations and advisory locks; sqlite uses
// AutoMigrate and an in-process locker.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	if cfg.IsSQLite() {
		db, err := database.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath()).Msg("sqlite database ready")
		return &Store{DB: db, Channels: repository.NewChannelsRepository(db.GORM, repository.NewKeyedLocker())}, nil
	}

	if err := Migrate(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("postgres database ready")

	locker := repository.NewAdvisoryLocker(db.Pool, nil)
	return &Store{DB: db, Channels: repository.NewChannelsRepository(db.GORM, locker)}, nil
}

// Close releases the database connections.
func (s *Store) Close() {
	if s != nil && s.DB != nil {
		s.DB.Close()
	}
}

// Migrate applies all pending postgres migrations.
func Migrate(ctx context.Context, databaseURL string) error {
	m, err := migrator.NewWithFS(migrations.FS)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := m.Up(ctx, databaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// NewTelegram initializes the MTProto manager and the fetch client on top of it.
// An unauthorized or failed manager is not an error; fetches report it.
func NewTelegram(ctx context.Context, cfg *config.Config, store *Store, log *logger.Logger) (*telegram.Manager, *telegram.Client) {
	manager := telegram.NewManager(cfg, store.DB.GORM, log)
	if err := manager.Init(ctx); err != nil {
		log.Error().Err(err).Msg("telegram manager init failed")
	}

	limiter := telegram.NewRateLimiter(cfg.TGRateLimitRPS, 1).WithMaxWait(cfg.TGFloodMaxWait)
	return manager, telegram.NewClient(manager, limiter, log)
}

// NewEventSink returns the log sink, plus a NATS publisher when NATS_URL is
// set and reachable. The returned func closes the connection.
func NewEventSink(ctx context.Context, cfg *config.Config, log *logger.Logger) (ingest.EventSink, func()) {
	logSink := ingest.NewLogSink(log)
	if cfg.NatsURL == "" {
		return logSink, func() {}
	}

	nc, err := nats.New(ctx, cfg.NatsURL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		return logSink, func() {}
	}
	if err := nc.EnsureChannelsStream(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure channels stream, publishing disabled")
		nc.Close()
		return logSink, func() {}
	}

	return ingest.MultiSink{logSink, publisher.NewNATSPublisher(nc, log)}, nc.Close
}

// NewIngestService builds the ingestion service from config.
func NewIngestService(cfg *config.Config, fetcher ingest.Fetcher, repo ingest.Repository, sink ingest.EventSink) (*ingest.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return ingest.NewService(fetcher, repo, sink, ingest.Config{
		DefaultLimit: cfg.IngestDefaultLimit,
		FetchTimeout: cfg.IngestFetchTimeout,
		Location:     loc,
	}), nil
}
