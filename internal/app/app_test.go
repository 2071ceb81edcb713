package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/channel-stats/internal/config"
	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/logger"
	"github.com/blockedby/channel-stats/internal/models"
)

type stubFetcher struct{}

func (stubFetcher) FetchChannel(ctx context.Context, identifier string, limit int) (models.ChannelData, error) {
	return models.ChannelData{
		ChannelID:         42,
		Title:             "Go News",
		Username:          identifier,
		ParticipantsCount: 100,
	}, nil
}

func sqliteConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        "sqlite::memory:",
		IngestDefaultLimit: 10,
		IngestFetchTimeout: time.Second,
		IngestTimezone:     "UTC",
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	store, err := OpenStore(context.Background(), sqliteConfig(), logger.Nop())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.DB.Ping(context.Background()))

	svc, err := NewIngestService(sqliteConfig(), stubFetcher{}, store.Channels, nil)
	require.NoError(t, err)

	res, err := svc.Ingest(context.Background(), "golang_news", 0)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, int64(42), res.ChannelID)

	tracked, err := store.Channels.ListTracked(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"golang_news"}, tracked)
}

func TestNewIngestService_BadTimezone(t *testing.T) {
	cfg := sqliteConfig()
	cfg.IngestTimezone = "Mars/Olympus"

	_, err := NewIngestService(cfg, stubFetcher{}, nil, nil)
	assert.Error(t, err)
}

func TestNewEventSink_WithoutNATS(t *testing.T) {
	sink, closeFn := NewEventSink(context.Background(), sqliteConfig(), logger.Nop())
	defer closeFn()

	_, ok := sink.(*ingest.LogSink)
	assert.True(t, ok, "expected log sink only when NATS_URL is empty")
}

func TestStoreClose_Nil(t *testing.T) {
	var s *Store
	assert.NotPanics(t, s.Close)
}
