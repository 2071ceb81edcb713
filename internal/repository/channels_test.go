package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/channel-stats/internal/database"
	"github.com/blockedby/channel-stats/internal/models"
)

func setupRepo(t *testing.T) *ChannelsRepository {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(db.Close)

	return NewChannelsRepository(db.GORM, nil)
}

func sampleData(id int64) models.ChannelData {
	return models.ChannelData{
		ChannelID:         id,
		Title:             "Go News",
		Username:          "golang_news",
		Description:       "daily go links",
		ParticipantsCount: 1200,
		PinnedMessages: []models.MessageRef{
			{ID: 7, Date: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Text: "rules"},
		},
		LastMessages: []models.MessageSummary{
			{ID: 100, Date: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Text: "go 1.26", Views: 900, Forwards: 4},
			{ID: 99, Date: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC), Views: 700},
		},
		AverageViews: 800,
	}
}

func TestChannelsRepository_UpsertChannel(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	t.Run("creates new channel", func(t *testing.T) {
		ch, created, err := repo.UpsertChannel(ctx, sampleData(1))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(1), ch.ChannelID)
		assert.Nil(t, ch.ParsedAt)

		stored, err := repo.GetChannel(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "Go News", stored.Title)
		require.Len(t, stored.PinnedMessages, 1)
		assert.Equal(t, "rules", stored.PinnedMessages[0].Text)
		require.Len(t, stored.LastMessages, 2)
		assert.Equal(t, 900, stored.LastMessages[0].Views)
	})

	t.Run("overwrites existing channel in place", func(t *testing.T) {
		data := sampleData(1)
		data.Title = "Go Weekly"
		data.Description = ""
		data.ParticipantsCount = 0
		data.PinnedMessages = nil
		data.AverageViews = 12.5

		ch, created, err := repo.UpsertChannel(ctx, data)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "Go Weekly", ch.Title)
		assert.Equal(t, "", ch.Description, "zero values must overwrite")
		assert.Equal(t, 0, ch.ParticipantsCount)
		assert.Empty(t, ch.PinnedMessages)
		assert.Equal(t, 12.5, ch.AverageViews)

		channels, total, err := repo.ListChannels(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, channels, 1)
	})

	t.Run("does not touch parsed_at", func(t *testing.T) {
		ts := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.TouchParsedAt(ctx, 1, ts))

		ch, _, err := repo.UpsertChannel(ctx, sampleData(1))
		require.NoError(t, err)
		require.NotNil(t, ch.ParsedAt)
		assert.True(t, ts.Equal(*ch.ParsedAt))
	})
}

func TestChannelsRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	_, _, err := repo.UpsertChannel(ctx, sampleData(42))
	require.NoError(t, err)

	t.Run("no stats yet", func(t *testing.T) {
		snap, found, err := repo.LastStats(ctx, 42)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, snap)
	})

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AppendStats(ctx, 42, models.StatsSnapshot{ParticipantsCount: 100, DailyGrowth: 0, ParsedAt: day}))
	require.NoError(t, repo.AppendStats(ctx, 42, models.StatsSnapshot{ParticipantsCount: 130, DailyGrowth: 30, ParsedAt: day.AddDate(0, 0, 1)}))
	// older row appended last must not become the last stats
	require.NoError(t, repo.AppendStats(ctx, 42, models.StatsSnapshot{ParticipantsCount: 90, DailyGrowth: -1, ParsedAt: day.AddDate(0, 0, -1)}))

	t.Run("last stats is max parsed_at", func(t *testing.T) {
		snap, found, err := repo.LastStats(ctx, 42)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 130, snap.ParticipantsCount)
		assert.Equal(t, 30, snap.DailyGrowth)
		assert.True(t, day.AddDate(0, 0, 1).Equal(snap.ParsedAt))
	})

	t.Run("list stats newest first", func(t *testing.T) {
		rows, err := repo.ListStats(ctx, 42, 2)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 130, rows[0].ParticipantsCount)
		assert.Equal(t, 100, rows[1].ParticipantsCount)
	})

	t.Run("append for missing channel", func(t *testing.T) {
		err := repo.AppendStats(ctx, 999, models.StatsSnapshot{ParticipantsCount: 1, ParsedAt: day})
		assert.ErrorIs(t, err, ErrChannelNotFound)
	})

	t.Run("touch missing channel", func(t *testing.T) {
		err := repo.TouchParsedAt(ctx, 999, day)
		assert.ErrorIs(t, err, ErrChannelNotFound)
	})
}

func TestChannelsRepository_ListChannels_Order(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	for _, id := range []int64{1, 2, 3} {
		data := sampleData(id)
		if id == 3 {
			data.Username = ""
		}
		_, _, err := repo.UpsertChannel(ctx, data)
		require.NoError(t, err)
	}

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchParsedAt(ctx, 1, base))
	require.NoError(t, repo.TouchParsedAt(ctx, 3, base.Add(time.Hour)))

	channels, total, err := repo.ListChannels(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	ids := make([]int64, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.ChannelID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids, "latest parsed first, never parsed last")

	page, _, err := repo.ListChannels(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(1), page[0].ChannelID)

	tracked, err := repo.ListTracked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang_news", "golang_news"}, tracked)
}

func TestChannelsRepository_GetChannel_NotFound(t *testing.T) {
	repo := setupRepo(t)

	ch, err := repo.GetChannel(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, ch)
}
