package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	for _, key := range []string{"INGEST_DEFAULT_LIMIT", "INGEST_TIMEZONE", "SCHEDULER_INTERVAL", "NATS_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.IngestDefaultLimit)
	assert.Equal(t, "UTC", cfg.IngestTimezone)
	assert.Equal(t, time.Duration(0), cfg.SchedulerInterval)
	assert.Equal(t, "", cfg.NatsURL)
	assert.Equal(t, 30*time.Second, cfg.IngestFetchTimeout)
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("INGEST_DEFAULT_LIMIT", "25")
	t.Setenv("SCHEDULER_INTERVAL", "15m")
	t.Setenv("INGEST_FETCH_TIMEOUT", "45")
	t.Setenv("INGEST_TIMEZONE", "Europe/Moscow")
	t.Setenv("DATABASE_URL", "sqlite:./stats.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.IngestDefaultLimit)
	assert.Equal(t, 15*time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, 45*time.Second, cfg.IngestFetchTimeout)
	assert.True(t, cfg.IsSQLite())
	assert.Equal(t, "./stats.db", cfg.SQLitePath())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		DatabaseURL:          "sqlite::memory:",
		IngestDefaultLimit:   0,
		SchedulerConcurrency: 1,
		TGRateLimitRPS:       1,
		IngestTimezone:       "Not/AZone",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_DEFAULT_LIMIT")
	assert.Contains(t, err.Error(), "INGEST_TIMEZONE")
}

func TestConfig_HasTelegramCredentials(t *testing.T) {
	assert.False(t, (&Config{TGApiID: 1}).HasTelegramCredentials())
	assert.True(t, (&Config{TGApiID: 1, TGApiHash: "hash"}).HasTelegramCredentials())
}

func TestLoadWatchlist(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty", func(t *testing.T) {
		wl, err := LoadWatchlist(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Empty(t, wl.Channels)
	})

	t.Run("dedupes and trims", func(t *testing.T) {
		path := filepath.Join(dir, "watchlist.yaml")
		content := "channels:\n  - \"@golang_news\"\n  - durov\n  - \"  durov \"\n  - \"\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		wl, err := LoadWatchlist(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"@golang_news", "durov"}, wl.Channels)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("channels: [unclosed"), 0o644))

		_, err := LoadWatchlist(path)
		assert.Error(t, err)
	})
}
