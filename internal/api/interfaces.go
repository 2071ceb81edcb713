package api

import (
	"context"

	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/models"
	"github.com/blockedby/channel-stats/internal/telegram"
)

// Ingester runs channel ingestions.
type Ingester interface {
	Ingest(ctx context.Context, identifier string, limit int) (*ingest.Result, error)
}

// ChannelsRepository defines the interface for channel data access.
type ChannelsRepository interface {
	ListChannels(ctx context.Context, limit, offset int) ([]models.Channel, int64, error)
	GetChannel(ctx context.Context, channelID int64) (*models.Channel, error)
	ListStats(ctx context.Context, channelID int64, limit int) ([]models.ChannelStats, error)
}

// TelegramStatus reports the MTProto client state.
type TelegramStatus interface {
	GetStatus() telegram.Status
	LastError() error
}

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
