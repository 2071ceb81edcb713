package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/models"
)

// ============================================================================
// Common Types
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status" example:"ok" description:"Health status"`
	Version  string `json:"version" example:"dev" description:"Application version"`
	Database string `json:"database,omitempty" example:"ok" description:"Database reachability"`
}

// ============================================================================
// Ingestion Types
// ============================================================================

// IngestRequest contains the request body for ingesting a channel.
type IngestRequest struct {
	Identifier string `json:"identifier" validate:"required" example:"@golang_news" description:"Channel username or t.me link"`
	Limit      int    `json:"limit" validate:"gte=0" example:"10" description:"Number of recent messages to fetch (0 = default, max 100)"`
}

// IngestResponse summarizes a completed ingestion.
type IngestResponse struct {
	RequestID         uuid.UUID `json:"request_id" description:"Ingestion request ID"`
	ChannelID         int64     `json:"channel_id" description:"Telegram channel ID"`
	Title             string    `json:"title" description:"Channel title"`
	Username          string    `json:"username" description:"Channel username"`
	Created           bool      `json:"created" description:"True when the channel was seen for the first time"`
	DailyGrowth       int       `json:"daily_growth" description:"Participants growth against the previous day"`
	ParticipantsCount int       `json:"participants_count" description:"Participants at fetch time"`
	ParsedAt          time.Time `json:"parsed_at" description:"Snapshot timestamp"`
}

// IngestFromResult converts an ingestion result to its API shape.
func IngestFromResult(r *ingest.Result) IngestResponse {
	return IngestResponse{
		RequestID:         r.RequestID,
		ChannelID:         r.ChannelID,
		Title:             r.Title,
		Username:          r.Username,
		Created:           r.Created,
		DailyGrowth:       r.DailyGrowth,
		ParticipantsCount: r.ParticipantsCount,
		ParsedAt:          r.ParsedAt,
	}
}

// ============================================================================
// Channel Types
// ============================================================================

// ChannelResponse represents a channel in list responses.
type ChannelResponse struct {
	ChannelID         int64      `json:"channel_id" description:"Telegram channel ID"`
	Title             string     `json:"title" description:"Channel title"`
	Username          string     `json:"username" description:"Channel username"`
	Description       string     `json:"description" description:"Channel description"`
	ParticipantsCount int        `json:"participants_count" description:"Participants at the last ingestion"`
	AverageViews      float64    `json:"average_views" description:"Mean views of the last messages"`
	ParsedAt          *time.Time `json:"parsed_at,omitempty" description:"Last successful ingestion"`
	CreatedAt         time.Time  `json:"created_at" description:"Record creation timestamp"`
	UpdatedAt         time.Time  `json:"updated_at" description:"Last update timestamp"`
}

// ChannelsListResponse contains a page of channels.
type ChannelsListResponse struct {
	Channels []ChannelResponse `json:"channels" description:"Channels, most recently parsed first"`
	Total    int64             `json:"total" description:"Total number of channels"`
	Limit    int               `json:"limit" description:"Page size"`
	Offset   int               `json:"offset" description:"Page offset"`
}

// StatsResponse is one stats snapshot.
type StatsResponse struct {
	ParticipantsCount int       `json:"participants_count" description:"Participants at snapshot time"`
	DailyGrowth       int       `json:"daily_growth" description:"Daily participants growth"`
	ParsedAt          time.Time `json:"parsed_at" description:"Snapshot timestamp"`
}

// ChannelDetailResponse is a channel with its messages and stats history.
type ChannelDetailResponse struct {
	ChannelResponse
	PinnedMessages []models.MessageRef     `json:"pinned_messages" description:"Pinned messages"`
	LastMessages   []models.MessageSummary `json:"last_messages" description:"Most recent messages"`
	Stats          []StatsResponse         `json:"stats" description:"Stats snapshots, newest first"`
}

// ChannelFromModel converts a channel row to its API shape.
func ChannelFromModel(ch *models.Channel) ChannelResponse {
	return ChannelResponse{
		ChannelID:         ch.ChannelID,
		Title:             ch.Title,
		Username:          ch.Username,
		Description:       ch.Description,
		ParticipantsCount: ch.ParticipantsCount,
		AverageViews:      ch.AverageViews,
		ParsedAt:          ch.ParsedAt,
		CreatedAt:         ch.CreatedAt,
		UpdatedAt:         ch.UpdatedAt,
	}
}

// ChannelsFromModels converts a slice of channel rows.
func ChannelsFromModels(channels []models.Channel) []ChannelResponse {
	out := make([]ChannelResponse, len(channels))
	for i := range channels {
		out[i] = ChannelFromModel(&channels[i])
	}
	return out
}

// ChannelDetailFromModel converts a channel and its stats rows.
func ChannelDetailFromModel(ch *models.Channel, stats []models.ChannelStats) ChannelDetailResponse {
	resp := ChannelDetailResponse{
		ChannelResponse: ChannelFromModel(ch),
		PinnedMessages:  ch.PinnedMessages,
		LastMessages:    ch.LastMessages,
		Stats:           make([]StatsResponse, len(stats)),
	}
	if resp.PinnedMessages == nil {
		resp.PinnedMessages = []models.MessageRef{}
	}
	if resp.LastMessages == nil {
		resp.LastMessages = []models.MessageSummary{}
	}
	for i, s := range stats {
		resp.Stats[i] = StatsResponse{
			ParticipantsCount: s.ParticipantsCount,
			DailyGrowth:       s.DailyGrowth,
			ParsedAt:          s.ParsedAt,
		}
	}
	return resp
}

// ============================================================================
// Telegram Types
// ============================================================================

// TelegramStatusResponse represents the MTProto client status.
type TelegramStatusResponse struct {
	Status  string `json:"status" example:"READY" description:"INITIALIZING, READY, UNAUTHORIZED or ERROR"`
	IsReady bool   `json:"is_ready" description:"Whether channels can be fetched"`
	Error   string `json:"error,omitempty" description:"Last initialization error"`
}
