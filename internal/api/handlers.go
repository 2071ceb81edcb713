// Package api provides HTTP handlers for the REST API.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-fuego/fuego"

	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/telegram"
)

const (
	defaultStatsLimit = 30
	maxStatsLimit     = 365
)

// ============================================================================
// Health
// ============================================================================

func (s *Server) healthCheck(c fuego.ContextNoBody) (HealthResponse, error) {
	resp := HealthResponse{
		Status:  "ok",
		Version: "dev",
	}
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(c.Context()); err != nil {
			s.log.Warn().Err(err).Msg("health: database ping failed")
			resp.Status = "degraded"
			resp.Database = "unreachable"
		} else {
			resp.Database = "ok"
		}
	}
	return resp, nil
}

// ============================================================================
// Ingestion Handlers
// ============================================================================

func (s *Server) ingestChannel(c fuego.ContextWithBody[IngestRequest]) (IngestResponse, error) {
	if s.deps.Ingester == nil {
		return IngestResponse{}, fuego.InternalServerError{Detail: "Ingestion service not available"}
	}

	body, err := c.Body()
	if err != nil {
		return IngestResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	result, err := s.deps.Ingester.Ingest(c.Context(), body.Identifier, body.Limit)
	if err != nil {
		return IngestResponse{}, s.ingestError(body.Identifier, err)
	}

	return IngestFromResult(result), nil
}

// ingestError maps the ingestion error taxonomy to HTTP errors.
func (s *Server) ingestError(identifier string, err error) error {
	var (
		validErr    *ingest.ValidationError
		fetchErr    *ingest.FetchError
		notFoundErr *ingest.NotFoundError
		repoErr     *ingest.RepositoryError
	)

	switch {
	case errors.As(err, &validErr):
		return fuego.BadRequestError{Detail: validErr.Error()}
	case errors.Is(err, ingest.ErrCancelled):
		return fuego.HTTPError{Status: http.StatusRequestTimeout, Title: "Request Cancelled", Detail: err.Error()}
	case errors.As(err, &fetchErr):
		switch fetchErr.Kind {
		case ingest.FetchNotFound:
			return fuego.NotFoundError{Detail: "Channel not found: " + identifier}
		case ingest.FetchRateLimited:
			return fuego.HTTPError{Status: http.StatusTooManyRequests, Title: "Rate Limited", Detail: err.Error()}
		default:
			return fuego.HTTPError{Status: http.StatusBadGateway, Title: "Telegram Unavailable", Detail: err.Error()}
		}
	case errors.As(err, &repoErr):
		s.log.Error().Err(err).Str("op", repoErr.Op).Msg("ingest: repository failure")
		return fuego.HTTPError{Status: http.StatusServiceUnavailable, Title: "Storage Unavailable", Detail: err.Error()}
	case errors.As(err, &notFoundErr):
		s.log.Error().Err(err).Int64("channel_id", notFoundErr.ChannelID).Msg("ingest: stats written for missing channel")
		return fuego.InternalServerError{Detail: err.Error()}
	default:
		return fuego.InternalServerError{Detail: err.Error()}
	}
}

// ============================================================================
// Channels Handlers
// ============================================================================

func (s *Server) listChannels(c fuego.ContextNoBody) (ChannelsListResponse, error) {
	limit := parseIntWithDefault(c.QueryParam("limit"), 50)
	offset := parseIntWithDefault(c.QueryParam("offset"), 0)

	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	channels, total, err := s.deps.ChannelsRepo.ListChannels(c.Context(), limit, offset)
	if err != nil {
		return ChannelsListResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return ChannelsListResponse{
		Channels: ChannelsFromModels(channels),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (s *Server) getChannel(c fuego.ContextNoBody) (ChannelDetailResponse, error) {
	idStr := strings.TrimSpace(c.PathParam("channel_id"))
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return ChannelDetailResponse{}, fuego.BadRequestError{Detail: "Invalid channel ID"}
	}

	statsLimit := parseIntWithDefault(c.QueryParam("stats_limit"), defaultStatsLimit)
	if statsLimit <= 0 {
		statsLimit = defaultStatsLimit
	}
	if statsLimit > maxStatsLimit {
		statsLimit = maxStatsLimit
	}

	ch, err := s.deps.ChannelsRepo.GetChannel(c.Context(), id)
	if err != nil {
		return ChannelDetailResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	if ch == nil {
		return ChannelDetailResponse{}, fuego.NotFoundError{Detail: "Channel not found"}
	}

	stats, err := s.deps.ChannelsRepo.ListStats(c.Context(), id, statsLimit)
	if err != nil {
		return ChannelDetailResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return ChannelDetailFromModel(ch, stats), nil
}

// ============================================================================
// Telegram Handlers
// ============================================================================

func (s *Server) getTelegramStatus(c fuego.ContextNoBody) (TelegramStatusResponse, error) {
	if s.deps.Telegram == nil {
		return TelegramStatusResponse{Status: "DISCONNECTED"}, nil
	}

	status := s.deps.Telegram.GetStatus()
	resp := TelegramStatusResponse{
		Status:  string(status),
		IsReady: status == telegram.StatusReady,
	}
	if err := s.deps.Telegram.LastError(); err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
