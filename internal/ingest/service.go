// Package ingest fetches channel snapshots and records their growth.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/channel-stats/internal/growth"
	"github.com/blockedby/channel-stats/internal/models"
	"github.com/blockedby/channel-stats/internal/repository"
)

// DefaultLimit is used when neither the caller nor the config set a limit.
const DefaultLimit = 10

// Fetcher retrieves channel metadata from the remote platform.
type Fetcher interface {
	FetchChannel(ctx context.Context, identifier string, limit int) (models.ChannelData, error)
}

// Repository persists channels and their stats snapshots.
type Repository interface {
	LockChannel(ctx context.Context, channelID int64) (func(), error)
	UpsertChannel(ctx context.Context, data models.ChannelData) (*models.Channel, bool, error)
	LastStats(ctx context.Context, channelID int64) (*models.StatsSnapshot, bool, error)
	AppendStats(ctx context.Context, channelID int64, snap models.StatsSnapshot) error
	TouchParsedAt(ctx context.Context, channelID int64, ts time.Time) error
}

// Config tunes the service.
type Config struct {
	DefaultLimit int
	FetchTimeout time.Duration
	// Location defines the calendar day for growth. Defaults to UTC.
	Location *time.Location
}

// Result summarizes one successful ingestion.
type Result struct {
	RequestID         uuid.UUID       `json:"request_id"`
	ChannelID         int64           `json:"channel_id"`
	Title             string          `json:"title"`
	Username          string          `json:"username"`
	Created           bool            `json:"created"`
	DailyGrowth       int             `json:"daily_growth"`
	ParticipantsCount int             `json:"participants_count"`
	ParsedAt          time.Time       `json:"parsed_at"`
	Channel           *models.Channel `json:"-"`
}

// Service runs ingestions: fetch, upsert, growth, append, touch.
type Service struct {
	fetcher Fetcher
	repo    Repository
	sink    EventSink
	cfg     Config
	now     func() time.Time
}

// NewService creates a new ingestion service.
func NewService(fetcher Fetcher, repo Repository, sink EventSink, cfg Config) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.DefaultLimit > MaxLimit {
		cfg.DefaultLimit = MaxLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		sink:    sink,
		cfg:     cfg,
		now:     time.Now,
	}
}

// request carries per-call state for event emission.
type request struct {
	id         uuid.UUID
	identifier string
	channelID  int64
}

// Ingest fetches a channel once and records a stats snapshot.
//
// Cancellation is honoured until the fetch returns. Once data is fetched the
// writes run to completion even if ctx is done, since they are not rolled back.
func (s *Service) Ingest(ctx context.Context, identifier string, limit int) (*Result, error) {
	req := &request{id: uuid.New(), identifier: identifier}

	identifier, limit, err := normalizeRequest(identifier, limit, s.cfg.DefaultLimit)
	if err != nil {
		return nil, s.fail(ctx, req, err)
	}
	req.identifier = identifier

	// FETCHING
	s.emit(ctx, req, StateFetching, nil)
	data, err := s.fetch(ctx, identifier, limit)
	if err != nil {
		return nil, s.fail(ctx, req, err)
	}
	if err := validateChannelData(data); err != nil {
		return nil, s.fail(ctx, req, err)
	}
	req.channelID = data.ChannelID

	pctx := context.WithoutCancel(ctx)

	unlock, err := s.repo.LockChannel(pctx, data.ChannelID)
	if err != nil {
		return nil, s.fail(ctx, req, &RepositoryError{Op: "lock_channel", Err: err})
	}
	defer unlock()

	now := s.now().In(s.cfg.Location)

	// RECONCILING
	s.emit(ctx, req, StateReconciling, nil)
	ch, created, err := s.repo.UpsertChannel(pctx, data)
	if err != nil {
		return nil, s.fail(ctx, req, &RepositoryError{Op: "upsert_channel", Err: err})
	}

	last, _, err := s.repo.LastStats(pctx, data.ChannelID)
	if err != nil {
		return nil, s.fail(ctx, req, &RepositoryError{Op: "last_stats", Err: err})
	}
	dailyGrowth := growth.Compute(last, data.ParticipantsCount, now)

	// PERSISTING
	s.emit(ctx, req, StatePersisting, nil)
	snap := models.StatsSnapshot{
		ParticipantsCount: data.ParticipantsCount,
		DailyGrowth:       dailyGrowth,
		ParsedAt:          now,
	}
	if err := s.repo.AppendStats(pctx, data.ChannelID, snap); err != nil {
		return nil, s.fail(ctx, req, storageError("append_stats", data.ChannelID, err))
	}
	if err := s.repo.TouchParsedAt(pctx, data.ChannelID, now); err != nil {
		return nil, s.fail(ctx, req, storageError("touch_parsed_at", data.ChannelID, err))
	}
	parsedAt := now
	ch.ParsedAt = &parsedAt

	result := &Result{
		RequestID:         req.id,
		ChannelID:         ch.ChannelID,
		Title:             ch.Title,
		Username:          ch.Username,
		Created:           created,
		DailyGrowth:       dailyGrowth,
		ParticipantsCount: data.ParticipantsCount,
		ParsedAt:          now,
		Channel:           ch,
	}

	// DONE
	s.emit(ctx, req, StateDone, result)
	return result, nil
}

func (s *Service) fetch(ctx context.Context, identifier string, limit int) (models.ChannelData, error) {
	if err := ctx.Err(); err != nil {
		return models.ChannelData{}, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	data, err := s.fetcher.FetchChannel(fetchCtx, identifier, limit)
	if err == nil {
		return data, nil
	}

	// the caller gave up, as opposed to our own fetch timeout firing
	if ctx.Err() != nil {
		return models.ChannelData{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}

	var (
		fetchErr *FetchError
		validErr *ValidationError
	)
	if errors.As(err, &fetchErr) || errors.As(err, &validErr) {
		return models.ChannelData{}, err
	}
	return models.ChannelData{}, NewFetchError(FetchUnavailable, identifier, err)
}

func storageError(op string, channelID int64, err error) error {
	if errors.Is(err, repository.ErrChannelNotFound) {
		return &NotFoundError{ChannelID: channelID, Err: err}
	}
	return &RepositoryError{Op: op, Err: err}
}

func (s *Service) fail(ctx context.Context, req *request, err error) error {
	event := s.event(req, StateFailed)
	event.Reason = FailureReason(err)
	event.Error = err.Error()
	s.sink.Emit(context.WithoutCancel(ctx), event)
	return err
}

func (s *Service) emit(ctx context.Context, req *request, state State, result *Result) {
	event := s.event(req, state)
	if result != nil {
		event.Created = result.Created
		event.ParticipantsCount = result.ParticipantsCount
		event.DailyGrowth = result.DailyGrowth
	}
	s.sink.Emit(context.WithoutCancel(ctx), event)
}

func (s *Service) event(req *request, state State) Event {
	return Event{
		RequestID:  req.id,
		Identifier: req.identifier,
		State:      state,
		ChannelID:  req.channelID,
		At:         s.now().UTC(),
	}
}
