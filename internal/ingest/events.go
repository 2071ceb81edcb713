package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/channel-stats/internal/logger"
)

// State is a step of one ingestion request.
type State string

// State constants.
const (
	StateFetching    State = "FETCHING"
	StateReconciling State = "RECONCILING"
	StatePersisting  State = "PERSISTING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Event is emitted on every state transition of an ingestion request.
type Event struct {
	RequestID         uuid.UUID `json:"request_id"`
	Identifier        string    `json:"identifier"`
	State             State     `json:"state"`
	ChannelID         int64     `json:"channel_id,omitempty"`
	Created           bool      `json:"created"`
	ParticipantsCount int       `json:"participants_count"`
	DailyGrowth       int       `json:"daily_growth"`
	Reason            string    `json:"reason,omitempty"`
	Error             string    `json:"error,omitempty"`
	At                time.Time `json:"at"`
}

// EventSink receives ingestion events. Emit must not block for long and
// must not fail the ingestion.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NopSink drops all events.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(context.Context, Event) {}

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

// Emit implements EventSink.
func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(ctx, event)
		}
	}
}

// LogSink renders events through zerolog.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink that logs every event.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit implements EventSink.
func (s *LogSink) Emit(_ context.Context, event Event) {
	entry := s.log.Debug()
	switch event.State {
	case StateDone:
		entry = s.log.Info()
	case StateFailed:
		entry = s.log.Warn()
	}

	entry = entry.
		Str("request_id", event.RequestID.String()).
		Str("identifier", event.Identifier).
		Str("state", string(event.State))
	if event.ChannelID != 0 {
		entry = entry.Int64("channel_id", event.ChannelID)
	}

	switch event.State {
	case StateDone:
		entry.
			Bool("created", event.Created).
			Int("participants_count", event.ParticipantsCount).
			Int("daily_growth", event.DailyGrowth).
			Msg("channel ingested")
	case StateFailed:
		entry.
			Str("reason", event.Reason).
			Str("error", event.Error).
			Msg("ingestion failed")
	default:
		entry.Msg("ingestion state changed")
	}
}

// FailureReason maps an ingestion error to a short machine-readable reason.
func FailureReason(err error) string {
	var (
		fetchErr    *FetchError
		validErr    *ValidationError
		notFoundErr *NotFoundError
		repoErr     *RepositoryError
	)
	switch {
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.As(err, &fetchErr):
		return "fetch_" + string(fetchErr.Kind)
	case errors.As(err, &validErr):
		return "validation"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &repoErr):
		return "repository"
	default:
		return "unknown"
	}
}
