// Package publisher forwards ingestion outcomes to NATS.
package publisher

import (
	"context"
	"time"

	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/logger"
	"github.com/blockedby/channel-stats/internal/nats"
)

const publishTimeout = 5 * time.Second

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher implements ingest.EventSink. Only terminal events are
// published; intermediate states stay in the logs.
type NATSPublisher struct {
	js  NATSClient
	log *logger.Logger
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(client NATSClient, log *logger.Logger) *NATSPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &NATSPublisher{js: client, log: log.Component("publisher")}
}

// Emit publishes DONE events to channels.ingested and FAILED events to
// channels.ingest_failed. Publish errors are logged, never returned.
func (p *NATSPublisher) Emit(ctx context.Context, event ingest.Event) {
	var subject string
	switch event.State {
	case ingest.StateDone:
		subject = nats.SubjectIngested
	case ingest.StateFailed:
		subject = nats.SubjectIngestFailed
	default:
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.js.Publish(ctx, subject, event); err != nil {
		p.log.Error().
			Err(err).
			Str("subject", subject).
			Str("request_id", event.RequestID.String()).
			Msg("failed to publish ingestion event")
	}
}
