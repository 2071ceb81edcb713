package telegram

import (
	"context"
	"fmt"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"gorm.io/gorm"

	"github.com/blockedby/channel-stats/internal/config"
)

// NewSessionClient creates a gotgproto client from the configured session.
// A session string wins; otherwise the session stored in the database
// sessions table is used and refreshed auth keys are written back.
func NewSessionClient(_ context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
	opts := &gotgproto.ClientOpts{
		DisableCopyright: true,
	}

	switch {
	case cfg.TGSessionStr != "":
		opts.Session = sessionMaker.StringSession(cfg.TGSessionStr)
		opts.InMemory = true
	case db != nil:
		opts.Session = sessionMaker.SqlSession(db.Dialector)
	default:
		return nil, fmt.Errorf("no telegram session configured")
	}

	client, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(""), // empty = use session
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	return client, nil
}
