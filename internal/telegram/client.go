// Package telegram fetches public channel data over MTProto.
package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/blockedby/channel-stats/internal/ingest"
	"github.com/blockedby/channel-stats/internal/logger"
	"github.com/blockedby/channel-stats/internal/models"
)

// maxPinned caps the number of pinned messages kept per channel.
const maxPinned = 10

// API is the subset of *tg.Client used to read channels.
type API interface {
	ContactsResolveUsername(ctx context.Context, request *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error)
	ChannelsGetFullChannel(ctx context.Context, channel tg.InputChannelClass) (*tg.MessagesChatFull, error)
	MessagesSearch(ctx context.Context, request *tg.MessagesSearchRequest) (tg.MessagesMessagesClass, error)
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
}

// APIProvider returns the current API, or ErrNotAuthorized.
type APIProvider func() (API, error)

// Client reads channel metadata through a rate-limited MTProto API.
type Client struct {
	api         APIProvider
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a client backed by the manager's MTProto connection.
func NewClient(manager *Manager, limiter *RateLimiter, log *logger.Logger) *Client {
	return NewClientWithAPI(func() (API, error) {
		api, err := manager.API()
		if err != nil {
			return nil, err
		}
		return api, nil
	}, limiter, log)
}

// NewClientWithAPI creates a client for an arbitrary API provider.
func NewClientWithAPI(api APIProvider, limiter *RateLimiter, log *logger.Logger) *Client {
	if limiter == nil {
		limiter = DefaultRateLimiter()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		api:         api,
		rateLimiter: limiter,
		log:         log.Component("telegram"),
	}
}

// FetchChannel resolves a public channel and reads its metadata, pinned
// messages and the last limit posts.
func (c *Client) FetchChannel(ctx context.Context, identifier string, limit int) (models.ChannelData, error) {
	username, err := ParseIdentifier(identifier)
	if err != nil {
		return models.ChannelData{}, err
	}
	switch {
	case limit <= 0:
		limit = ingest.DefaultLimit
	case limit > ingest.MaxLimit:
		limit = ingest.MaxLimit
	}

	api, err := c.api()
	if err != nil {
		return models.ChannelData{}, classify(username, err)
	}

	channel, err := c.resolve(ctx, api, username)
	if err != nil {
		return models.ChannelData{}, err
	}

	var full *tg.MessagesChatFull
	if err := c.call(ctx, "get full channel", username, func() error {
		var err error
		full, err = api.ChannelsGetFullChannel(ctx, channel.inputChannel())
		return err
	}); err != nil {
		return models.ChannelData{}, err
	}
	chFull, ok := full.FullChat.(*tg.ChannelFull)
	if !ok {
		return models.ChannelData{}, notFound(username, "unexpected full chat type %T", full.FullChat)
	}

	var pinned tg.MessagesMessagesClass
	if err := c.call(ctx, "search pinned", username, func() error {
		var err error
		pinned, err = api.MessagesSearch(ctx, &tg.MessagesSearchRequest{
			Peer:   channel.inputPeer(),
			Filter: &tg.InputMessagesFilterPinned{},
			Limit:  maxPinned,
		})
		return err
	}); err != nil {
		return models.ChannelData{}, err
	}

	var history tg.MessagesMessagesClass
	if err := c.call(ctx, "get history", username, func() error {
		var err error
		history, err = api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:  channel.inputPeer(),
			Limit: limit,
		})
		return err
	}); err != nil {
		return models.ChannelData{}, err
	}

	last := toSummaries(extractMessages(history))
	data := models.ChannelData{
		ChannelID:         channel.ID,
		Title:             channel.Title,
		Username:          channel.Username,
		Description:       chFull.About,
		ParticipantsCount: chFull.ParticipantsCount,
		PinnedMessages:    toMessageRefs(extractMessages(pinned)),
		LastMessages:      last,
		AverageViews:      averageViews(last),
	}

	c.log.Info().
		Int64("channel_id", data.ChannelID).
		Str("username", data.Username).
		Int("participants", data.ParticipantsCount).
		Int("messages", len(last)).
		Msg("telegram: channel fetched")

	return data, nil
}

func (c *Client) resolve(ctx context.Context, api API, username string) (*Channel, error) {
	var resolved *tg.ContactsResolvedPeer
	if err := c.call(ctx, "resolve username", username, func() error {
		var err error
		resolved, err = api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
			Username: username,
		})
		return err
	}); err != nil {
		return nil, err
	}

	peer, ok := resolved.Peer.(*tg.PeerChannel)
	if !ok {
		return nil, notFound(username, "%s is not a channel", username)
	}
	for _, chat := range resolved.Chats {
		ch, ok := chat.(*tg.Channel)
		if !ok || ch.ID != peer.ChannelID {
			continue
		}
		name := ch.Username
		if name == "" {
			name = username
		}
		return &Channel{
			ID:         ch.ID,
			AccessHash: ch.AccessHash,
			Username:   name,
			Title:      ch.Title,
		}, nil
	}
	return nil, notFound(username, "channel %s missing from resolve result", username)
}

// call waits on the rate limiter, runs fn and classifies its error.
// FLOOD_WAIT responses pause the limiter for the requested time.
func (c *Client) call(ctx context.Context, op, username string, fn func() error) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("telegram: rate limiter wait failed")
		return classify(username, err)
	}

	err := fn()
	if err == nil {
		return nil
	}

	if wait, ok := tgerr.AsFloodWait(err); ok {
		c.log.Warn().Dur("wait", wait).Str("op", op).Msg("telegram: FLOOD_WAIT detected, updating rate limiter")
		c.rateLimiter.SetFloodWait(wait)
	} else {
		c.log.Error().Err(err).Str("op", op).Str("username", username).Msg("telegram: request failed")
	}
	return classify(username, fmt.Errorf("%s: %w", op, err))
}
