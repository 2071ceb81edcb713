package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blockedby/channel-stats/internal/config"
	"github.com/blockedby/channel-stats/internal/ingest"
)

// fakeAPI serves canned MTProto responses.
type fakeAPI struct {
	resolveErr error
	fullErr    error
	historyErr error

	peer    tg.PeerClass
	chats   []tg.ChatClass
	full    tg.ChatFullClass
	pinned  []tg.MessageClass
	history []tg.MessageClass

	historyLimit int
	searchFilter tg.MessagesFilterClass
	calls        int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		peer: &tg.PeerChannel{ChannelID: 1001},
		chats: []tg.ChatClass{
			&tg.Chat{ID: 5},
			&tg.Channel{ID: 1001, AccessHash: 77, Title: "Go News", Username: "golang_news"},
		},
		full: &tg.ChannelFull{ID: 1001, About: "daily go links", ParticipantsCount: 1200},
		pinned: []tg.MessageClass{
			&tg.Message{ID: 3, Date: 1767225600, Message: "rules"},
		},
		history: []tg.MessageClass{
			&tg.Message{ID: 12, Date: 1772366400, Message: "go 1.26", Views: 900, Forwards: 4},
			&tg.MessageService{ID: 11},
			&tg.Message{ID: 10, Date: 1772280000, Message: "no views"},
			&tg.Message{ID: 9, Date: 1772193600, Views: 300},
		},
	}
}

func (f *fakeAPI) ContactsResolveUsername(_ context.Context, req *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error) {
	f.calls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &tg.ContactsResolvedPeer{Peer: f.peer, Chats: f.chats}, nil
}

func (f *fakeAPI) ChannelsGetFullChannel(_ context.Context, _ tg.InputChannelClass) (*tg.MessagesChatFull, error) {
	f.calls++
	if f.fullErr != nil {
		return nil, f.fullErr
	}
	return &tg.MessagesChatFull{FullChat: f.full}, nil
}

func (f *fakeAPI) MessagesSearch(_ context.Context, req *tg.MessagesSearchRequest) (tg.MessagesMessagesClass, error) {
	f.calls++
	f.searchFilter = req.Filter
	return &tg.MessagesChannelMessages{Messages: f.pinned}, nil
}

func (f *fakeAPI) MessagesGetHistory(_ context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
	f.calls++
	f.historyLimit = req.Limit
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return &tg.MessagesChannelMessages{Messages: f.history}, nil
}

func newTestClient(api *fakeAPI) *Client {
	return NewClientWithAPI(func() (API, error) { return api, nil }, NewRateLimiter(1000, 10), nil)
}

func TestClient_FetchChannel(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(api)

	data, err := c.FetchChannel(context.Background(), "https://t.me/golang_news", 20)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), data.ChannelID)
	assert.Equal(t, "Go News", data.Title)
	assert.Equal(t, "golang_news", data.Username)
	assert.Equal(t, "daily go links", data.Description)
	assert.Equal(t, 1200, data.ParticipantsCount)

	require.Len(t, data.PinnedMessages, 1)
	assert.Equal(t, "rules", data.PinnedMessages[0].Text)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), data.PinnedMessages[0].Date)

	require.Len(t, data.LastMessages, 3, "service messages are skipped")
	assert.Equal(t, 12, data.LastMessages[0].ID)
	assert.Equal(t, 4, data.LastMessages[0].Forwards)
	assert.Equal(t, 600.0, data.AverageViews, "messages without views do not count")

	assert.Equal(t, 20, api.historyLimit)
	assert.IsType(t, &tg.InputMessagesFilterPinned{}, api.searchFilter)
}

func TestClient_FetchChannel_LimitClamped(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(api)

	_, err := c.FetchChannel(context.Background(), "golang_news", 500)
	require.NoError(t, err)
	assert.Equal(t, 100, api.historyLimit)
}

func TestClient_FetchChannel_DefaultLimit(t *testing.T) {
	for _, limit := range []int{0, -5} {
		api := newFakeAPI()
		c := newTestClient(api)

		_, err := c.FetchChannel(context.Background(), "golang_news", limit)
		require.NoError(t, err)
		assert.Equal(t, ingest.DefaultLimit, api.historyLimit, "limit %d", limit)
	}
}

func TestClient_FetchChannel_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(api *fakeAPI)
		wantKind ingest.FetchErrorKind
	}{
		{
			name:     "username not occupied",
			setup:    func(api *fakeAPI) { api.resolveErr = tgerr.New(400, "USERNAME_NOT_OCCUPIED") },
			wantKind: ingest.FetchNotFound,
		},
		{
			name:     "private channel",
			setup:    func(api *fakeAPI) { api.fullErr = tgerr.New(400, "CHANNEL_PRIVATE") },
			wantKind: ingest.FetchNotFound,
		},
		{
			name:     "user instead of channel",
			setup:    func(api *fakeAPI) { api.peer = &tg.PeerUser{UserID: 1} },
			wantKind: ingest.FetchNotFound,
		},
		{
			name:     "flood wait",
			setup:    func(api *fakeAPI) { api.historyErr = tgerr.New(420, "FLOOD_WAIT_5") },
			wantKind: ingest.FetchRateLimited,
		},
		{
			name:     "network failure",
			setup:    func(api *fakeAPI) { api.resolveErr = errors.New("connection reset by peer") },
			wantKind: ingest.FetchUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			tt.setup(api)
			c := newTestClient(api)

			_, err := c.FetchChannel(context.Background(), "@golang_news", 10)

			var fetchErr *ingest.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.wantKind, fetchErr.Kind)
			assert.Equal(t, "golang_news", fetchErr.Identifier)
		})
	}
}

func TestClient_FetchChannel_FloodWaitPausesLimiter(t *testing.T) {
	api := newFakeAPI()
	api.historyErr = tgerr.New(420, "FLOOD_WAIT_30")

	limiter := NewRateLimiter(1000, 10).WithMaxWait(time.Second)
	c := NewClientWithAPI(func() (API, error) { return api, nil }, limiter, nil)

	_, err := c.FetchChannel(context.Background(), "golang_news", 10)
	require.Error(t, err)
	assert.Greater(t, limiter.FloodWaitRemaining(), 20*time.Second)

	// next fetch fails fast without touching the api
	calls := api.calls
	_, err = c.FetchChannel(context.Background(), "golang_news", 10)

	var fetchErr *ingest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ingest.FetchRateLimited, fetchErr.Kind)
	assert.ErrorIs(t, err, ErrFloodWait)
	assert.Equal(t, calls, api.calls)
}

func TestClient_FetchChannel_InvalidIdentifier(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(api)

	_, err := c.FetchChannel(context.Background(), "t.me/+AbCdEf", 10)

	var validErr *ingest.ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Zero(t, api.calls)
}

func TestClient_FetchChannel_Unauthorized(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	manager := NewManager(&config.Config{}, db, nil)
	// manager is never initialized, so there is no api
	c := NewClient(manager, nil, nil)

	_, err = c.FetchChannel(context.Background(), "golang_news", 10)

	var fetchErr *ingest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ingest.FetchUnavailable, fetchErr.Kind)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAverageViews(t *testing.T) {
	assert.Zero(t, averageViews(nil))
	assert.Equal(t, 15.0, averageViews(toSummaries([]*tg.Message{{Views: 10}, {Views: 20}, {Views: 0}})))
}
