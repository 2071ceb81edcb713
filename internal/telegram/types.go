package telegram

import (
	"time"

	"github.com/gotd/td/tg"
	"github.com/samber/lo"

	"github.com/blockedby/channel-stats/internal/models"
)

// Channel represents a resolved telegram channel.
type Channel struct {
	ID         int64  // channel id
	AccessHash int64  // access hash for api calls
	Username   string // channel username (without @)
	Title      string // channel title
}

func (c *Channel) inputPeer() *tg.InputPeerChannel {
	return &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash}
}

func (c *Channel) inputChannel() *tg.InputChannel {
	return &tg.InputChannel{ChannelID: c.ID, AccessHash: c.AccessHash}
}

// extractMessages returns the plain messages of a history or search response,
// skipping service and empty messages.
func extractMessages(res tg.MessagesMessagesClass) []*tg.Message {
	var raw []tg.MessageClass
	switch h := res.(type) {
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	case *tg.MessagesMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	}

	return lo.FilterMap(raw, func(m tg.MessageClass, _ int) (*tg.Message, bool) {
		msg, ok := m.(*tg.Message)
		return msg, ok
	})
}

func messageDate(m *tg.Message) time.Time {
	return time.Unix(int64(m.Date), 0).UTC()
}

func toMessageRefs(msgs []*tg.Message) []models.MessageRef {
	return lo.Map(msgs, func(m *tg.Message, _ int) models.MessageRef {
		return models.MessageRef{ID: m.ID, Date: messageDate(m), Text: m.Message}
	})
}

func toSummaries(msgs []*tg.Message) []models.MessageSummary {
	return lo.Map(msgs, func(m *tg.Message, _ int) models.MessageSummary {
		return models.MessageSummary{
			ID:       m.ID,
			Date:     messageDate(m),
			Text:     m.Message,
			Views:    m.Views,
			Forwards: m.Forwards,
		}
	})
}

// averageViews is the mean view count of messages that report views.
func averageViews(msgs []models.MessageSummary) float64 {
	viewed := lo.Filter(msgs, func(m models.MessageSummary, _ int) bool {
		return m.Views > 0
	})
	if len(viewed) == 0 {
		return 0
	}
	total := lo.SumBy(viewed, func(m models.MessageSummary) int { return m.Views })
	return float64(total) / float64(len(viewed))
}
