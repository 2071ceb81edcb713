package models

// ChannelData is a channel snapshot as returned by the remote fetcher.
type ChannelData struct {
	ChannelID         int64            `json:"channel_id"`
	Title             string           `json:"title"`
	Username          string           `json:"username"`
	Description       string           `json:"description"`
	ParticipantsCount int              `json:"participants_count"`
	PinnedMessages    []MessageRef     `json:"pinned_messages"`
	LastMessages      []MessageSummary `json:"last_messages"`
	AverageViews      float64          `json:"average_views"`
}

// Channel converts fetched data to a channel row without timestamps.
// Message lists are never nil so that they serialize as JSON arrays.
func (d ChannelData) Channel() Channel {
	pinned := d.PinnedMessages
	if pinned == nil {
		pinned = []MessageRef{}
	}
	last := d.LastMessages
	if last == nil {
		last = []MessageSummary{}
	}
	return Channel{
		ChannelID:         d.ChannelID,
		Title:             d.Title,
		Username:          d.Username,
		Description:       d.Description,
		ParticipantsCount: d.ParticipantsCount,
		PinnedMessages:    pinned,
		LastMessages:      last,
		AverageViews:      d.AverageViews,
	}
}
