package ingest

import (
	"math"
	"strings"

	"github.com/blockedby/channel-stats/internal/models"
)

// MaxLimit caps the number of recent messages fetched per ingestion
// (one MTProto history page).
const MaxLimit = 100

// normalizeRequest validates caller input and resolves the effective limit.
func normalizeRequest(identifier string, limit, defaultLimit int) (string, int, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", 0, &ValidationError{Field: "identifier", Reason: "is required"}
	}
	if limit < 0 {
		return "", 0, &ValidationError{Field: "limit", Reason: "must be non-negative"}
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return identifier, limit, nil
}

// validateChannelData rejects fetched data that must not be persisted.
func validateChannelData(d models.ChannelData) error {
	switch {
	case d.ChannelID <= 0:
		return &ValidationError{Field: "channel_id", Reason: "must be positive"}
	case d.ParticipantsCount < 0:
		return &ValidationError{Field: "participants_count", Reason: "must be non-negative"}
	case math.IsNaN(d.AverageViews) || math.IsInf(d.AverageViews, 0):
		return &ValidationError{Field: "average_views", Reason: "must be a finite number"}
	case d.AverageViews < 0:
		return &ValidationError{Field: "average_views", Reason: "must be non-negative"}
	}
	for _, m := range d.LastMessages {
		if m.Views < 0 || m.Forwards < 0 {
			return &ValidationError{Field: "last_messages", Reason: "counters must be non-negative"}
		}
	}
	return nil
}
