// Package models defines shared data types for the application.
package models

import (
	"time"
)

// MessageRef points to a pinned channel message.
type MessageRef struct {
	ID   int       `json:"id"`
	Date time.Time `json:"date"`
	Text string    `json:"text,omitempty"`
}

// MessageSummary is a short description of a recent channel post.
type MessageSummary struct {
	ID       int       `json:"id"`
	Date     time.Time `json:"date"`
	Text     string    `json:"text,omitempty"`
	Views    int       `json:"views"`
	Forwards int       `json:"forwards"`
}

// Channel is a tracked telegram channel, one row per channel_id.
type Channel struct {
	ChannelID   int64  `gorm:"column:channel_id;primaryKey;autoIncrement:false" json:"channel_id"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Username    string `gorm:"column:username;not null" json:"username"`
	Description string `gorm:"column:description;not null" json:"description"`

	ParticipantsCount int              `gorm:"column:participants_count;not null" json:"participants_count"`
	PinnedMessages    []MessageRef     `gorm:"column:pinned_messages;serializer:json" json:"pinned_messages"`
	LastMessages      []MessageSummary `gorm:"column:last_messages;serializer:json" json:"last_messages"`
	AverageViews      float64          `gorm:"column:average_views;not null" json:"average_views"`

	// nil until the first completed ingestion
	ParsedAt *time.Time `gorm:"column:parsed_at" json:"parsed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	// has-many; puts the foreign key on channel_stats. Never preloaded.
	Stats []ChannelStats `gorm:"foreignKey:ChannelID;references:ChannelID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the gorm table name.
func (Channel) TableName() string {
	return "channels"
}

// ChannelStats is an immutable point-in-time snapshot of a channel.
type ChannelStats struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ChannelID         int64     `gorm:"column:channel_id;not null;index:idx_channel_stats_channel_parsed,priority:1" json:"channel_id"`
	ParticipantsCount int       `gorm:"column:participants_count;not null" json:"participants_count"`
	DailyGrowth       int       `gorm:"column:daily_growth;not null" json:"daily_growth"`
	ParsedAt          time.Time `gorm:"column:parsed_at;not null;index:idx_channel_stats_channel_parsed,priority:2" json:"parsed_at"`
}

// TableName overrides the gorm table name.
func (ChannelStats) TableName() string {
	return "channel_stats"
}

// Snapshot returns the repository-independent view of the row.
func (s ChannelStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ParticipantsCount: s.ParticipantsCount,
		DailyGrowth:       s.DailyGrowth,
		ParsedAt:          s.ParsedAt,
	}
}

// StatsSnapshot is the data of one stats row.
type StatsSnapshot struct {
	ParticipantsCount int       `json:"participants_count"`
	DailyGrowth       int       `json:"daily_growth"`
	ParsedAt          time.Time `json:"parsed_at"`
}
