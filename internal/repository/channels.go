package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blockedby/channel-stats/internal/models"
)

// ErrChannelNotFound is returned by writes that reference a missing channel.
var ErrChannelNotFound = errors.New("channel not found")

// columns overwritten when an existing channel is upserted
var mutableChannelColumns = []string{
	"title",
	"username",
	"description",
	"participants_count",
	"pinned_messages",
	"last_messages",
	"average_views",
	"updated_at",
}

// ChannelsRepository handles channels and channel_stats table operations.
type ChannelsRepository struct {
	db     *gorm.DB
	locker Locker
	now    func() time.Time
}

// NewChannelsRepository creates a new channels repository.
// A nil locker defaults to an in-process KeyedLocker.
func NewChannelsRepository(db *gorm.DB, locker Locker) *ChannelsRepository {
	if locker == nil {
		locker = NewKeyedLocker()
	}
	return &ChannelsRepository{
		db:     db,
		locker: locker,
		now:    time.Now,
	}
}

// LockChannel serializes ingestions of one channel. The returned func
// releases the lock and is safe to call more than once.
func (r *ChannelsRepository) LockChannel(ctx context.Context, channelID int64) (func(), error) {
	return r.locker.Lock(ctx, channelID)
}

// UpsertChannel creates the channel or overwrites its mutable attributes.
// created reports whether a new row was inserted. parsed_at is never changed here.
func (r *ChannelsRepository) UpsertChannel(ctx context.Context, data models.ChannelData) (*models.Channel, bool, error) {
	ch := data.Channel()
	now := r.now().UTC()
	ch.CreatedAt = now
	ch.UpdatedAt = now

	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}},
			DoNothing: true,
		}).Create(&ch)
		if res.Error != nil {
			return fmt.Errorf("insert channel: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			created = true
			return nil
		}

		if err := tx.Model(&models.Channel{}).
			Where("channel_id = ?", ch.ChannelID).
			Select(mutableChannelColumns).
			Updates(&ch).Error; err != nil {
			return fmt.Errorf("update channel: %w", err)
		}

		var stored models.Channel
		if err := tx.Where("channel_id = ?", ch.ChannelID).Take(&stored).Error; err != nil {
			return fmt.Errorf("reload channel: %w", err)
		}
		ch = stored
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert channel %d: %w", data.ChannelID, err)
	}

	return &ch, created, nil
}

// LastStats returns the newest snapshot of a channel.
func (r *ChannelsRepository) LastStats(ctx context.Context, channelID int64) (*models.StatsSnapshot, bool, error) {
	var row models.ChannelStats
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("parsed_at DESC").
		Order("id DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get last stats: %w", err)
	}

	snap := row.Snapshot()
	return &snap, true, nil
}

// AppendStats inserts an immutable stats row for an existing channel.
func (r *ChannelsRepository) AppendStats(ctx context.Context, channelID int64, snap models.StatsSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Channel{}).Where("channel_id = ?", channelID).Count(&count).Error; err != nil {
			return fmt.Errorf("check channel: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("append stats for %d: %w", channelID, ErrChannelNotFound)
		}

		row := models.ChannelStats{
			ChannelID:         channelID,
			ParticipantsCount: snap.ParticipantsCount,
			DailyGrowth:       snap.DailyGrowth,
			ParsedAt:          snap.ParsedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("append stats: %w", err)
		}
		return nil
	})
}

// TouchParsedAt updates only the channel's parsed_at.
func (r *ChannelsRepository) TouchParsedAt(ctx context.Context, channelID int64, ts time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("channel_id = ?", channelID).
		UpdateColumn("parsed_at", ts.UTC())
	if res.Error != nil {
		return fmt.Errorf("touch parsed_at: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("touch parsed_at for %d: %w", channelID, ErrChannelNotFound)
	}
	return nil
}

// GetChannel returns a channel by id, or nil when it does not exist.
func (r *ChannelsRepository) GetChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	var ch models.Channel
	err := r.db.WithContext(ctx).Where("channel_id = ?", channelID).Take(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &ch, nil
}

// ListChannels returns channels with the most recently parsed first;
// channels that were never parsed come last.
func (r *ChannelsRepository) ListChannels(ctx context.Context, limit, offset int) ([]models.Channel, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Channel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count channels: %w", err)
	}

	var channels []models.Channel
	err := db.
		Order("CASE WHEN parsed_at IS NULL THEN 1 ELSE 0 END").
		Order("parsed_at DESC").
		Order("channel_id").
		Limit(limit).
		Offset(offset).
		Find(&channels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list channels: %w", err)
	}
	return channels, total, nil
}

// ListStats returns the newest stats rows of a channel.
func (r *ChannelsRepository) ListStats(ctx context.Context, channelID int64, limit int) ([]models.ChannelStats, error) {
	if limit <= 0 {
		limit = 30
	}

	var rows []models.ChannelStats
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("parsed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	return rows, nil
}

// ListTracked returns usernames of stored channels that can be re-fetched.
func (r *ChannelsRepository) ListTracked(ctx context.Context) ([]string, error) {
	var usernames []string
	err := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("username <> ''").
		Order("channel_id").
		Pluck("username", &usernames).Error
	if err != nil {
		return nil, fmt.Errorf("list tracked channels: %w", err)
	}
	return usernames, nil
}
