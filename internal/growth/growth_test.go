package growth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blockedby/channel-stats/internal/models"
)

func TestCompute(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		previous *models.StatsSnapshot
		current  int
		now      time.Time
		want     int
	}{
		{
			name:    "no previous snapshot",
			current: 5000,
			now:     day,
			want:    0,
		},
		{
			name:     "next day positive growth",
			previous: &models.StatsSnapshot{ParticipantsCount: 100, DailyGrowth: 0, ParsedAt: day},
			current:  130,
			now:      day.Add(24 * time.Hour),
			want:     30,
		},
		{
			name:     "next day negative growth",
			previous: &models.StatsSnapshot{ParticipantsCount: 200, DailyGrowth: 12, ParsedAt: day},
			current:  150,
			now:      day.AddDate(0, 0, 1),
			want:     -50,
		},
		{
			name:     "same day keeps frozen growth",
			previous: &models.StatsSnapshot{ParticipantsCount: 100, DailyGrowth: 0, ParsedAt: day},
			current:  150,
			now:      day.Add(3 * time.Hour),
			want:     0,
		},
		{
			name:     "same day keeps non-zero frozen growth",
			previous: &models.StatsSnapshot{ParticipantsCount: 120, DailyGrowth: 20, ParsedAt: day},
			current:  90,
			now:      day.Add(time.Minute),
			want:     20,
		},
		{
			name:     "one second across midnight is a new day",
			previous: &models.StatsSnapshot{ParticipantsCount: 10, DailyGrowth: 3, ParsedAt: time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)},
			current:  11,
			now:      time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
			want:     1,
		},
		{
			name:     "several days gap uses plain delta",
			previous: &models.StatsSnapshot{ParticipantsCount: 10, DailyGrowth: 3, ParsedAt: day},
			current:  40,
			now:      day.AddDate(0, 0, 7),
			want:     30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.previous, tt.current, tt.now))
		})
	}
}

func TestSameDay_UsesLocationOfSecondArgument(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)

	// 22:30 UTC is already the next day in Moscow
	prev := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, moscow)

	assert.True(t, SameDay(prev, now))
	assert.False(t, SameDay(prev, now.In(time.UTC)))
}

func TestCompute_Deterministic(t *testing.T) {
	prev := &models.StatsSnapshot{ParticipantsCount: 1, DailyGrowth: 1, ParsedAt: time.Unix(0, 0).UTC()}
	now := time.Unix(86400*3, 0).UTC()

	first := Compute(prev, 10, now)
	second := Compute(prev, 10, now)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, prev.ParticipantsCount, "previous snapshot must not be modified")
}
