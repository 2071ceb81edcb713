// Package growth computes daily participant growth between stats snapshots.
package growth

import (
	"time"

	"github.com/blockedby/channel-stats/internal/models"
)

// Compute returns the daily growth to record for a snapshot taken at now.
//
// Without a previous snapshot growth is 0. When the previous snapshot falls on
// another calendar day (in now's location) growth is the participant delta,
// otherwise the previous snapshot's growth is carried over unchanged: the
// figure of a day is frozen at its first ingestion.
func Compute(previous *models.StatsSnapshot, currentCount int, now time.Time) int {
	if previous == nil {
		return 0
	}
	if SameDay(previous.ParsedAt, now) {
		return previous.DailyGrowth
	}
	return currentCount - previous.ParticipantsCount
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
