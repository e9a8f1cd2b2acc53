package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreak(t *testing.T) {
	today := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	day := func(offset int, hour int) time.Time {
		return time.Date(2024, 5, 10+offset, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		activity []time.Time
		want     int
	}{
		{"no activity", nil, 0},
		{"today only", []time.Time{day(0, 1)}, 1},
		{"three consecutive days", []time.Time{day(0, 9), day(-1, 23), day(-2, 0)}, 3},
		{"gap stops the walk", []time.Time{day(0, 9), day(-1, 9), day(-3, 9), day(-4, 9)}, 2},
		{"nothing today", []time.Time{day(-1, 9), day(-2, 9)}, 0},
		{"several on one day count once", []time.Time{day(0, 1), day(0, 2), day(0, 3)}, 1},
		{"non UTC input normalised", []time.Time{time.Date(2024, 5, 10, 1, 0, 0, 0, time.FixedZone("X", 3*3600))}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.activity, today, 100))
		})
	}
}

func TestStreak_CappedAtLookback(t *testing.T) {
	today := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	var activity []time.Time
	for i := 0; i < 150; i++ {
		activity = append(activity, today.AddDate(0, 0, -i))
	}
	assert.Equal(t, 100, Streak(activity, today, 100))
}

func TestAverageScore(t *testing.T) {
	assert.Equal(t, 0, AverageScore(nil))
	assert.Equal(t, 75, AverageScore([]int{100, 50}))
	assert.Equal(t, 66, AverageScore([]int{100, 66, 33}))
	assert.InDelta(t, 66.333, MeanScore([]int{100, 66, 33}), 0.001)
	assert.Zero(t, MeanScore(nil))
}

func TestRank_StableDescending(t *testing.T) {
	totals := []Total{
		{UserID: 1, Value: 3},
		{UserID: 2, Value: 5},
		{UserID: 3, Value: 3},
		{UserID: 4, Value: 0},
	}

	rank, ok := Rank(totals, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, rank)

	rank, _ = Rank(totals, 1)
	assert.Equal(t, 2, rank, "ties keep input order")
	rank, _ = Rank(totals, 3)
	assert.Equal(t, 3, rank)

	_, ok = Rank(totals, 99)
	assert.False(t, ok)

	assert.Equal(t, 1, totals[0].UserID, "input is not reordered")
}
