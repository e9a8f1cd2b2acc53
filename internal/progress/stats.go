package progress

import (
	"slices"
	"time"

	"github.com/jinzhu/now"
)

// Streak counts consecutive UTC calendar days with activity, walking back from
// today. It stops at the first day without activity and never exceeds lookback.
func Streak(activity []time.Time, today time.Time, lookback int) int {
	days := make(map[time.Time]bool, len(activity))
	for _, ts := range activity {
		days[now.With(ts.UTC()).BeginningOfDay()] = true
	}

	day := now.With(today.UTC()).BeginningOfDay()
	streak := 0
	for streak < lookback && days[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// AverageScore returns the truncated integer mean, or 0 for no scores
func AverageScore(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return sum / len(scores)
}

// MeanScore returns the float mean, or 0 for no scores
func MeanScore(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// Total is a per-user aggregate used for ranking
type Total struct {
	UserID int
	Value  int
}

// SortByValue sorts totals by value descending, keeping input order for ties
func SortByValue(totals []Total) {
	slices.SortStableFunc(totals, func(a, b Total) int {
		return b.Value - a.Value
	})
}

// Rank returns the 1-based position of userID after a stable descending sort.
// ok is false when the user is not present.
func Rank(totals []Total, userID int) (rank int, ok bool) {
	sorted := slices.Clone(totals)
	SortByValue(sorted)
	for i, t := range sorted {
		if t.UserID == userID {
			return i + 1, true
		}
	}
	return 0, false
}
