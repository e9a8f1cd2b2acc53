package services

import (
	"context"
	"database/sql"
	"time"

	"codetech/internal/config"
	"codetech/internal/observability"
	"codetech/internal/progress"
	contextutils "codetech/internal/utils"
)

// UserStats is the aggregate shown on the profile and dashboard.
// Ranked is false for users without any progress rows.
type UserStats struct {
	TotalCompleted int
	AvgScore       int
	Streak         int
	Rank           int
	Ranked         bool
	TotalPoints    int
}

// StatsServiceInterface defines per-user statistics operations
type StatsServiceInterface interface {
	GetUserStats(ctx context.Context, userID int) (*UserStats, error)
}

// StatsService computes streaks, points, averages and ranks
type StatsService struct {
	db     *sql.DB
	logger *observability.Logger
	now    func() time.Time
}

// NewStatsServiceWithLogger creates a StatsService
func NewStatsServiceWithLogger(db *sql.DB, logger *observability.Logger) *StatsService {
	return &StatsService{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetUserStats computes the user's statistics
func (s *StatsService) GetUserStats(ctx context.Context, userID int) (result0 *UserStats, err error) {
	ctx, span := observability.TraceStatsFunction(ctx, "get_user_stats", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	stats := &UserStats{}

	stats.TotalCompleted, stats.TotalPoints, err = s.completedLevelPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	scores, err := s.completedQuizScores(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.AvgScore = progress.AverageScore(scores)

	timestamps, err := s.activityTimestamps(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.Streak = progress.Streak(timestamps, s.now(), config.StreakLookbackDays)

	totals, err := s.completedTotals(ctx)
	if err != nil {
		return nil, err
	}
	stats.Rank, stats.Ranked = progress.Rank(totals, userID)

	return stats, nil
}

// completedLevelPoints counts completed levels and their points. Each completed
// level earns a flat bonus plus the score of the activity recorded for it.
func (s *StatsService) completedLevelPoints(ctx context.Context, userID int) (completed, points int, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.score
		FROM user_quiz_progress qp
		LEFT JOIN user_activity a
			ON a.user_id = qp.user_id AND a.subject_id = qp.subject_id AND a.level_id = qp.level_id
		WHERE qp.user_id = $1 AND qp.completed = 1`, userID)
	if err != nil {
		return 0, 0, contextutils.WrapError(err, "failed to query completed levels")
	}
	defer rows.Close()

	for rows.Next() {
		var score sql.NullInt32
		if err := rows.Scan(&score); err != nil {
			return 0, 0, contextutils.WrapError(err, "failed to scan completed level")
		}
		completed++
		points += config.PointsPerCompletedLevel
		if score.Valid {
			points += int(score.Int32)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, contextutils.WrapError(err, "failed to iterate completed levels")
	}
	return completed, points, nil
}

func (s *StatsService) completedQuizScores(ctx context.Context, userID int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT score FROM user_activity
		WHERE user_id = $1 AND score IS NOT NULL AND action LIKE $2`,
		userID, config.CompletedQuizActionPrefix+"%")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query activity scores")
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan activity score")
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate activity scores")
	}
	return scores, nil
}

func (s *StatsService) activityTimestamps(ctx context.Context, userID int) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp FROM user_activity WHERE user_id = $1`, userID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query activity timestamps")
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan activity timestamp")
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate activity timestamps")
	}
	return out, nil
}

// completedTotals sums completed quizzes per user, admins included, in user id order
func (s *StatsService) completedTotals(ctx context.Context) ([]progress.Total, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT up.user_id, SUM(up.completed_quizzes)
		FROM user_progress up
		GROUP BY up.user_id
		ORDER BY up.user_id`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query progress totals")
	}
	defer rows.Close()

	var totals []progress.Total
	for rows.Next() {
		var t progress.Total
		if err := rows.Scan(&t.UserID, &t.Value); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan progress total")
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate progress totals")
	}
	return totals, nil
}
