package services

import (
	"context"
	"database/sql"
	"slices"

	"codetech/internal/config"
	"codetech/internal/observability"
	"codetech/internal/progress"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// LeaderboardEntry is one ranked learner
type LeaderboardEntry struct {
	Rank     int      `json:"rank"`
	UserID   int      `json:"user_id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Score    int      `json:"score"`
	Quizzes  int      `json:"quizzes"`
	AvgScore int      `json:"avgScore"`
	Streak   int      `json:"streak"`
	Subjects []string `json:"subjects"`
}

// LeaderboardServiceInterface defines leaderboard operations
type LeaderboardServiceInterface interface {
	GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	Refresh(ctx context.Context) ([]LeaderboardEntry, error)
	Invalidate(ctx context.Context)
}

// LeaderboardService ranks non-admin users by completed quizzes
type LeaderboardService struct {
	db     *sql.DB
	cache  LeaderboardCache
	logger *observability.Logger
}

// NewLeaderboardServiceWithLogger creates a LeaderboardService. A nil cache disables caching.
func NewLeaderboardServiceWithLogger(db *sql.DB, cache LeaderboardCache, logger *observability.Logger) *LeaderboardService {
	if cache == nil {
		cache = NoopLeaderboardCache{}
	}
	return &LeaderboardService{db: db, cache: cache, logger: logger}
}

// GetLeaderboard serves from the cache when possible. Cache failures fall back to the database.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) (result0 []LeaderboardEntry, err error) {
	ctx, span := observability.TraceLeaderboardFunction(ctx, "get_leaderboard")
	defer observability.FinishSpan(span, &err)

	entries, ok, cacheErr := s.cache.Get(ctx)
	if cacheErr != nil {
		s.logger.Warn(ctx, "Leaderboard cache read failed", map[string]interface{}{"error": cacheErr.Error()})
	}
	if ok {
		span.SetAttributes(attribute.Bool("leaderboard.cache_hit", true))
		return entries, nil
	}

	span.SetAttributes(attribute.Bool("leaderboard.cache_hit", false))
	return s.Refresh(ctx)
}

// Refresh recomputes the leaderboard from the database and stores it in the cache
func (s *LeaderboardService) Refresh(ctx context.Context) (result0 []LeaderboardEntry, err error) {
	ctx, span := observability.TraceLeaderboardFunction(ctx, "refresh")
	defer observability.FinishSpan(span, &err)

	entries, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, entries); err != nil {
		s.logger.Warn(ctx, "Leaderboard cache write failed", map[string]interface{}{"error": err.Error()})
	}

	span.SetAttributes(attribute.Int("leaderboard.entries", len(entries)))
	return entries, nil
}

// Invalidate drops the cached leaderboard. Failures are logged only.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn(ctx, "Leaderboard cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *LeaderboardService) compute(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, up.completed_quizzes, COALESCE(s.name, '')
		FROM users u
		JOIN user_progress up ON up.user_id = u.id
		LEFT JOIN subjects s ON s.id = up.subject_id
		WHERE u.role <> 'admin'
		ORDER BY u.id, up.subject_id`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query leaderboard")
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var userID, completed int
		var email, subject string
		if err := rows.Scan(&userID, &email, &completed, &subject); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan leaderboard row")
		}
		if n := len(entries); n == 0 || entries[n-1].UserID != userID {
			entries = append(entries, LeaderboardEntry{
				UserID:   userID,
				Name:     contextutils.DisplayNameFromEmail(email),
				Email:    email,
				Subjects: []string{},
			})
		}
		last := &entries[len(entries)-1]
		last.Score += completed
		last.Quizzes += completed
		last.Subjects = append(last.Subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate leaderboard rows")
	}

	scores, err := completedQuizScores(ctx, s.db)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].AvgScore = progress.AverageScore(scores[entries[i].UserID])
	}

	rankEntries(entries)
	return entries, nil
}

// rankEntries sorts by score descending, keeping ties in input order, and assigns 1-based ranks
func rankEntries(entries []LeaderboardEntry) {
	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		return b.Score - a.Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// completedQuizScores returns the non-null scores of quiz completions, grouped by user
func completedQuizScores(ctx context.Context, q queryer) (map[int][]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, score
		FROM user_activity
		WHERE score IS NOT NULL AND action LIKE $1
		ORDER BY user_id, id`, config.CompletedQuizActionPrefix+"%")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query activity scores")
	}
	defer rows.Close()

	scores := map[int][]int{}
	for rows.Next() {
		var userID, score int
		if err := rows.Scan(&userID, &score); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan activity score")
		}
		scores[userID] = append(scores[userID], score)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate activity scores")
	}
	return scores, nil
}
