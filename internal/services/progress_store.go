package services

import (
	"context"
	"database/sql"
	"time"

	"codetech/internal/progress"
	contextutils "codetech/internal/utils"

	"github.com/lib/pq"
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withTx runs fn in a transaction, rolling back on error
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return transactionError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return transactionError("failed to commit transaction", err)
	}
	return nil
}

// transactionError marks a begin or commit failure as a retryable transaction error
func transactionError(message string, cause error) error {
	return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseTransaction,
		contextutils.ErrDatabaseTransaction.Severity, message, cause.Error(), cause)
}

// isDuplicateKeyError checks if the error is a duplicate key constraint violation
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	// PostgreSQL error code 23505 is for unique constraint violations
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return true
	}
	return false
}

// initializeUserProgress creates the user_progress row of every subject and
// the user_quiz_progress row of every level. Existing rows are left alone.
func initializeUserProgress(ctx context.Context, q queryer, userID int) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, subject_id, progress, completed_quizzes, total_quizzes)
		SELECT $1, s.id, 0, 0, (SELECT COUNT(*) FROM quizzes qz WHERE qz.subject_id = s.id)
		FROM subjects s
		ON CONFLICT (user_id, subject_id) DO NOTHING`, userID); err != nil {
		return contextutils.WrapError(err, "failed to initialize user progress")
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_quiz_progress (user_id, subject_id, level_id, completed)
		SELECT $1, l.subject_id, l.id, 0
		FROM levels l
		ON CONFLICT (user_id, subject_id, level_id) DO NOTHING`, userID); err != nil {
		return contextutils.WrapError(err, "failed to initialize quiz progress")
	}
	return nil
}

// loadSubjectLevels returns the subject's levels in position order with their quiz ids
func loadSubjectLevels(ctx context.Context, q queryer, subjectID int) ([]progress.LevelInput, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.id, qz.id
		FROM levels l
		LEFT JOIN quizzes qz ON qz.level_id = l.id
		WHERE l.subject_id = $1
		ORDER BY l.position, l.id, qz.position, qz.id`, subjectID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load subject levels")
	}
	defer rows.Close()

	var levels []progress.LevelInput
	for rows.Next() {
		var levelID int
		var quizID sql.NullInt64
		if err := rows.Scan(&levelID, &quizID); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan subject level")
		}
		if n := len(levels); n == 0 || levels[n-1].LevelID != levelID {
			levels = append(levels, progress.LevelInput{LevelID: levelID})
		}
		if quizID.Valid {
			last := &levels[len(levels)-1]
			last.QuizIDs = append(last.QuizIDs, int(quizID.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate subject levels")
	}
	return levels, nil
}

// loadCompletedQuizIDs returns the set of quizzes the user has completed in a subject
func loadCompletedQuizIDs(ctx context.Context, q queryer, userID, subjectID int) (map[int]bool, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.quiz_id
		FROM user_quiz_completion c
		JOIN quizzes qz ON qz.id = c.quiz_id
		WHERE c.user_id = $1 AND qz.subject_id = $2 AND c.completed`, userID, subjectID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load quiz completions")
	}
	defer rows.Close()

	completed := map[int]bool{}
	for rows.Next() {
		var quizID int
		if err := rows.Scan(&quizID); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan quiz completion")
		}
		completed[quizID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate quiz completions")
	}
	return completed, nil
}

// syncSubjectProgress recomputes every level's completion flag and the
// subject's user_progress row from the user's quiz completions.
func syncSubjectProgress(ctx context.Context, q queryer, userID, subjectID int) (progress.SubjectState, error) {
	levels, err := loadSubjectLevels(ctx, q, subjectID)
	if err != nil {
		return progress.SubjectState{}, err
	}
	completed, err := loadCompletedQuizIDs(ctx, q, userID, subjectID)
	if err != nil {
		return progress.SubjectState{}, err
	}

	state := progress.Compute(levels, completed)

	for _, level := range state.Levels {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO user_quiz_progress (user_id, subject_id, level_id, completed)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, subject_id, level_id) DO UPDATE SET completed = EXCLUDED.completed`,
			userID, subjectID, level.LevelID, boolToSmallint(level.Completed)); err != nil {
			return progress.SubjectState{}, contextutils.WrapError(err, "failed to update level progress")
		}
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, subject_id, progress, completed_quizzes, total_quizzes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, subject_id) DO UPDATE SET
			progress = EXCLUDED.progress,
			completed_quizzes = EXCLUDED.completed_quizzes,
			total_quizzes = EXCLUDED.total_quizzes`,
		userID, subjectID, state.Progress, state.CompletedQuizzes, state.TotalQuizzes); err != nil {
		return progress.SubjectState{}, contextutils.WrapError(err, "failed to update subject progress")
	}

	return state, nil
}

// markQuizzesCompleted upserts a completion row for each quiz
func markQuizzesCompleted(ctx context.Context, q queryer, userID int, quizIDs []int, at time.Time) error {
	for _, quizID := range quizIDs {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO user_quiz_completion (user_id, quiz_id, completed, completed_at)
			VALUES ($1, $2, TRUE, $3)
			ON CONFLICT (user_id, quiz_id) DO UPDATE SET completed = TRUE, completed_at = EXCLUDED.completed_at`,
			userID, quizID, at); err != nil {
			return contextutils.WrapError(err, "failed to record quiz completion")
		}
	}
	return nil
}

// upsertActivity keeps one activity row per (user, subject, level); the latest write wins
func upsertActivity(ctx context.Context, q queryer, userID, subjectID, levelID int, action string, score sql.NullInt32, at time.Time) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, subject_id, level_id, action, score, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, subject_id, level_id) DO UPDATE SET
			action = EXCLUDED.action,
			score = EXCLUDED.score,
			timestamp = EXCLUDED.timestamp`,
		userID, subjectID, levelID, action, score, at); err != nil {
		return contextutils.WrapError(err, "failed to record activity")
	}
	return nil
}

// subjectIDs lists every subject id
func subjectIDs(ctx context.Context, q queryer) ([]int, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM subjects ORDER BY position, id`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list subjects")
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan subject id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func boolToSmallint(b bool) int {
	if b {
		return 1
	}
	return 0
}
