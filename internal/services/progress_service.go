package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codetech/internal/config"
	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/progress"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// SubjectProgress is a subject together with the caller's derived state for it
type SubjectProgress struct {
	Subject models.Subject
	State   progress.SubjectState
}

// LevelState returns the derived state of a level, if present
func (sp SubjectProgress) LevelState(levelID int) (progress.LevelState, bool) {
	for _, ls := range sp.State.Levels {
		if ls.LevelID == levelID {
			return ls, true
		}
	}
	return progress.LevelState{}, false
}

// ActivityView is an activity joined with its subject and level names
type ActivityView struct {
	SubjectID   int
	LevelID     int
	SubjectName string
	LevelName   string
	Action      string
	Score       sql.NullInt32
	Timestamp   time.Time
}

// ProgressServiceInterface defines quiz submission and per-user progress operations
type ProgressServiceInterface interface {
	SubmitQuiz(ctx context.Context, userID int, quiz *models.Quiz, answers map[string]any) (progress.ScoreResult, error)
	CompleteLevel(ctx context.Context, userID, subjectID, levelID int) error
	GetUserSubjects(ctx context.Context, userID int) ([]SubjectProgress, error)
	RecentActivity(ctx context.Context, userID, limit int) ([]ActivityView, error)
	HasCompletedQuiz(ctx context.Context, userID, quizID int) (bool, error)
	TotalStudents(ctx context.Context) (int, error)
}

// ProgressService grades submissions and keeps the progress tables consistent
type ProgressService struct {
	db          *sql.DB
	content     ContentServiceInterface
	leaderboard LeaderboardServiceInterface
	logger      *observability.Logger
	now         func() time.Time
}

// NewProgressServiceWithLogger creates a ProgressService. leaderboard may be nil.
func NewProgressServiceWithLogger(db *sql.DB, content ContentServiceInterface, leaderboard LeaderboardServiceInterface, logger *observability.Logger) *ProgressService {
	return &ProgressService{
		db:          db,
		content:     content,
		leaderboard: leaderboard,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// scoredQuestions extracts the answer key of a quiz
func scoredQuestions(quiz *models.Quiz) []progress.ScoredQuestion {
	out := make([]progress.ScoredQuestion, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		sq := progress.ScoredQuestion{ID: quiz.Questions[i].ID}
		if c, ok := quiz.Questions[i].CorrectChoice(); ok {
			sq.Correct = c.Text
			sq.HasCorrect = true
		}
		out = append(out, sq)
	}
	return out
}

// SubmitQuiz grades answers against quiz. A userID of 0 is an anonymous
// submission and writes nothing. Otherwise the completion, the level and
// subject progress and the activity row are written in one transaction.
func (s *ProgressService) SubmitQuiz(ctx context.Context, userID int, quiz *models.Quiz, answers map[string]any) (result0 progress.ScoreResult, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "submit_quiz",
		observability.AttributeUserID(userID), observability.AttributeQuizID(quiz.ID))
	defer observability.FinishSpan(span, &err)

	result := progress.ScoreAnswers(scoredQuestions(quiz), answers)
	span.SetAttributes(
		attribute.Int("quiz.score", result.Score),
		attribute.Int("quiz.correct", result.Correct),
		attribute.Int("quiz.total", result.Total),
	)
	observability.Metrics().RecordSubmission(ctx, userID > 0, result.Score)

	if userID <= 0 {
		return result, nil
	}

	now := s.now()
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := markQuizzesCompleted(ctx, tx, userID, []int{quiz.ID}, now); err != nil {
			return err
		}
		if _, err := syncSubjectProgress(ctx, tx, userID, quiz.SubjectID); err != nil {
			return err
		}
		action := fmt.Sprintf("%s: %s", config.CompletedQuizActionPrefix, quiz.Title)
		score := sql.NullInt32{Int32: int32(result.Score), Valid: true}
		return upsertActivity(ctx, tx, userID, quiz.SubjectID, quiz.LevelID, action, score, now)
	})
	if err != nil {
		return progress.ScoreResult{}, err
	}

	s.invalidateLeaderboard(ctx)
	s.logger.Info(ctx, "Quiz submitted", map[string]interface{}{
		"user_id": userID,
		"quiz_id": quiz.ID,
		"score":   result.Score,
	})
	return result, nil
}

// CompleteLevel marks every quiz of a level completed. The level must belong
// to the subject and the user must have a quiz progress row for it.
func (s *ProgressService) CompleteLevel(ctx context.Context, userID, subjectID, levelID int) (err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "complete_level",
		observability.AttributeUserID(userID), observability.AttributeSubjectID(subjectID), observability.AttributeLevelID(levelID))
	defer observability.FinishSpan(span, &err)

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM user_quiz_progress qp
				JOIN levels l ON l.id = qp.level_id AND l.subject_id = qp.subject_id
				WHERE qp.user_id = $1 AND qp.subject_id = $2 AND qp.level_id = $3
			)`, userID, subjectID, levelID).Scan(&exists)
		if err != nil {
			return contextutils.WrapError(err, "failed to load quiz progress")
		}
		if !exists {
			return contextutils.ErrProgressNotFound
		}

		levels, err := loadSubjectLevels(ctx, tx, subjectID)
		if err != nil {
			return err
		}
		for _, level := range levels {
			if level.LevelID == levelID {
				if err := markQuizzesCompleted(ctx, tx, userID, level.QuizIDs, s.now()); err != nil {
					return err
				}
			}
		}

		_, err = syncSubjectProgress(ctx, tx, userID, subjectID)
		return err
	})
	if err != nil {
		return err
	}

	s.invalidateLeaderboard(ctx)
	return nil
}

// GetUserSubjects returns every subject with the user's derived progress.
// The derived level state is written back to user_quiz_progress.
func (s *ProgressService) GetUserSubjects(ctx context.Context, userID int) (result0 []SubjectProgress, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "get_user_subjects", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	subjects, err := s.content.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SubjectProgress, 0, len(subjects))
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, subject := range subjects {
			state, err := syncSubjectProgress(ctx, tx, userID, subject.ID)
			if err != nil {
				return err
			}
			out = append(out, SubjectProgress{Subject: subject, State: state})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecentActivity returns the user's newest activities with subject and level names
func (s *ProgressService) RecentActivity(ctx context.Context, userID, limit int) (result0 []ActivityView, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "recent_activity",
		observability.AttributeUserID(userID), observability.AttributeLimit(limit))
	defer observability.FinishSpan(span, &err)

	return recentActivity(ctx, s.db, userID, limit)
}

func recentActivity(ctx context.Context, q queryer, userID, limit int) ([]ActivityView, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.subject_id, a.level_id, COALESCE(s.name, ''), COALESCE(l.name, ''), a.action, a.score, a.timestamp
		FROM user_activity a
		LEFT JOIN subjects s ON s.id = a.subject_id
		LEFT JOIN levels l ON l.id = a.level_id AND l.subject_id = a.subject_id
		WHERE a.user_id = $1
		ORDER BY a.timestamp DESC, a.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query activity")
	}
	defer rows.Close()

	var out []ActivityView
	for rows.Next() {
		var a ActivityView
		if err := rows.Scan(&a.SubjectID, &a.LevelID, &a.SubjectName, &a.LevelName, &a.Action, &a.Score, &a.Timestamp); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan activity")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate activity")
	}
	return out, nil
}

// HasCompletedQuiz reports whether the user has a completion row for the quiz
func (s *ProgressService) HasCompletedQuiz(ctx context.Context, userID, quizID int) (result0 bool, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "has_completed_quiz",
		observability.AttributeUserID(userID), observability.AttributeQuizID(quizID))
	defer observability.FinishSpan(span, &err)

	var completed bool
	err = s.db.QueryRowContext(ctx, `
		SELECT completed FROM user_quiz_completion WHERE user_id = $1 AND quiz_id = $2`, userID, quizID).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, contextutils.WrapError(err, "failed to load quiz completion")
	}
	return completed, nil
}

// TotalStudents counts users with at least one activity
func (s *ProgressService) TotalStudents(ctx context.Context) (result0 int, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "total_students")
	defer observability.FinishSpan(span, &err)

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users u
		WHERE EXISTS (SELECT 1 FROM user_activity a WHERE a.user_id = u.id)`).Scan(&total); err != nil {
		return 0, contextutils.WrapError(err, "failed to count students")
	}
	return total, nil
}

func (s *ProgressService) invalidateLeaderboard(ctx context.Context) {
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
}
