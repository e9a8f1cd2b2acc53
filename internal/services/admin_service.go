package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"codetech/internal/config"
	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/progress"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// AdminUserSummary is a user with aggregate progress figures
type AdminUserSummary struct {
	User           models.User
	TotalCompleted int
	AvgScore       float64
	LastActivity   *time.Time
}

// AdminSubjectProgress counts completed levels of one subject
type AdminSubjectProgress struct {
	SubjectID  int
	Name       string
	Completed  int
	Total      int
	Percentage int
}

// AdminUserProgress is the detailed progress view of one user
type AdminUserProgress struct {
	User             models.User
	Subjects         []AdminSubjectProgress
	RecentActivities []models.UserActivity
}

// RepairFailure records a user whose repair did not complete
type RepairFailure struct {
	UserID int
	Err    error
}

// RepairReport summarises a repair run
type RepairReport struct {
	Users  int
	Errors []RepairFailure
}

// AdminServiceInterface defines administrative operations
type AdminServiceInterface interface {
	ListUsersWithStats(ctx context.Context) ([]AdminUserSummary, error)
	GetUserProgress(ctx context.Context, userID int) (*AdminUserProgress, error)
	DeleteUser(ctx context.Context, actorID, userID int) error
	CreateAdmin(ctx context.Context, email, password, name string) (*models.User, error)
	RepairUserStats(ctx context.Context) (*RepairReport, error)
	ResetUserProgress(ctx context.Context, userID int) error
	CleanupNullActivity(ctx context.Context) (int64, error)
	InitializeQuizProgress(ctx context.Context, userID int) error
}

// AdminService implements user management and progress maintenance
type AdminService struct {
	db          *sql.DB
	cfg         *config.Config
	users       UserServiceInterface
	cleanup     CleanupServiceInterface
	leaderboard LeaderboardServiceInterface
	logger      *observability.Logger
}

// NewAdminServiceWithLogger creates an AdminService. leaderboard may be nil.
func NewAdminServiceWithLogger(
	db *sql.DB,
	cfg *config.Config,
	users UserServiceInterface,
	cleanup CleanupServiceInterface,
	leaderboard LeaderboardServiceInterface,
	logger *observability.Logger,
) *AdminService {
	return &AdminService{
		db:          db,
		cfg:         cfg,
		users:       users,
		cleanup:     cleanup,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// ListUsersWithStats returns every user with completed level count, mean score and last activity
func (s *AdminService) ListUsersWithStats(ctx context.Context) (result0 []AdminUserSummary, err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "list_users_with_stats")
	defer observability.FinishSpan(span, &err)

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := s.countCompletedLevels(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := s.allScores(ctx)
	if err != nil {
		return nil, err
	}
	last, err := s.lastActivity(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AdminUserSummary, 0, len(users))
	for _, u := range users {
		summary := AdminUserSummary{
			User:           u,
			TotalCompleted: completed[u.ID],
			AvgScore:       progress.MeanScore(scores[u.ID]),
		}
		if ts, ok := last[u.ID]; ok {
			summary.LastActivity = &ts
		}
		out = append(out, summary)
	}

	span.SetAttributes(attribute.Int("users.count", len(out)))
	return out, nil
}

func (s *AdminService) countCompletedLevels(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*)
		FROM user_quiz_progress
		WHERE completed = 1
		GROUP BY user_id`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to count completed levels")
	}
	defer rows.Close()

	out := map[int]int{}
	for rows.Next() {
		var userID, n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan completed levels")
		}
		out[userID] = n
	}
	return out, rows.Err()
}

// allScores groups every non-null activity score by user
func (s *AdminService) allScores(ctx context.Context) (map[int][]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, score FROM user_activity WHERE score IS NOT NULL ORDER BY user_id, id`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query scores")
	}
	defer rows.Close()

	out := map[int][]int{}
	for rows.Next() {
		var userID, score int
		if err := rows.Scan(&userID, &score); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan score")
		}
		out[userID] = append(out[userID], score)
	}
	return out, rows.Err()
}

func (s *AdminService) lastActivity(ctx context.Context) (map[int]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, MAX(timestamp) FROM user_activity GROUP BY user_id`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query last activity")
	}
	defer rows.Close()

	out := map[int]time.Time{}
	for rows.Next() {
		var userID int
		var ts time.Time
		if err := rows.Scan(&userID, &ts); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan last activity")
		}
		out[userID] = ts
	}
	return out, rows.Err()
}

// GetUserProgress returns per-subject level counts and the ten newest activities of a user
func (s *AdminService) GetUserProgress(ctx context.Context, userID int) (result0 *AdminUserProgress, err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "get_user_progress", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.ErrUserNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT qp.subject_id, s.name, COUNT(*) FILTER (WHERE qp.completed = 1), COUNT(*)
		FROM user_quiz_progress qp
		LEFT JOIN subjects s ON s.id = qp.subject_id
		WHERE qp.user_id = $1
		GROUP BY qp.subject_id, s.name
		ORDER BY qp.subject_id`, userID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query subject progress")
	}
	defer rows.Close()

	result := &AdminUserProgress{User: *user, Subjects: []AdminSubjectProgress{}}
	for rows.Next() {
		var sp AdminSubjectProgress
		var name sql.NullString
		if err := rows.Scan(&sp.SubjectID, &name, &sp.Completed, &sp.Total); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan subject progress")
		}
		sp.Name = name.String
		if !name.Valid {
			sp.Name = fmt.Sprintf("Subject %d", sp.SubjectID)
		}
		sp.Percentage = progress.Percentage(sp.Completed, sp.Total)
		result.Subjects = append(result.Subjects, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate subject progress")
	}

	activities, err := recentActivity(ctx, s.db, userID, config.RecentActivityLimit)
	if err != nil {
		return nil, err
	}
	result.RecentActivities = make([]models.UserActivity, 0, len(activities))
	for _, a := range activities {
		result.RecentActivities = append(result.RecentActivities, models.UserActivity{
			UserID:    userID,
			SubjectID: a.SubjectID,
			LevelID:   a.LevelID,
			Action:    a.Action,
			Score:     a.Score,
			Timestamp: a.Timestamp,
		})
	}

	return result, nil
}

// DeleteUser removes a user and all of their rows. Admins cannot delete
// themselves, the seed admin or the last remaining admin.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID int) (err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "delete_user",
		observability.AttributeUserID(userID), attribute.Int("admin.actor_id", actorID))
	defer observability.FinishSpan(span, &err)

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return contextutils.ErrUserNotFound
	}
	if user.ID == actorID {
		return contextutils.WithMessage(contextutils.ErrInvalidInput, "Cannot delete your own account")
	}
	if s.cfg != nil && s.cfg.IsSeedAdmin(user.Email) {
		return contextutils.NewAppError(contextutils.ErrorCodeProtectedAccount, contextutils.SeverityWarn,
			"Cannot delete the original creator admin account", "")
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if user.IsAdmin() {
			var admins int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleAdmin).Scan(&admins); err != nil {
				return contextutils.WrapError(err, "failed to count admins")
			}
			if admins <= 1 {
				return contextutils.WithMessage(contextutils.ErrInvalidInput, "Cannot delete the last admin user")
			}
		}

		for _, stmt := range []string{
			`DELETE FROM user_progress WHERE user_id = $1`,
			`DELETE FROM user_quiz_progress WHERE user_id = $1`,
			`DELETE FROM user_activity WHERE user_id = $1`,
			`DELETE FROM user_goals WHERE user_id = $1`,
			`DELETE FROM user_challenges WHERE sender_id = $1`,
			`DELETE FROM user_quiz_completion WHERE user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return contextutils.WrapError(err, "failed to delete user data")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateLeaderboard(ctx)
	s.logger.Info(ctx, "User deleted", map[string]interface{}{
		"user_id":  userID,
		"actor_id": actorID,
		"email":    contextutils.MaskEmail(user.Email),
	})
	return nil
}

// CreateAdmin creates a user with the admin role and initialised progress
func (s *AdminService) CreateAdmin(ctx context.Context, email, password, name string) (result0 *models.User, err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "create_admin")
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, contextutils.WithMessage(contextutils.ErrMissingRequired, "Email and password are required")
	}
	email, err = contextutils.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, email, password, name, models.RoleAdmin)
	if errors.Is(err, contextutils.ErrEmailTaken) {
		return nil, contextutils.WithMessage(contextutils.ErrEmailTaken, "User with this email already exists")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RepairUserStats rebuilds the derived progress rows of every user. Each user
// is repaired in its own transaction and failures do not stop the run.
func (s *AdminService) RepairUserStats(ctx context.Context) (result0 *RepairReport, err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "repair_user_stats")
	defer observability.FinishSpan(span, &err)

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{Errors: []RepairFailure{}}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.repairUser(ctx, u.ID); err != nil {
			s.logger.Error(ctx, "Failed to repair user stats", err, map[string]interface{}{"user_id": u.ID})
			report.Errors = append(report.Errors, RepairFailure{UserID: u.ID, Err: err})
			continue
		}
		report.Users++
	}

	s.invalidateLeaderboard(ctx)
	span.SetAttributes(
		attribute.Int("repair.users", report.Users),
		attribute.Int("repair.errors", len(report.Errors)),
	)
	s.logger.Info(ctx, "Repaired user stats", map[string]interface{}{
		"users":  report.Users,
		"errors": len(report.Errors),
	})
	return report, nil
}

// repairUser back-fills quiz completions for activities that have no level
// progress row, creates missing rows and recomputes every subject.
func (s *AdminService) repairUser(ctx context.Context, userID int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_quiz_completion (user_id, quiz_id, completed, completed_at)
			SELECT a.user_id, qz.id, TRUE, a.timestamp
			FROM user_activity a
			JOIN quizzes qz ON qz.level_id = a.level_id AND qz.subject_id = a.subject_id
			WHERE a.user_id = $1
				AND NOT EXISTS (
					SELECT 1 FROM user_quiz_progress qp
					WHERE qp.user_id = a.user_id AND qp.subject_id = a.subject_id AND qp.level_id = a.level_id
				)
				AND (
					a.action = $2::text || qz.title
					OR NOT EXISTS (
						SELECT 1 FROM quizzes q2 WHERE q2.level_id = a.level_id AND a.action = $2::text || q2.title
					)
				)
			ON CONFLICT (user_id, quiz_id) DO NOTHING`,
			userID, config.CompletedQuizActionPrefix+": "); err != nil {
			return contextutils.WrapError(err, "failed to back-fill quiz completions")
		}

		if err := initializeUserProgress(ctx, tx, userID); err != nil {
			return err
		}

		ids, err := subjectIDs(ctx, tx)
		if err != nil {
			return err
		}
		for _, subjectID := range ids {
			if _, err := syncSubjectProgress(ctx, tx, userID, subjectID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetUserProgress deletes a user's progress, activity and goals and re-initialises empty progress
func (s *AdminService) ResetUserProgress(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "reset_user_progress", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return contextutils.ErrUserNotFound
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM user_progress WHERE user_id = $1`,
			`DELETE FROM user_quiz_progress WHERE user_id = $1`,
			`DELETE FROM user_quiz_completion WHERE user_id = $1`,
			`DELETE FROM user_activity WHERE user_id = $1`,
			`DELETE FROM user_goals WHERE user_id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return contextutils.WrapError(err, "failed to reset user progress")
			}
		}
		return initializeUserProgress(ctx, tx, userID)
	})
	if err != nil {
		return err
	}

	s.invalidateLeaderboard(ctx)
	s.logger.Info(ctx, "User progress reset", map[string]interface{}{"user_id": userID})
	return nil
}

// CleanupNullActivity deletes activities without a score
func (s *AdminService) CleanupNullActivity(ctx context.Context) (int64, error) {
	return s.cleanup.CleanupNullActivity(ctx)
}

// InitializeQuizProgress creates any missing progress rows for the user
func (s *AdminService) InitializeQuizProgress(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "initialize_quiz_progress", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if err := initializeUserProgress(ctx, s.db, userID); err != nil {
		return err
	}
	s.invalidateLeaderboard(ctx)
	return nil
}

func (s *AdminService) invalidateLeaderboard(ctx context.Context) {
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
}
