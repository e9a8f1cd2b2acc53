package services

import (
	"context"
	"database/sql"

	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"
)

// GoalServiceInterface defines learning goal operations
type GoalServiceInterface interface {
	CreateGoal(ctx context.Context, goal *models.UserGoal) (*models.UserGoal, error)
	ListGoals(ctx context.Context, userID int) ([]models.UserGoal, error)
}

// GoalService stores user goals
type GoalService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewGoalServiceWithLogger creates a GoalService
func NewGoalServiceWithLogger(db *sql.DB, logger *observability.Logger) *GoalService {
	return &GoalService{db: db, logger: logger}
}

// CreateGoal inserts a goal and returns it with its id and creation time
func (s *GoalService) CreateGoal(ctx context.Context, goal *models.UserGoal) (result0 *models.UserGoal, err error) {
	ctx, span := observability.TraceGoalFunction(ctx, "create_goal", observability.AttributeUserID(goal.UserID))
	defer observability.FinishSpan(span, &err)

	if goal.Type == "" {
		return nil, contextutils.WithMessage(contextutils.ErrMissingRequired, "Goal type is required")
	}

	created := *goal
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user_goals (user_id, type, target, deadline, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		goal.UserID, goal.Type, goal.Target, goal.Deadline, goal.Description,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to save goal")
	}

	s.logger.Info(ctx, "Goal saved", map[string]interface{}{"user_id": goal.UserID, "goal_id": created.ID})
	return &created, nil
}

// ListGoals returns the user's goals, newest first
func (s *GoalService) ListGoals(ctx context.Context, userID int) (result0 []models.UserGoal, err error) {
	ctx, span := observability.TraceGoalFunction(ctx, "list_goals", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, target, deadline, description, created_at
		FROM user_goals
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list goals")
	}
	defer rows.Close()

	goals := []models.UserGoal{}
	for rows.Next() {
		var g models.UserGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Type, &g.Target, &g.Deadline, &g.Description, &g.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan goal")
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate goals")
	}
	return goals, nil
}
