package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"codetech/internal/api"
	"codetech/internal/config"
	"codetech/internal/middleware"
	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/services"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the per-user progress, stats, goals and challenges endpoints
type UserHandler struct {
	progressService  services.ProgressServiceInterface
	statsService     services.StatsServiceInterface
	goalService      services.GoalServiceInterface
	challengeService services.ChallengeServiceInterface
	logger           *observability.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(
	progressService services.ProgressServiceInterface,
	statsService services.StatsServiceInterface,
	goalService services.GoalServiceInterface,
	challengeService services.ChallengeServiceInterface,
	logger *observability.Logger,
) *UserHandler {
	return &UserHandler{
		progressService:  progressService,
		statsService:     statsService,
		goalService:      goalService,
		challengeService: challengeService,
		logger:           logger,
	}
}

// requireUser returns the authenticated user or renders 401
func requireUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

// GetUserSubjects returns every subject with the caller's progress and level state
func (h *UserHandler) GetUserSubjects(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_user_subjects", observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	subjects, err := h.progressService.GetUserSubjects(ctx, user.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	out := make([]api.Subject, 0, len(subjects))
	for _, sp := range subjects {
		out = append(out, convertSubjectProgressToAPI(sp))
	}
	c.JSON(http.StatusOK, out)
}

// CompleteLevel marks every quiz of a level completed for the caller
func (h *UserHandler) CompleteLevel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	subjectID, ok := intParam(c, "subjectId", contextutils.ErrProgressNotFound)
	if !ok {
		return
	}
	levelID, ok := intParam(c, "levelId", contextutils.ErrProgressNotFound)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "complete_level",
		observability.AttributeUserID(user.ID), observability.AttributeSubjectID(subjectID), observability.AttributeLevelID(levelID))
	defer observability.FinishSpan(span, nil)

	if err := h.progressService.CompleteLevel(ctx, user.ID, subjectID, levelID); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CompleteLevelResponse{Completed: true})
}

// GetActivity returns the caller's most recent activities
func (h *UserHandler) GetActivity(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_user_activity", observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	activities, err := h.progressService.RecentActivity(ctx, user.ID, config.RecentActivityLimit)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertActivitiesToAPI(activities))
}

// GetStats returns the caller's streak, points, average and rank
func (h *UserHandler) GetStats(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_user_stats", observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	stats, err := h.statsService.GetUserStats(ctx, user.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertStatsToAPI(stats))
}

// GetDashboard builds the dashboard cards. Anonymous callers get zeroed cards.
func (h *UserHandler) GetDashboard(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_dashboard")
	defer observability.FinishSpan(span, nil)

	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, api.DashboardResponse{
			Stats:          dashboardStats(&services.UserStats{}),
			RecentActivity: []api.ActivityItem{},
		})
		return
	}
	span.SetAttributes(observability.AttributeUserID(user.ID))

	stats, err := h.statsService.GetUserStats(ctx, user.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	activities, err := h.progressService.RecentActivity(ctx, user.ID, config.RecentActivityLimit)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DashboardResponse{
		Stats:          dashboardStats(stats),
		RecentActivity: convertActivitiesToAPI(activities),
	})
}

func dashboardStats(s *services.UserStats) []api.DashboardStat {
	rank := "-"
	if s.Ranked {
		rank = fmt.Sprintf("#%d", s.Rank)
	}
	days := "days"
	if s.Streak == 1 {
		days = "day"
	}
	return []api.DashboardStat{
		{Label: "Total Quizzes Completed", Value: fmt.Sprintf("%d", s.TotalCompleted), Icon: "BookOpen", Color: "text-blue-600"},
		{Label: "Average Score", Value: fmt.Sprintf("%d%%", s.AvgScore), Icon: "Target", Color: "text-green-600"},
		{Label: "Current Streak", Value: fmt.Sprintf("%d %s", s.Streak, days), Icon: "TrendingUp", Color: "text-purple-600"},
		{Label: "Rank Position", Value: rank, Icon: "Trophy", Color: "text-yellow-600"},
	}
}

// CreateGoal stores a goal for the caller
func (h *UserHandler) CreateGoal(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req api.GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_goal", observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	goal, err := h.goalService.CreateGoal(ctx, &models.UserGoal{
		UserID:      user.ID,
		Type:        req.Type,
		Target:      req.Target,
		Deadline:    req.Deadline,
		Description: req.Description,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.GoalResponse{Message: "Goal saved", Goal: convertGoalToAPI(*goal)})
}

// ListGoals returns the caller's goals, newest first
func (h *UserHandler) ListGoals(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_goals", observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	goals, err := h.goalService.ListGoals(ctx, user.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	out := make([]api.Goal, 0, len(goals))
	for _, g := range goals {
		out = append(out, convertGoalToAPI(g))
	}
	c.JSON(http.StatusOK, out)
}

// SendChallenge records a challenge and notifies the recipient
func (h *UserHandler) SendChallenge(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req api.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "send_challenge", observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	challenge, err := h.challengeService.SendChallenge(ctx, user, strings.TrimSpace(string(req.FriendEmail)), req.Message, req.QuizType)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ChallengeResponse{Message: "Challenge sent!", Challenge: convertChallengeToAPI(*challenge)})
}

// ListChallenges returns challenges addressed to the caller's e-mail
func (h *UserHandler) ListChallenges(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_challenges", observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	challenges, err := h.challengeService.ListChallengesFor(ctx, user.Email)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	out := make([]api.Challenge, 0, len(challenges))
	for _, ch := range challenges {
		out = append(out, convertChallengeToAPI(ch))
	}
	c.JSON(http.StatusOK, out)
}
