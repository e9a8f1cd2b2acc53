package handlers

import (
	"context"
	"time"

	"codetech/internal/models"
	"codetech/internal/progress"
	"codetech/internal/services"

	"github.com/stretchr/testify/mock"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) CreateUser(ctx context.Context, email, password, name, role string) (*models.User, error) {
	args := m.Called(ctx, email, password, name, role)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).([]models.User)
	return u, args.Error(1)
}

func (m *mockUserService) EnsureAdminUserExists(ctx context.Context, email, password, name string) error {
	return m.Called(ctx, email, password, name).Error(0)
}

type mockContentService struct{ mock.Mock }

func (m *mockContentService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]models.Subject)
	return s, args.Error(1)
}

func (m *mockContentService) GetSubject(ctx context.Context, subjectID int) (*models.Subject, error) {
	args := m.Called(ctx, subjectID)
	s, _ := args.Get(0).(*models.Subject)
	return s, args.Error(1)
}

func (m *mockContentService) GetLevel(ctx context.Context, subjectID, levelID int) (*models.Level, error) {
	args := m.Called(ctx, subjectID, levelID)
	l, _ := args.Get(0).(*models.Level)
	return l, args.Error(1)
}

func (m *mockContentService) GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error) {
	args := m.Called(ctx, quizID)
	q, _ := args.Get(0).(*models.Quiz)
	return q, args.Error(1)
}

func (m *mockContentService) ResolveLevelQuiz(ctx context.Context, subjectID, levelID, quizID int, questionIDs []int) (*models.Quiz, error) {
	args := m.Called(ctx, subjectID, levelID, quizID, questionIDs)
	q, _ := args.Get(0).(*models.Quiz)
	return q, args.Error(1)
}

func (m *mockContentService) CreateSubject(ctx context.Context, subject *models.Subject) error {
	return m.Called(ctx, subject).Error(0)
}

func (m *mockContentService) CreateLevel(ctx context.Context, level *models.Level) error {
	return m.Called(ctx, level).Error(0)
}

type mockProgressService struct{ mock.Mock }

func (m *mockProgressService) SubmitQuiz(ctx context.Context, userID int, quiz *models.Quiz, answers map[string]any) (progress.ScoreResult, error) {
	args := m.Called(ctx, userID, quiz, answers)
	return args.Get(0).(progress.ScoreResult), args.Error(1)
}

func (m *mockProgressService) CompleteLevel(ctx context.Context, userID, subjectID, levelID int) error {
	return m.Called(ctx, userID, subjectID, levelID).Error(0)
}

func (m *mockProgressService) GetUserSubjects(ctx context.Context, userID int) ([]services.SubjectProgress, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]services.SubjectProgress)
	return s, args.Error(1)
}

func (m *mockProgressService) RecentActivity(ctx context.Context, userID, limit int) ([]services.ActivityView, error) {
	args := m.Called(ctx, userID, limit)
	a, _ := args.Get(0).([]services.ActivityView)
	return a, args.Error(1)
}

func (m *mockProgressService) HasCompletedQuiz(ctx context.Context, userID, quizID int) (bool, error) {
	args := m.Called(ctx, userID, quizID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProgressService) TotalStudents(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockStatsService struct{ mock.Mock }

func (m *mockStatsService) GetUserStats(ctx context.Context, userID int) (*services.UserStats, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*services.UserStats)
	return s, args.Error(1)
}

type mockLeaderboardService struct{ mock.Mock }

func (m *mockLeaderboardService) GetLeaderboard(ctx context.Context) ([]services.LeaderboardEntry, error) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]services.LeaderboardEntry)
	return e, args.Error(1)
}

func (m *mockLeaderboardService) Refresh(ctx context.Context) ([]services.LeaderboardEntry, error) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]services.LeaderboardEntry)
	return e, args.Error(1)
}

func (m *mockLeaderboardService) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

type mockAdminService struct{ mock.Mock }

func (m *mockAdminService) ListUsersWithStats(ctx context.Context) ([]services.AdminUserSummary, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).([]services.AdminUserSummary)
	return u, args.Error(1)
}

func (m *mockAdminService) GetUserProgress(ctx context.Context, userID int) (*services.AdminUserProgress, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*services.AdminUserProgress)
	return p, args.Error(1)
}

func (m *mockAdminService) DeleteUser(ctx context.Context, actorID, userID int) error {
	return m.Called(ctx, actorID, userID).Error(0)
}

func (m *mockAdminService) CreateAdmin(ctx context.Context, email, password, name string) (*models.User, error) {
	args := m.Called(ctx, email, password, name)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAdminService) RepairUserStats(ctx context.Context) (*services.RepairReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*services.RepairReport)
	return r, args.Error(1)
}

func (m *mockAdminService) ResetUserProgress(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockAdminService) CleanupNullActivity(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAdminService) InitializeQuizProgress(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

type mockGoalService struct{ mock.Mock }

func (m *mockGoalService) CreateGoal(ctx context.Context, goal *models.UserGoal) (*models.UserGoal, error) {
	args := m.Called(ctx, goal)
	g, _ := args.Get(0).(*models.UserGoal)
	return g, args.Error(1)
}

func (m *mockGoalService) ListGoals(ctx context.Context, userID int) ([]models.UserGoal, error) {
	args := m.Called(ctx, userID)
	g, _ := args.Get(0).([]models.UserGoal)
	return g, args.Error(1)
}

type mockChallengeService struct{ mock.Mock }

func (m *mockChallengeService) SendChallenge(ctx context.Context, sender *models.User, recipientEmail, message, quizType string) (*models.UserChallenge, error) {
	args := m.Called(ctx, sender, recipientEmail, message, quizType)
	ch, _ := args.Get(0).(*models.UserChallenge)
	return ch, args.Error(1)
}

func (m *mockChallengeService) ListChallengesFor(ctx context.Context, recipientEmail string) ([]models.UserChallenge, error) {
	args := m.Called(ctx, recipientEmail)
	ch, _ := args.Get(0).([]models.UserChallenge)
	return ch, args.Error(1)
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
