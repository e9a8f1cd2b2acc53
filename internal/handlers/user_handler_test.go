package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"codetech/internal/api"
	"codetech/internal/config"
	"codetech/internal/models"
	"codetech/internal/progress"
	"codetech/internal/services"
	contextutils "codetech/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/user/subjects", "/user/activity", "/user/stats", "/user/goals", "/user/challenges"} {
		w := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestUserHandler_GetUserSubjects(t *testing.T) {
	s := newTestServer(t)
	subject := models.Subject{ID: 1, Name: "Python", Levels: []models.Level{
		{ID: 3, Name: "Basics", Quizzes: []models.Quiz{{ID: 5}}},
		{ID: 4, Name: "Loops", Quizzes: []models.Quiz{{ID: 6}}},
	}}
	s.progress.On("GetUserSubjects", mock.Anything, testStudent.ID).Return([]services.SubjectProgress{{
		Subject: subject,
		State: progress.SubjectState{
			Levels: []progress.LevelState{
				{LevelID: 3, Completed: true, Unlocked: true},
				{LevelID: 4, Unlocked: true, Current: true},
			},
			CompletedQuizzes: 1,
			TotalQuizzes:     2,
			Progress:         50,
		},
	}}, nil).Once()

	w := s.do(t, http.MethodGet, "/user/subjects", nil, testStudent)

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[[]api.Subject](t, w)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Progress)
	assert.Equal(t, 50, *got[0].Progress)
	assert.Equal(t, 1, *got[0].CompletedQuizzes)
	assert.True(t, *got[0].Levels[0].Completed)
	assert.False(t, *got[0].Levels[0].Current)
	assert.True(t, *got[0].Levels[1].Current)
	assert.False(t, *got[0].Levels[1].Completed)
}

func TestUserHandler_CompleteLevel(t *testing.T) {
	s := newTestServer(t)
	s.progress.On("CompleteLevel", mock.Anything, testStudent.ID, 1, 3).Return(nil).Once()
	s.progress.On("CompleteLevel", mock.Anything, testStudent.ID, 1, 99).Return(contextutils.ErrProgressNotFound).Once()

	w := s.do(t, http.MethodPost, "/user/subjects/1/levels/3/complete", nil, testStudent)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"completed":true}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/user/subjects/1/levels/99/complete", nil, testStudent)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Quiz progress not found", decodeBody[api.ErrorResponse](t, w).Detail)
}

func TestUserHandler_GetActivity(t *testing.T) {
	s := newTestServer(t)
	s.progress.On("RecentActivity", mock.Anything, testStudent.ID, config.RecentActivityLimit).Return([]services.ActivityView{
		{SubjectName: "Python", LevelName: "Basics", Action: "Completed Quiz: Basics", Score: sql.NullInt32{Int32: 80, Valid: true}, Timestamp: testNow},
		{SubjectName: "Go", LevelName: "Intro", Action: "Started Level", Timestamp: testNow},
	}, nil).Once()

	w := s.do(t, http.MethodGet, "/user/activity", nil, testStudent)

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[[]api.ActivityItem](t, w)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-03-14T09:30:00Z", got[0].Time)
	require.NotNil(t, got[0].Score)
	assert.EqualValues(t, 80, *got[0].Score)
	assert.Nil(t, got[1].Score)
}

func TestUserHandler_GetStats(t *testing.T) {
	tests := []struct {
		name  string
		stats services.UserStats
		rank  interface{}
	}{
		{name: "ranked", stats: services.UserStats{TotalCompleted: 3, AvgScore: 81, Streak: 2, Rank: 4, Ranked: true, TotalPoints: 271}, rank: float64(4)},
		{name: "unranked", stats: services.UserStats{}, rank: "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			stats := tt.stats
			s.stats.On("GetUserStats", mock.Anything, testStudent.ID).Return(&stats, nil).Once()

			w := s.do(t, http.MethodGet, "/user/stats", nil, testStudent)

			require.Equal(t, http.StatusOK, w.Code)
			got := decodeBody[map[string]interface{}](t, w)
			assert.Equal(t, tt.rank, got["rank"])
			assert.EqualValues(t, tt.stats.TotalPoints, got["totalPoints"])
		})
	}
}

func TestUserHandler_Dashboard(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do(t, http.MethodGet, "/dashboard-data", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		got := decodeBody[api.DashboardResponse](t, w)
		require.Len(t, got.Stats, 4)
		assert.Equal(t, "0", got.Stats[0].Value)
		assert.Equal(t, "-", got.Stats[3].Value)
		assert.Empty(t, got.RecentActivity)
	})

	t.Run("authenticated", func(t *testing.T) {
		s := newTestServer(t)
		s.stats.On("GetUserStats", mock.Anything, testStudent.ID).
			Return(&services.UserStats{TotalCompleted: 5, AvgScore: 82, Streak: 1, Rank: 23, Ranked: true}, nil).Once()
		s.progress.On("RecentActivity", mock.Anything, testStudent.ID, config.RecentActivityLimit).
			Return([]services.ActivityView{{SubjectName: "Python", Action: "Completed Quiz: Basics", Timestamp: testNow}}, nil).Once()

		w := s.do(t, http.MethodGet, "/dashboard-data", nil, testStudent)

		require.Equal(t, http.StatusOK, w.Code)
		got := decodeBody[api.DashboardResponse](t, w)
		assert.Equal(t, []string{"5", "82%", "1 day", "#23"}, []string{
			got.Stats[0].Value, got.Stats[1].Value, got.Stats[2].Value, got.Stats[3].Value,
		})
		assert.Len(t, got.RecentActivity, 1)
	})
}

func TestUserHandler_Goals(t *testing.T) {
	s := newTestServer(t)
	s.goals.On("CreateGoal", mock.Anything, mock.MatchedBy(func(g *models.UserGoal) bool {
		return g.UserID == testStudent.ID && g.Type == "weekly" && g.Target == "5 quizzes"
	})).Return(&models.UserGoal{ID: 7, UserID: testStudent.ID, Type: "weekly", Target: "5 quizzes", CreatedAt: testNow}, nil).Once()
	s.goals.On("ListGoals", mock.Anything, testStudent.ID).Return([]models.UserGoal{}, nil).Once()

	w := s.do(t, http.MethodPost, "/user/goals", map[string]string{"type": "weekly", "target": "5 quizzes"}, testStudent)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[api.GoalResponse](t, w)
	assert.Equal(t, "Goal saved", resp.Message)
	assert.Equal(t, 7, resp.Goal.ID)

	w = s.do(t, http.MethodGet, "/user/goals", nil, testStudent)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUserHandler_GoalMissingType(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/user/goals", map[string]string{"target": "x"}, testStudent)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_Challenges(t *testing.T) {
	s := newTestServer(t)
	s.challenges.On("SendChallenge", mock.Anything, testStudent, "friend@example.com", "Beat me", "python").
		Return(&models.UserChallenge{ID: 3, SenderID: testStudent.ID, RecipientEmail: "friend@example.com", Message: "Beat me", QuizType: "python", CreatedAt: testNow}, nil).Once()
	s.challenges.On("ListChallengesFor", mock.Anything, testStudent.Email).
		Return([]models.UserChallenge{{ID: 8, SenderID: 4, RecipientEmail: testStudent.Email, CreatedAt: testNow}}, nil).Once()

	w := s.do(t, http.MethodPost, "/user/challenge", map[string]string{"friendEmail": "friend@example.com", "message": "Beat me", "quizType": "python"}, testStudent)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[api.ChallengeResponse](t, w)
	assert.Equal(t, "Challenge sent!", resp.Message)
	assert.Equal(t, "friend@example.com", resp.Challenge.RecipientEmail)

	w = s.do(t, http.MethodGet, "/user/challenges", nil, testStudent)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[[]api.Challenge](t, w)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].SenderID)
	assert.Equal(t, 4, *got[0].SenderID)
}

func TestUserHandler_ServiceErrorIsOpaque(t *testing.T) {
	s := newTestServer(t)
	s.stats.On("GetUserStats", mock.Anything, testStudent.ID).
		Return(nil, contextutils.WrapError(errors.New("pq: relation does not exist"), "failed to load stats")).Once()

	w := s.do(t, http.MethodGet, "/user/stats", nil, testStudent)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}
