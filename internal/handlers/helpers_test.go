package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codetech/internal/auth"
	"codetech/internal/config"
	"codetech/internal/middleware"
	"codetech/internal/models"
	"codetech/internal/observability"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-bytes"

var (
	testStudent = &models.User{ID: 2, Email: "jane.doe@example.com", Name: "Jane Doe", Role: models.RoleUser, CreatedAt: testNow}
	testAdmin   = &models.User{ID: 1, Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin, CreatedAt: testNow}
)

type testServer struct {
	router      http.Handler
	tokens      *auth.TokenService
	users       *mockUserService
	content     *mockContentService
	progress    *mockProgressService
	stats       *mockStatsService
	leaderboard *mockLeaderboardService
	admin       *mockAdminService
	goals       *mockGoalService
	challenges  *mockChallengeService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, nil)
}

func newTestServerWithConfig(t *testing.T, configure func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	cfg.OpenTelemetry.ServiceName = "codetech-test"
	if configure != nil {
		configure(cfg)
	}

	schemas, err := middleware.LoadRequestSchemas()
	require.NoError(t, err)

	s := &testServer{
		tokens:      auth.NewTokenService(testSecret, time.Hour),
		users:       &mockUserService{},
		content:     &mockContentService{},
		progress:    &mockProgressService{},
		stats:       &mockStatsService{},
		leaderboard: &mockLeaderboardService{},
		admin:       &mockAdminService{},
		goals:       &mockGoalService{},
		challenges:  &mockChallengeService{},
	}
	s.users.On("GetUserByEmail", mock.Anything, testStudent.Email).Return(testStudent, nil).Maybe()
	s.users.On("GetUserByEmail", mock.Anything, testAdmin.Email).Return(testAdmin, nil).Maybe()

	s.router = NewRouter(cfg, RouterServices{
		Users:       s.users,
		Content:     s.content,
		Progress:    s.progress,
		Stats:       s.stats,
		Leaderboard: s.leaderboard,
		Admin:       s.admin,
		Goals:       s.goals,
		Challenges:  s.challenges,
		Tokens:      s.tokens,
	}, schemas, observability.NewNopLogger())

	t.Cleanup(func() {
		s.users.AssertExpectations(t)
		s.content.AssertExpectations(t)
		s.progress.AssertExpectations(t)
		s.stats.AssertExpectations(t)
		s.leaderboard.AssertExpectations(t)
		s.admin.AssertExpectations(t)
		s.goals.AssertExpectations(t)
		s.challenges.AssertExpectations(t)
	})
	return s
}

func (s *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := s.tokens.Issue(context.Background(), user.Email)
	require.NoError(t, err)
	return token
}

// do sends a JSON request. A nil user sends no Authorization header.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, user))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// doWithHeader sends a JSON body with a raw Authorization header
func doWithHeader(t *testing.T, s *testServer, method, path, body, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorization)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
