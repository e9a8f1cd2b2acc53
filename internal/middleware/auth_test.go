package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codetech/internal/auth"
	"codetech/internal/models"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-bytes"

type mockUserLookup struct {
	users     map[string]*models.User
	err       error
	lastEmail string
}

func (m *mockUserLookup) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.lastEmail = email
	if m.err != nil {
		return nil, m.err
	}
	return m.users[email], nil
}

func newTestRouter(users UserLookup) (*gin.Engine, *auth.TokenService) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenService(testSecret, time.Hour)
	router := gin.New()
	router.Use(Authenticate(tokens, users))
	return router, tokens
}

func issue(t *testing.T, tokens *auth.TokenService, email string) string {
	t.Helper()
	token, err := tokens.Issue(context.Background(), email)
	require.NoError(t, err)
	return token
}

func doRequest(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_ResolvesIdentity(t *testing.T) {
	learner := &models.User{ID: 42, Email: "learner@example.com", Role: models.RoleUser}
	users := &mockUserLookup{users: map[string]*models.User{learner.Email: learner}}
	router, tokens := newTestRouter(users)

	var got auth.Identity
	var ctxUserID int
	router.GET("/whoami", func(c *gin.Context) {
		got = GetIdentity(c)
		ctxUserID = contextutils.GetUserIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name          string
		authorization string
		check         func(t *testing.T)
	}{
		{
			name: "no header is anonymous",
			check: func(t *testing.T) {
				assert.IsType(t, auth.Anonymous{}, got)
			},
		},
		{
			name:          "valid token is authenticated",
			authorization: "Bearer " + issue(t, tokens, learner.Email),
			check: func(t *testing.T) {
				require.IsType(t, auth.Authenticated{}, got)
				assert.Equal(t, 42, auth.UserOf(got).ID)
				assert.Equal(t, 42, ctxUserID)
			},
		},
		{
			name:          "garbage token is invalid",
			authorization: "Bearer not-a-jwt",
			check: func(t *testing.T) {
				assert.IsType(t, auth.InvalidToken{}, got)
			},
		},
		{
			name:          "wrong scheme is invalid",
			authorization: "Basic dXNlcjpwYXNz",
			check: func(t *testing.T) {
				assert.IsType(t, auth.InvalidToken{}, got)
			},
		},
		{
			name:          "unknown subject is invalid",
			authorization: "Bearer " + issue(t, tokens, "ghost@example.com"),
			check: func(t *testing.T) {
				require.IsType(t, auth.InvalidToken{}, got)
				assert.True(t, errors.Is(got.(auth.InvalidToken).Err, contextutils.ErrUserNotFound))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ctxUserID = nil, 0
			w := doRequest(router, "/whoami", tt.authorization)
			assert.Equal(t, http.StatusOK, w.Code)
			tt.check(t)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	learner := &models.User{ID: 42, Email: "learner@example.com", Role: models.RoleUser}
	router, tokens := newTestRouter(&mockUserLookup{users: map[string]*models.User{learner.Email: learner}})
	router.GET("/private", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, 42, CurrentUser(c).ID)
		c.Status(http.StatusOK)
	})

	w := doRequest(router, "/private", "Bearer "+issue(t, tokens, learner.Email))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authenticated", decodeError(t, w).Detail)

	w = doRequest(router, "/private", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decodeError(t, w).Detail)

	w = doRequest(router, "/private", "Bearer "+issue(t, tokens, "ghost@example.com"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeError(t, w).Detail)
}

func TestRequireAuth_LookupFailure(t *testing.T) {
	users := &mockUserLookup{err: contextutils.WrapError(errors.New("connection refused"), "failed to get user")}
	router, tokens := newTestRouter(users)
	router.GET("/private", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, "/private", "Bearer "+issue(t, tokens, "learner@example.com"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "learner@example.com", users.lastEmail)
}

func TestRejectInvalidToken(t *testing.T) {
	router, _ := newTestRouter(&mockUserLookup{})
	router.POST("/submit", RejectInvalidToken(), func(c *gin.Context) {
		assert.Nil(t, CurrentUser(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Authorization", "Bearer expired.token.value")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	admin := &models.User{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin}
	learner := &models.User{ID: 42, Email: "learner@example.com", Role: models.RoleUser}
	router, tokens := newTestRouter(&mockUserLookup{users: map[string]*models.User{
		admin.Email:   admin,
		learner.Email: learner,
	}})
	router.GET("/admin/users", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, "/admin/users", "Bearer "+issue(t, tokens, admin.Email))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "/admin/users", "Bearer "+issue(t, tokens, learner.Email))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Admin access required", decodeError(t, w).Detail)

	w = doRequest(router, "/admin/users", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
