package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codetech/internal/api"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorRecoveryMiddleware_PanicRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorRecoveryMiddleware(observability.NewNopLogger()))
	router.GET("/panic", func(_ *gin.Context) {
		panic("test panic")
	})

	req, _ := http.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Internal server error", body.Detail)
	require.NotNil(t, body.Code)
	assert.Equal(t, string(contextutils.ErrorCodeInternalError), *body.Code)
}

func TestErrorRecoveryMiddleware_NormalRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorRecoveryMiddleware(nil))
	router.GET("/normal", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req, _ := http.NewRequest("GET", "/normal", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"user not found", contextutils.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"custom message", contextutils.WithMessage(contextutils.ErrInvalidInput, "Cannot delete your own account"), http.StatusBadRequest, "Cannot delete your own account"},
		{"email taken", contextutils.ErrEmailTaken, http.StatusBadRequest, "Email already registered"},
		{"bad credentials", contextutils.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect email or password"},
		{"forbidden", contextutils.ErrForbidden, http.StatusForbidden, "Admin access required"},
		{"conflict", contextutils.WithMessage(contextutils.ErrRecordExists, "Subject already exists"), http.StatusConflict, "Subject already exists"},
		{"wrapped database error", contextutils.WrapError(errors.New("pq: relation does not exist"), "failed to query"), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
		{"transaction failure", contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseTransaction, contextutils.SeverityError, "failed to commit transaction", "", errors.New("pq: could not serialize access")), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAppError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantDetail, body.Detail)
			if tt.wantStatus >= http.StatusInternalServerError {
				require.NotNil(t, body.Code)
				assert.Equal(t, string(contextutils.ErrorCodeInternalError), *body.Code)
			}
		})
	}
}
