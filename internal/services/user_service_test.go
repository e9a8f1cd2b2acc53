package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"codetech/internal/config"
	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})
	return db, mock
}

var userColumns = []string{"id", "email", "hashed_password", "name", "role", "created_at"}

func TestUserService_NewUserServiceWithLogger(t *testing.T) {
	cfg := &config.Config{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	service := NewUserServiceWithLogger(nil, cfg, nil, logger)
	assert.NotNil(t, service)
}

func TestUserService_CreateUser(t *testing.T) {
	db, sqlMock := newMockDB(t)
	leaderboard := &mockLeaderboard{}
	leaderboard.On("Invalidate", mock.Anything).Once()
	service := NewUserServiceWithLogger(db, &config.Config{}, leaderboard, observability.NewNopLogger())

	now := time.Now()
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery("INSERT INTO users").
		WithArgs("ada@example.com", sqlmock.AnyArg(), "Ada", models.RoleUser).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ada@example.com", "hash", "Ada", models.RoleUser, now))
	sqlMock.ExpectExec("INSERT INTO user_progress").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 4))
	sqlMock.ExpectExec("INSERT INTO user_quiz_progress").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 12))
	sqlMock.ExpectCommit()

	user, err := service.CreateUser(context.Background(), " ada@example.com ", "secret", "Ada", "")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	leaderboard.AssertExpectations(t)
}

func TestUserService_CreateUser_Duplicate(t *testing.T) {
	db, sqlMock := newMockDB(t)
	leaderboard := &mockLeaderboard{}
	service := NewUserServiceWithLogger(db, &config.Config{}, leaderboard, observability.NewNopLogger())

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
	sqlMock.ExpectRollback()

	_, err := service.CreateUser(context.Background(), "ada@example.com", "secret", "", models.RoleUser)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contextutils.ErrEmailTaken))
	leaderboard.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestUserService_CreateUser_BeginFailureIsRetryable(t *testing.T) {
	db, sqlMock := newMockDB(t)
	leaderboard := &mockLeaderboard{}
	service := NewUserServiceWithLogger(db, &config.Config{}, leaderboard, observability.NewNopLogger())

	sqlMock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := service.CreateUser(context.Background(), "ada@example.com", "secret", "", models.RoleUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, contextutils.ErrDatabaseTransaction)
	assert.True(t, contextutils.IsRetryable(err))
	leaderboard.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestUserService_CreateUser_Validation(t *testing.T) {
	service := NewUserServiceWithLogger(nil, &config.Config{}, nil, observability.NewNopLogger())

	_, err := service.CreateUser(context.Background(), "", "secret", "", "")
	assert.True(t, errors.Is(err, contextutils.ErrMissingRequired))

	_, err = service.CreateUser(context.Background(), "ada@example.com", "", "", "")
	assert.True(t, errors.Is(err, contextutils.ErrMissingRequired))

	_, err = service.CreateUser(context.Background(), "ada@example.com", "secret", "", "owner")
	assert.True(t, errors.Is(err, contextutils.ErrInvalidInput))
}

func TestUserService_GetUserByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewUserServiceWithLogger(db, &config.Config{}, nil, observability.NewNopLogger())

	mock.ExpectQuery("SELECT .* FROM users WHERE id = \\$1").
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	user, err := service.GetUserByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserService_AuthenticateUser(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "correct password", password: "secret"},
		{name: "wrong password", password: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			service := NewUserServiceWithLogger(db, &config.Config{}, nil, observability.NewNopLogger())

			mock.ExpectQuery("SELECT .* FROM users WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
				WithArgs("ada@example.com").
				WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ada@example.com", string(hash), "Ada", models.RoleUser, time.Now()))

			user, err := service.AuthenticateUser(context.Background(), "ada@example.com", tt.password)
			if tt.wantErr {
				assert.True(t, errors.Is(err, contextutils.ErrInvalidCredentials))
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, user.ID)
		})
	}
}

func TestUserService_AuthenticateUser_UnknownEmail(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewUserServiceWithLogger(db, &config.Config{}, nil, observability.NewNopLogger())

	mock.ExpectQuery("SELECT .* FROM users WHERE LOWER").WillReturnError(sql.ErrNoRows)

	_, err := service.AuthenticateUser(context.Background(), "ghost@example.com", "secret")
	assert.True(t, errors.Is(err, contextutils.ErrInvalidCredentials))
}

func TestUserService_EnsureAdminUserExists_AlreadyPresent(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewUserServiceWithLogger(db, &config.Config{}, nil, observability.NewNopLogger())

	mock.ExpectQuery("SELECT .* FROM users WHERE LOWER").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "AdminIbra@gmail.com", "hash", "IbraGold", models.RoleAdmin, time.Now()))

	err := service.EnsureAdminUserExists(context.Background(), "adminibra@gmail.com", "IbraGold@1", "IbraGold")
	require.NoError(t, err)
}

func TestUserService_EnsureAdminUserExists_EmptyCredentials(t *testing.T) {
	service := NewUserServiceWithLogger(nil, &config.Config{}, nil, observability.NewNopLogger())

	err := service.EnsureAdminUserExists(context.Background(), "", "", "")
	assert.Error(t, err)
}
