package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockLeaderboard is a testify mock of LeaderboardServiceInterface
type mockLeaderboard struct {
	mock.Mock
}

func (m *mockLeaderboard) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]LeaderboardEntry)
	return entries, args.Error(1)
}

func (m *mockLeaderboard) Refresh(ctx context.Context) ([]LeaderboardEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]LeaderboardEntry)
	return entries, args.Error(1)
}

func (m *mockLeaderboard) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

func twoQuestionQuiz() *models.Quiz {
	return &models.Quiz{
		ID:        11,
		SubjectID: 1,
		LevelID:   2,
		Title:     "Syntax",
		Questions: []models.Question{
			{ID: 101, Choices: []models.Choice{{Text: "print"}, {Text: "echo", IsCorrect: false}, {Text: "print()", IsCorrect: true}}},
			{ID: 102, Choices: []models.Choice{{Text: "def", IsCorrect: true}, {Text: "func"}}},
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestProgressService_SubmitQuiz_Anonymous(t *testing.T) {
	db, _ := newMockDB(t)
	service := NewProgressServiceWithLogger(db, nil, nil, observability.NewNopLogger())

	result, err := service.SubmitQuiz(context.Background(), 0, twoQuestionQuiz(), map[string]any{
		"101": "print()",
		"102": 7,
		"abc": "def",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 50, result.Score)
}

func TestProgressService_SubmitQuiz_Authenticated(t *testing.T) {
	db, sqlMock := newMockDB(t)
	leaderboard := &mockLeaderboard{}
	leaderboard.On("Invalidate", mock.Anything).Once()

	service := NewProgressServiceWithLogger(db, nil, leaderboard, observability.NewNopLogger())
	service.now = fixedNow

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec("INSERT INTO user_quiz_completion").
		WithArgs(5, 11, fixedNow()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectQuery("SELECT l.id, qz.id\\s+FROM levels l").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"level_id", "quiz_id"}).
			AddRow(2, 11).
			AddRow(2, 12).
			AddRow(3, 13))
	sqlMock.ExpectQuery("SELECT c.quiz_id\\s+FROM user_quiz_completion c").
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"quiz_id"}).AddRow(11))
	sqlMock.ExpectExec("INSERT INTO user_quiz_progress").
		WithArgs(5, 1, 2, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec("INSERT INTO user_quiz_progress").
		WithArgs(5, 1, 3, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec("INSERT INTO user_progress").
		WithArgs(5, 1, 33, 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec("INSERT INTO user_activity").
		WithArgs(5, 1, 2, "Completed Quiz: Syntax", sql.NullInt32{Int32: 100, Valid: true}, fixedNow()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	result, err := service.SubmitQuiz(context.Background(), 5, twoQuestionQuiz(), map[string]any{
		"101": "print()",
		"102": "def",
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	leaderboard.AssertExpectations(t)
}

func TestProgressService_SubmitQuiz_RollsBackOnError(t *testing.T) {
	db, sqlMock := newMockDB(t)
	leaderboard := &mockLeaderboard{}
	service := NewProgressServiceWithLogger(db, nil, leaderboard, observability.NewNopLogger())

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec("INSERT INTO user_quiz_completion").WillReturnError(errors.New("boom"))
	sqlMock.ExpectRollback()

	_, err := service.SubmitQuiz(context.Background(), 5, twoQuestionQuiz(), map[string]any{})
	require.Error(t, err)
	leaderboard.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestProgressService_CompleteLevel_NoProgressRow(t *testing.T) {
	db, sqlMock := newMockDB(t)
	service := NewProgressServiceWithLogger(db, nil, nil, observability.NewNopLogger())

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery("SELECT EXISTS").
		WithArgs(5, 1, 9).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	sqlMock.ExpectRollback()

	err := service.CompleteLevel(context.Background(), 5, 1, 9)
	assert.True(t, errors.Is(err, contextutils.ErrProgressNotFound))
}

func TestProgressService_CompleteLevel(t *testing.T) {
	db, sqlMock := newMockDB(t)
	service := NewProgressServiceWithLogger(db, nil, nil, observability.NewNopLogger())
	service.now = fixedNow

	levels := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"level_id", "quiz_id"}).AddRow(2, 11).AddRow(2, 12).AddRow(3, 13)
	}

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	sqlMock.ExpectQuery("SELECT l.id, qz.id").WillReturnRows(levels())
	sqlMock.ExpectExec("INSERT INTO user_quiz_completion").WithArgs(5, 11, fixedNow()).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec("INSERT INTO user_quiz_completion").WithArgs(5, 12, fixedNow()).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectQuery("SELECT l.id, qz.id").WillReturnRows(levels())
	sqlMock.ExpectQuery("SELECT c.quiz_id").WillReturnRows(sqlmock.NewRows([]string{"quiz_id"}).AddRow(11).AddRow(12))
	sqlMock.ExpectExec("INSERT INTO user_quiz_progress").WithArgs(5, 1, 2, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec("INSERT INTO user_quiz_progress").WithArgs(5, 1, 3, 0).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec("INSERT INTO user_progress").WithArgs(5, 1, 66, 2, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	require.NoError(t, service.CompleteLevel(context.Background(), 5, 1, 2))
}

func TestProgressService_HasCompletedQuiz(t *testing.T) {
	db, sqlMock := newMockDB(t)
	service := NewProgressServiceWithLogger(db, nil, nil, observability.NewNopLogger())

	sqlMock.ExpectQuery("SELECT completed FROM user_quiz_completion").
		WithArgs(5, 11).
		WillReturnError(sql.ErrNoRows)
	sqlMock.ExpectQuery("SELECT completed FROM user_quiz_completion").
		WithArgs(5, 12).
		WillReturnRows(sqlmock.NewRows([]string{"completed"}).AddRow(true))

	done, err := service.HasCompletedQuiz(context.Background(), 5, 11)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = service.HasCompletedQuiz(context.Background(), 5, 12)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProgressService_RecentActivity(t *testing.T) {
	db, sqlMock := newMockDB(t)
	service := NewProgressServiceWithLogger(db, nil, nil, observability.NewNopLogger())

	sqlMock.ExpectQuery("SELECT a.subject_id, a.level_id").
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "level_id", "subject", "level", "action", "score", "timestamp"}).
			AddRow(1, 2, "Python", "Basics", "Completed Quiz: Syntax", 80, fixedNow()).
			AddRow(9, 9, "", "", "Completed Quiz: Gone", nil, fixedNow().Add(-time.Hour)))

	items, err := service.RecentActivity(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Python", items[0].SubjectName)
	assert.Equal(t, int32(80), items[0].Score.Int32)
	assert.False(t, items[1].Score.Valid)
	assert.Empty(t, items[1].LevelName)
}

func TestProgressService_TotalStudents(t *testing.T) {
	db, sqlMock := newMockDB(t)
	service := NewProgressServiceWithLogger(db, nil, nil, observability.NewNopLogger())

	sqlMock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users u").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	total, err := service.TotalStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 17, total)
}
