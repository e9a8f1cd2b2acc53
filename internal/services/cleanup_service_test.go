package services

import (
	"context"
	"testing"

	"codetech/internal/config"
	"codetech/internal/observability"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCleanupService(t *testing.T) {
	service := NewCleanupServiceWithLogger(nil, observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false}))
	assert.NotNil(t, service)
	assert.Nil(t, service.db)
	assert.NotNil(t, service.logger, "CleanupService should have a logger")
}

func TestCleanupNullActivity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewCleanupServiceWithLogger(db, observability.NewNopLogger())

	mock.ExpectExec("DELETE FROM user_activity WHERE score IS NULL").
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := service.CleanupNullActivity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
}

func TestCleanupOrphanedActivity_NoOrphans(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewCleanupServiceWithLogger(db, observability.NewNopLogger())

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM user_activity a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	deleted, err := service.CleanupOrphanedActivity(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestCleanupOrphanedActivity_WithOrphans(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewCleanupServiceWithLogger(db, observability.NewNopLogger())

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM user_activity a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("DELETE FROM user_activity a").
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := service.CleanupOrphanedActivity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestCleanupService_NoDatabase(t *testing.T) {
	service := NewCleanupServiceWithLogger(nil, observability.NewNopLogger())

	_, err := service.CleanupNullActivity(context.Background())
	require.EqualError(t, err, "database connection not available")

	err = service.RunFullCleanup(context.Background())
	require.EqualError(t, err, "database connection not available")

	stats, err := service.GetCleanupStats(context.Background())
	require.Nil(t, stats)
	require.EqualError(t, err, "database connection not available")
}

func TestCleanupService_RunFullCleanup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewCleanupServiceWithLogger(db, observability.NewNopLogger())

	mock.ExpectExec("DELETE FROM user_activity WHERE score IS NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM user_activity a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err = service.RunFullCleanup(context.Background())
	require.NoError(t, err)
}

func TestCleanupService_GetCleanupStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewCleanupServiceWithLogger(db, observability.NewNopLogger())

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM user_activity\\s+WHERE score IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM user_activity a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	stats, err := service.GetCleanupStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"null_score_activities": 4,
		"orphaned_activities":   2,
	}, stats)
}
