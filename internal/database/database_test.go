package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codetech/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestExtractDatabaseName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"url form", "postgres://u:p@localhost:5432/codetech_db?sslmode=disable", "codetech_db"},
		{"keyword form", "host=localhost dbname=quiz user=u", "quiz"},
		{"no name", "postgres://u:p@localhost:5432", "codetech"},
		{"empty", "", "codetech"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDatabaseName(tt.url))
		})
	}
}

func TestDefaultDatabaseConfig(t *testing.T) {
	cfg := DefaultDatabaseConfig("postgres://x")
	assert.Equal(t, "postgres://x", cfg.URL)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.True(t, cfg.RunMigrations)
	assert.Greater(t, cfg.ConnMaxLifetime, time.Duration(0))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	l := NewGormLogger(observability.NewNopLogger())
	silent := l.LogMode(gormlogger.Silent)

	assert.Equal(t, gormlogger.Warn, l.level)
	assert.Equal(t, gormlogger.Silent, silent.(*GormLogger).level)
}

func TestGormLogger_TraceSkipsRecordNotFound(t *testing.T) {
	l := NewGormLogger(nil)
	called := false
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "SELECT 1", 0
	}, gorm.ErrRecordNotFound)
	assert.False(t, called)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "SELECT 1", 0
	}, errors.New("boom"))
	assert.True(t, called)
}
