package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold is the duration above which gorm queries are logged as warnings
const slowQueryThreshold = 200 * time.Millisecond

// OpenGorm wraps an existing connection pool in a gorm session.
// The pool stays owned by the caller; gorm never closes it.
func OpenGorm(db *sql.DB, logger *observability.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 NewGormLogger(logger),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open gorm session")
	}
	return gdb, nil
}

// GormLogger routes gorm's log output through the observability logger
type GormLogger struct {
	logger *observability.Logger
	level  gormlogger.LogLevel
}

// NewGormLogger returns a gorm logger at Warn level
func NewGormLogger(logger *observability.Logger) *GormLogger {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &GormLogger{logger: logger, level: gormlogger.Warn}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

// Trace implements gormlogger.Interface. Record-not-found is expected and never logged.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		query, rows := fc()
		l.logger.Error(ctx, "gorm query failed", err, map[string]interface{}{
			"sql": query, "rows": rows, "elapsed_ms": elapsed.Milliseconds(),
		})
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		query, rows := fc()
		l.logger.Warn(ctx, "slow gorm query", map[string]interface{}{
			"sql": query, "rows": rows, "elapsed_ms": elapsed.Milliseconds(),
		})
	case l.level >= gormlogger.Info:
		query, rows := fc()
		l.logger.Debug(ctx, "gorm query", map[string]interface{}{
			"sql": query, "rows": rows, "elapsed_ms": elapsed.Milliseconds(),
		})
	}
}
