package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"codetech/internal/observability"
)

// CleanupServiceInterface defines activity maintenance operations
type CleanupServiceInterface interface {
	CleanupNullActivity(ctx context.Context) (int64, error)
	CleanupOrphanedActivity(ctx context.Context) (int64, error)
	RunFullCleanup(ctx context.Context) error
	GetCleanupStats(ctx context.Context) (map[string]int, error)
}

// CleanupService handles database maintenance and cleanup tasks
type CleanupService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewCleanupServiceWithLogger creates a new cleanup service with logger
func NewCleanupServiceWithLogger(db *sql.DB, logger *observability.Logger) *CleanupService {
	return &CleanupService{
		db:     db,
		logger: logger,
	}
}

var errNoDatabase = errors.New("database connection not available")

// CleanupNullActivity removes activities that never recorded a score
func (c *CleanupService) CleanupNullActivity(ctx context.Context) (result0 int64, err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "cleanup_null_activity")
	defer observability.FinishSpan(span, &err)

	if c.db == nil {
		return 0, errNoDatabase
	}

	result, err := c.db.ExecContext(ctx, `DELETE FROM user_activity WHERE score IS NULL`)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int64("cleanup.rows_affected", rowsAffected))
	c.logger.Info(ctx, "Removed activities with null score", map[string]interface{}{"rows_affected": rowsAffected})
	return rowsAffected, nil
}

// CleanupOrphanedActivity removes activities whose level no longer exists
func (c *CleanupService) CleanupOrphanedActivity(ctx context.Context) (result0 int64, err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "cleanup_orphaned_activity")
	defer observability.FinishSpan(span, &err)

	if c.db == nil {
		return 0, errNoDatabase
	}

	var count int
	err = c.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM user_activity a
		LEFT JOIN levels l ON l.id = a.level_id AND l.subject_id = a.subject_id
		WHERE l.id IS NULL
	`).Scan(&count)
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int("cleanup.orphaned_activity_count", count))

	if count == 0 {
		c.logger.Info(ctx, "No orphaned activities found to cleanup", map[string]interface{}{})
		return 0, nil
	}

	result, err := c.db.ExecContext(ctx, `
		DELETE FROM user_activity a
		WHERE NOT EXISTS (
			SELECT 1 FROM levels l WHERE l.id = a.level_id AND l.subject_id = a.subject_id
		)
	`)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int64("cleanup.rows_affected", rowsAffected))
	c.logger.Info(ctx, "Successfully cleaned up orphaned activities", map[string]interface{}{"rows_affected": rowsAffected})
	return rowsAffected, nil
}

// RunFullCleanup performs all cleanup operations
func (c *CleanupService) RunFullCleanup(ctx context.Context) (err error) {
	ctx, span := observability.TraceWorkerFunction(ctx, "run_full_cleanup")
	defer observability.FinishSpan(span, &err)

	start := time.Now()
	c.logger.Info(ctx, "Starting database cleanup", map[string]interface{}{"start_time": start.Format(time.RFC3339)})

	if _, err = c.CleanupNullActivity(ctx); err != nil {
		c.logger.Error(ctx, "Failed to cleanup null activities", err, map[string]interface{}{})
		return err
	}

	if _, err = c.CleanupOrphanedActivity(ctx); err != nil {
		c.logger.Error(ctx, "Failed to cleanup orphaned activities", err, map[string]interface{}{})
		return err
	}

	c.logger.Info(ctx, "Database cleanup completed successfully", map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()})
	return nil
}

// GetCleanupStats returns the number of rows each cleanup would remove
func (c *CleanupService) GetCleanupStats(ctx context.Context) (result0 map[string]int, err error) {
	ctx, span := observability.TraceAdminFunction(ctx, "get_cleanup_stats")
	defer observability.FinishSpan(span, &err)

	if c.db == nil {
		return nil, errNoDatabase
	}

	stats := make(map[string]int)

	var nullCount int
	err = c.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM user_activity
		WHERE score IS NULL
	`).Scan(&nullCount)
	if err != nil {
		return nil, err
	}
	stats["null_score_activities"] = nullCount

	var orphanedCount int
	err = c.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM user_activity a
		LEFT JOIN levels l ON l.id = a.level_id AND l.subject_id = a.subject_id
		WHERE l.id IS NULL
	`).Scan(&orphanedCount)
	if err != nil {
		return nil, err
	}
	stats["orphaned_activities"] = orphanedCount

	span.SetAttributes(
		attribute.Int("cleanup.stats.null_score_activities", nullCount),
		attribute.Int("cleanup.stats.orphaned_activities", orphanedCount),
	)

	return stats, nil
}
