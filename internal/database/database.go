// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"net/url"
	"strings"
	"sync"

	"codetech/internal/config"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Manager handles database operations with proper logging
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// DefaultDatabaseConfig returns the default pool configuration for url
func DefaultDatabaseConfig(url string) config.DatabaseConfig {
	return config.DatabaseConfig{
		URL:             url,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
		RunMigrations:   true,
	}
}

// InitDB opens an instrumented connection pool and applies pending migrations when enabled
func (dm *Manager) InitDB(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDB",
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
		attribute.String("db.system", "postgresql"),
		attribute.Bool("migrations.enabled", cfg.RunMigrations),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
	)
	defer observability.FinishSpan(span, &err)

	if cfg.RunMigrations {
		if err := dm.RunMigrations(ctx, cfg.URL); err != nil {
			return nil, err
		}
	}

	return dm.Open(ctx, cfg)
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Path != "" {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
	}

	for _, part := range strings.Fields(databaseURL) {
		if name, ok := strings.CutPrefix(part, "dbname="); ok {
			return name
		}
	}

	return "codetech"
}

// Open returns an instrumented connection pool without touching the schema
func (dm *Manager) Open(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "Open")
	defer observability.FinishSpan(span, &err)

	// Register OpenTelemetry SQL driver once per process and reuse the name
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.WithDatabaseName(extractDatabaseName(cfg.URL)),
			otelsql.TraceQueryWithoutArgs(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
			otelsql.TraceRowsAffected(),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapError(otelDriverErr, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open database connection")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.WrapError(err, "failed to ping database")
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	return db, nil
}

// RunMigrations applies the embedded golang-migrate migrations.
// It uses a dedicated connection because closing the migrator closes its database handle.
func (dm *Manager) RunMigrations(ctx context.Context, databaseURL string) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "RunMigrations",
		attribute.String("db.system", "postgresql"),
		attribute.String("migration.type", "golang_migrate"),
	)
	defer observability.FinishSpan(span, &err)

	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			dm.logger.Error(ctx, "Error closing migration", errors.Join(srcErr, dbErr))
		}
	}()

	dm.logger.Info(ctx, "Starting database migrations")

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		dm.logger.Info(ctx, "No new migrations to apply")
		err = nil
	case err != nil:
		return contextutils.WrapError(err, "migrate up failed")
	default:
		dm.logger.Info(ctx, "Migrations applied successfully")
	}

	if version, dirty, verr := m.Version(); verr == nil {
		span.SetAttributes(attribute.Int("migration.version", int(version)), attribute.Bool("migration.dirty", dirty))
	}
	return nil
}

// MigrateDown rolls back every migration. Used by the admin CLI for resets.
func (dm *Manager) MigrateDown(ctx context.Context, databaseURL string) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "MigrateDown")
	defer observability.FinishSpan(span, &err)

	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return contextutils.WrapError(err, "migrate down failed")
	}
	dm.logger.Info(ctx, "Migrations rolled back")
	return nil
}

func newMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open embedded migrations")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open migration connection")
	}

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, contextutils.WrapError(err, "failed to initialize migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, contextutils.WrapError(err, "failed to initialize golang-migrate")
	}
	return m, nil
}
