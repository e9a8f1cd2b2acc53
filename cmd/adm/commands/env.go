// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"errors"

	"codetech/internal/config"
	"codetech/internal/database"
	"codetech/internal/observability"
	"codetech/internal/services"

	"github.com/redis/go-redis/v9"
)

// Env holds the resources shared by every command. The database pool is
// opened on first use so commands like "health ping" work without one.
type Env struct {
	Config *config.Config
	Logger *observability.Logger

	manager *database.Manager
	db      *sql.DB
	redis   *redis.Client
}

// NewEnv creates an Env
func NewEnv(cfg *config.Config, logger *observability.Logger) *Env {
	return &Env{
		Config:  cfg,
		Logger:  logger,
		manager: database.NewManager(logger),
	}
}

// DB returns the shared connection pool, opening it without running migrations
func (e *Env) DB(ctx context.Context) (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := e.manager.Open(ctx, e.Config.Database)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

// UserService builds a user service on the shared pool
func (e *Env) UserService(ctx context.Context) (*services.UserService, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewUserServiceWithLogger(db, e.Config, e.leaderboard(db), e.Logger), nil
}

// AdminService builds an admin service on the shared pool
func (e *Env) AdminService(ctx context.Context) (*services.AdminService, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return nil, err
	}
	leaderboard := e.leaderboard(db)
	users := services.NewUserServiceWithLogger(db, e.Config, leaderboard, e.Logger)
	cleanup := services.NewCleanupServiceWithLogger(db, e.Logger)
	return services.NewAdminServiceWithLogger(db, e.Config, users, cleanup, leaderboard, e.Logger), nil
}

// leaderboard shares the server's redis cache when it is enabled, so CLI
// writes invalidate the list the server serves
func (e *Env) leaderboard(db *sql.DB) *services.LeaderboardService {
	return services.NewLeaderboardServiceWithLogger(db, e.leaderboardCache(), e.Logger)
}

func (e *Env) leaderboardCache() services.LeaderboardCache {
	if !e.Config.Redis.Enabled {
		return nil
	}
	if e.redis == nil {
		e.redis = services.NewRedisClient(e.Config.Redis)
	}
	return services.NewRedisLeaderboardCache(e.redis, e.Config.Redis.LeaderboardTTL)
}

// Close releases the pool and the redis client when they were opened
func (e *Env) Close() error {
	var errs []error
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
		e.redis = nil
	}
	if e.db != nil {
		errs = append(errs, e.db.Close())
		e.db = nil
	}
	return errors.Join(errs...)
}
