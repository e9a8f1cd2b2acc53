// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"codetech/internal/auth"
	"codetech/internal/config"
	"codetech/internal/database"
	"codetech/internal/handlers"
	"codetech/internal/observability"
	"codetech/internal/services"
	"codetech/internal/services/mailer"
	contextutils "codetech/internal/utils"

	"gorm.io/gorm"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetUserService() (services.UserServiceInterface, error)
	GetContentService() (services.ContentServiceInterface, error)
	GetProgressService() (services.ProgressServiceInterface, error)
	GetStatsService() (services.StatsServiceInterface, error)
	GetLeaderboardService() (services.LeaderboardServiceInterface, error)
	GetAdminService() (services.AdminServiceInterface, error)
	GetCleanupService() (services.CleanupServiceInterface, error)
	GetGoalService() (services.GoalServiceInterface, error)
	GetChallengeService() (services.ChallengeServiceInterface, error)
	GetTokenService() (auth.TokenServiceInterface, error)
	GetMailer() (mailer.Mailer, error)
	RouterServices() (handlers.RouterServices, error)
	GetDatabase() *sql.DB
	GetGorm() *gorm.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	EnsureAdminUser(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	gormDB        *gorm.DB
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize opens the database, applies migrations when enabled and builds every service
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDB(ctx, sc.cfg.Database)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	gormDB, err := database.OpenGorm(db, sc.logger)
	if err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize gorm")
	}
	sc.gormDB = gormDB

	sc.initializeServices(ctx)
	return nil
}

// InitializeWithDB builds every service on an existing pool. The caller keeps ownership of db.
func (sc *ServiceContainer) InitializeWithDB(ctx context.Context, db *sql.DB) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	gormDB, err := database.OpenGorm(db, sc.logger)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize gorm")
	}
	sc.db = db
	sc.gormDB = gormDB
	sc.initializeServices(ctx)
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (services.UserServiceInterface, error) {
	return GetServiceAs[services.UserServiceInterface](sc, "user")
}

// GetContentService returns the content service
func (sc *ServiceContainer) GetContentService() (services.ContentServiceInterface, error) {
	return GetServiceAs[services.ContentServiceInterface](sc, "content")
}

// GetProgressService returns the progress service
func (sc *ServiceContainer) GetProgressService() (services.ProgressServiceInterface, error) {
	return GetServiceAs[services.ProgressServiceInterface](sc, "progress")
}

// GetStatsService returns the stats service
func (sc *ServiceContainer) GetStatsService() (services.StatsServiceInterface, error) {
	return GetServiceAs[services.StatsServiceInterface](sc, "stats")
}

// GetLeaderboardService returns the leaderboard service
func (sc *ServiceContainer) GetLeaderboardService() (services.LeaderboardServiceInterface, error) {
	return GetServiceAs[services.LeaderboardServiceInterface](sc, "leaderboard")
}

// GetAdminService returns the admin service
func (sc *ServiceContainer) GetAdminService() (services.AdminServiceInterface, error) {
	return GetServiceAs[services.AdminServiceInterface](sc, "admin")
}

// GetCleanupService returns the cleanup service
func (sc *ServiceContainer) GetCleanupService() (services.CleanupServiceInterface, error) {
	return GetServiceAs[services.CleanupServiceInterface](sc, "cleanup")
}

// GetGoalService returns the goal service
func (sc *ServiceContainer) GetGoalService() (services.GoalServiceInterface, error) {
	return GetServiceAs[services.GoalServiceInterface](sc, "goal")
}

// GetChallengeService returns the challenge service
func (sc *ServiceContainer) GetChallengeService() (services.ChallengeServiceInterface, error) {
	return GetServiceAs[services.ChallengeServiceInterface](sc, "challenge")
}

// GetTokenService returns the bearer token service
func (sc *ServiceContainer) GetTokenService() (auth.TokenServiceInterface, error) {
	return GetServiceAs[auth.TokenServiceInterface](sc, "tokens")
}

// GetMailer returns the e-mail sender
func (sc *ServiceContainer) GetMailer() (mailer.Mailer, error) {
	return GetServiceAs[mailer.Mailer](sc, "email")
}

// RouterServices collects the services the HTTP router needs
func (sc *ServiceContainer) RouterServices() (result handlers.RouterServices, err error) {
	if result.Users, err = sc.GetUserService(); err != nil {
		return result, err
	}
	if result.Content, err = sc.GetContentService(); err != nil {
		return result, err
	}
	if result.Progress, err = sc.GetProgressService(); err != nil {
		return result, err
	}
	if result.Stats, err = sc.GetStatsService(); err != nil {
		return result, err
	}
	if result.Leaderboard, err = sc.GetLeaderboardService(); err != nil {
		return result, err
	}
	if result.Admin, err = sc.GetAdminService(); err != nil {
		return result, err
	}
	if result.Goals, err = sc.GetGoalService(); err != nil {
		return result, err
	}
	if result.Challenges, err = sc.GetChallengeService(); err != nil {
		return result, err
	}
	if result.Tokens, err = sc.GetTokenService(); err != nil {
		return result, err
	}
	return result, nil
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetGorm returns the gorm session over the same pool
func (sc *ServiceContainer) GetGorm() *gorm.DB {
	return sc.gormDB
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs the shutdown functions in reverse order of registration
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}

// leaderboardCache returns the redis cache when enabled. An unreachable
// server is logged and kept: every cache error falls back to the database.
func (sc *ServiceContainer) leaderboardCache(ctx context.Context) services.LeaderboardCache {
	if !sc.cfg.Redis.Enabled {
		return nil
	}

	client := services.NewRedisClient(sc.cfg.Redis)
	if err := client.Ping(ctx).Err(); err != nil {
		sc.logger.Warn(ctx, "Redis unreachable, leaderboard will be computed from the database", map[string]interface{}{
			"addr":  sc.cfg.Redis.Addr,
			"error": err.Error(),
		})
	}
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return client.Close()
	})
	return services.NewRedisLeaderboardCache(client, sc.cfg.Redis.LeaderboardTTL)
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(ctx context.Context) {
	leaderboardService := services.NewLeaderboardServiceWithLogger(sc.db, sc.leaderboardCache(ctx), sc.logger)
	sc.services["leaderboard"] = leaderboardService

	// Signups and progress writes invalidate the leaderboard
	userService := services.NewUserServiceWithLogger(sc.db, sc.cfg, leaderboardService, sc.logger)
	sc.services["user"] = userService

	contentService := services.NewContentServiceWithLogger(sc.gormDB, sc.logger)
	sc.services["content"] = contentService

	progressService := services.NewProgressServiceWithLogger(sc.db, contentService, leaderboardService, sc.logger)
	sc.services["progress"] = progressService

	sc.services["stats"] = services.NewStatsServiceWithLogger(sc.db, sc.logger)

	cleanupService := services.NewCleanupServiceWithLogger(sc.db, sc.logger)
	sc.services["cleanup"] = cleanupService

	sc.services["admin"] = services.NewAdminServiceWithLogger(sc.db, sc.cfg, userService, cleanupService, leaderboardService, sc.logger)
	sc.services["goal"] = services.NewGoalServiceWithLogger(sc.db, sc.logger)

	emailService := services.CreateEmailService(sc.cfg, sc.logger)
	sc.services["email"] = emailService
	sc.services["challenge"] = services.NewChallengeServiceWithLogger(sc.db, emailService, sc.logger)

	sc.services["tokens"] = auth.NewTokenService(sc.cfg.Auth.JWTSecret, sc.cfg.Auth.TokenTTL)
}

// EnsureAdminUser creates the seed administrator if it doesn't exist
func (sc *ServiceContainer) EnsureAdminUser(ctx context.Context) error {
	userService, err := sc.GetUserService()
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to get user service")
	}

	return userService.EnsureAdminUserExists(ctx, sc.cfg.Auth.SeedAdminEmail, sc.cfg.Auth.SeedAdminPassword, sc.cfg.Auth.SeedAdminName)
}
