package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	ServerShutdownTimeout = 30 * time.Second
	HealthPingTimeout     = 5 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Worker timeouts
	WorkerShutdownTimeout = 30 * time.Second
	WorkerJobTimeout      = 10 * time.Minute
)

// WorkerMaxHistory bounds the number of run records the worker keeps in memory
const WorkerMaxHistory = 100

// Auth defaults
const (
	DefaultTokenTTL = 24 * time.Hour

	DefaultSeedAdminEmail    = "AdminIbra@gmail.com"
	DefaultSeedAdminPassword = "IbraGold@1"
	DefaultSeedAdminName     = "IbraGold"
)

// Worker schedules, in robfig/cron standard five-field syntax
const (
	DefaultRepairSchedule      = "15 3 * * *"
	DefaultCleanupSchedule     = "45 3 * * *"
	DefaultLeaderboardSchedule = "*/10 * * * *"
)

// Cache constants
const (
	DefaultLeaderboardTTL = 10 * time.Minute
	LeaderboardCacheKey   = "leaderboard:all"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:;"
)

// Domain constants
const (
	// PointsPerCompletedLevel is awarded for every completed level on top of its recorded score.
	PointsPerCompletedLevel = 10
	// StreakLookbackDays bounds how far back the streak walk looks.
	StreakLookbackDays = 100
	// RecentActivityLimit is the number of activities returned by activity feeds.
	RecentActivityLimit = 10
	// CompletedQuizActionPrefix marks activities that represent a scored completion.
	CompletedQuizActionPrefix = "Completed Quiz"
)
