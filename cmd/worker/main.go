// Package main provides the entry point for the CodeTech worker service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"codetech/internal/config"
	"codetech/internal/di"
	"codetech/internal/handlers"
	"codetech/internal/middleware"
	"codetech/internal/observability"
	"codetech/internal/version"
	"codetech/internal/worker"

	"github.com/gin-gonic/gin"
)

const serviceName = "codetech-worker"

// fatalIfErr logs the error with context and exits
func fatalIfErr(ctx context.Context, logger *observability.Logger, msg string, err error, fields map[string]interface{}) {
	logger.Error(ctx, msg, err, fields)
	os.Exit(1)
}

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	providers, err := observability.SetupObservability(&cfg.OpenTelemetry, serviceName, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	logger := providers.Logger
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), config.HealthPingTimeout)
		defer flushCancel()
		if err := providers.Shutdown(flushCtx); err != nil {
			logger.Warn(ctx, "Error shutting down telemetry providers", map[string]interface{}{"error": err.Error()})
		}
	}()

	logger.Info(ctx, "Starting CodeTech worker service", map[string]interface{}{
		"port":     cfg.Worker.Port,
		"logLevel": cfg.Server.LogLevel,
	})

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		fatalIfErr(ctx, logger, "Failed to initialize services", err, nil)
	}

	admin, err := container.GetAdminService()
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to resolve admin service", err, nil)
	}
	cleanup, err := container.GetCleanupService()
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to resolve cleanup service", err, nil)
	}
	leaderboard, err := container.GetLeaderboardService()
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to resolve leaderboard service", err, nil)
	}

	w := worker.NewWorker(admin, cleanup, leaderboard, cfg, logger)
	if err := w.Start(ctx); err != nil {
		fatalIfErr(ctx, logger, "Failed to start worker", err, nil)
	}

	router := newWorkerRouter(cfg, w, logger)
	srv := &http.Server{
		Addr:    ":" + cfg.Worker.Port,
		Handler: router,
	}

	go func() {
		logger.Info(ctx, "Worker server starting", map[string]interface{}{"port": cfg.Worker.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatalIfErr(ctx, logger, "Failed to start worker server", err, map[string]interface{}{"port": cfg.Worker.Port})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Worker server shutting down", map[string]interface{}{"service": "worker"})

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, config.WorkerShutdownTimeout)
	defer shutdownCancel()

	// Stop the scheduler first so no job starts during teardown
	if err := w.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Warning: failed to shutdown worker", map[string]interface{}{"error": err.Error(), "service": "worker"})
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Worker server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Failed to release worker resources", map[string]interface{}{"error": err.Error()})
	}

	logger.Info(ctx, "Worker server exited", map[string]interface{}{"service": "worker"})
}

func newWorkerRouter(cfg *config.Config, w *worker.Worker, logger *observability.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger))
	router.Use(middleware.RequestID())
	router.Use(observability.GinMiddleware(serviceName))
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		status := w.GetStatus()
		code := http.StatusOK
		state := "healthy"
		if !status.IsRunning {
			code = http.StatusServiceUnavailable
			state = "stopped"
		}
		c.JSON(code, gin.H{
			"status":     state,
			"service":    serviceName,
			"version":    version.Version,
			"commit":     version.Commit,
			"build_time": version.BuildTime,
			"worker":     status,
		})
	})

	router.GET("/history", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"runs": w.GetHistory()})
	})

	routeListing := handlers.NewRouteListingHandler("Worker")
	router.GET("/", routeListing.GetRouteListing)
	routeListing.CollectRoutes(router)

	return router
}
