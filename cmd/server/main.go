// Package main provides the main entry point for the CodeTech backend server.
// It sets up the HTTP server, database connections, middleware, and API routes.
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
	"codetech/internal/seed"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
)

// Application encapsulates the main application logic and can be tested
type Application struct {
	container di.ServiceContainerInterface
	router    *gin.Engine
	server    *http.Server
}

// NewApplication creates a new application instance
func NewApplication(container di.ServiceContainerInterface) (*Application, error) {
	svc, err := container.RouterServices()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to resolve router services")
	}

	schemas, err := middleware.LoadRequestSchemas()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load request schemas")
	}

	cfg := container.GetConfig()
	router := handlers.NewRouter(cfg, svc, schemas, container.GetLogger())

	return &Application{
		container: container,
		router:    router,
		server: &http.Server{
			Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Run serves HTTP until the server is shut down
func (a *Application) Run() error {
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return contextutils.WrapError(err, "server failed")
	}
	return nil
}

// Shutdown drains in-flight requests and releases container resources
func (a *Application) Shutdown(ctx context.Context) error {
	serverErr := a.server.Shutdown(ctx)
	return errors.Join(serverErr, a.container.Shutdown(ctx))
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	providers, err := observability.SetupObservability(&cfg.OpenTelemetry, "", cfg.Server.LogLevel)
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

	logger.Info(ctx, "Starting CodeTech backend", map[string]interface{}{
		"host":     cfg.Server.Host,
		"port":     cfg.Server.Port,
		"logLevel": cfg.Server.LogLevel,
	})

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err, nil)
		os.Exit(1)
	}

	if cfg.Server.SeedContent {
		result, err := seed.NewSeeder(container.GetGorm(), logger).SeedEmbedded(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to seed content", err, nil)
			os.Exit(1)
		}
		logger.Info(ctx, "Seeded content", map[string]interface{}{
			"subjects":  result.Subjects,
			"levels":    result.Levels,
			"quizzes":   result.Quizzes,
			"questions": result.Questions,
		})
	}

	if err := container.EnsureAdminUser(ctx); err != nil {
		logger.Error(ctx, "Failed to ensure admin user exists", err, map[string]interface{}{
			"admin_email": contextutils.MaskEmail(cfg.Auth.SeedAdminEmail),
		})
		os.Exit(1)
	}

	app, err := NewApplication(container)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err, nil)
		os.Exit(1)
	}

	appErr := make(chan error, 1)
	go func() {
		if err := app.Run(); err != nil {
			appErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully", nil)
	case err := <-appErr:
		logger.Error(ctx, "Application failed", err, nil)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err, nil)
		os.Exit(1)
	}

	logger.Info(ctx, "Shutdown completed successfully", nil)
}
