package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	app.InitLogger(cfg, os.Stdout)

	logger.Info("Starting storefront migration server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	})

	migrator, err := app.NewMigrator(cfg)
	if err != nil {
		logger.Fatal("Invalid migration configuration", err)
	}

	migrationService, cleanup, err := app.NewMigrationService(cfg, migrator)
	if err != nil {
		logger.Fatal("Failed to initialize migration service", err)
	}
	defer cleanup()

	migrationController := controller.NewMigrationController(migrationService)

	var authMiddleware *middleware.AuthMiddleware
	if cfg.JWT.Secret != "" {
		authMiddleware = middleware.NewAuthMiddleware(cfg.JWT.Secret)
	} else {
		logger.Warn("JWT_SECRET not set, migrate endpoint is unauthenticated", nil)
	}

	engine := router.NewRouter(migrationController, authMiddleware, cfg).Setup()

	var migrationScheduler *scheduler.MigrationScheduler
	if cfg.Migration.Schedule != "" {
		migrationScheduler = scheduler.NewMigrationScheduler(cfg.Migration.Schedule, migrationService)
		if err := migrationScheduler.Start(); err != nil {
			logger.Fatal("Failed to start migration scheduler", err)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	if migrationScheduler != nil {
		migrationScheduler.Stop()
	}

	// a migration triggered over HTTP may still be writing
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
