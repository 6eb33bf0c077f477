package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// Runs one migration with configuration from the environment and prints the
// summary as JSON. Exits 1 when the run could not start or connect.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", err)
		return 1
	}
	// stdout carries the summary
	app.InitLogger(cfg, os.Stderr)

	migrator, err := app.NewMigrator(cfg)
	if err != nil {
		logger.Error("Invalid migration configuration", err)
		return 1
	}

	migrationService, cleanup, err := app.NewMigrationService(cfg, migrator)
	if err != nil {
		logger.Error("Failed to initialize migration service", err)
		return 1
	}
	defer cleanup()

	// A started run is not interruptible.
	report, err := migrationService.Migrate(context.Background())
	if err != nil {
		logger.Error("Migration did not complete", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]interface{}{
		"success": report.Success(),
		"message": report.Message(),
		"results": report.Results(),
	}); err != nil {
		logger.Error("Failed to write summary", err)
		return 1
	}
	return 0
}
