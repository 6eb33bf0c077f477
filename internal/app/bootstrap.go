package app

import (
	"io"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/connector"
	"github.com/ikkim/storefront-backend/internal/export"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/redis"
)

const runLockKey = "storefront:migration:lock"

// InitLogger sets up the global logger from the server section. Without an
// explicit LOG_LEVEL, development logs at debug.
func InitLogger(cfg *config.Config, out io.Writer) {
	level := cfg.Server.LogLevel
	if level == "" {
		level = "info"
		if cfg.Server.Environment == "development" {
			level = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       level,
		Format:      cfg.Server.LogFormat,
		Output:      out,
		EnableColor: true,
	})
}

// NewMigrator validates the migration config and builds a Migrator over the
// configured stores.
func NewMigrator(cfg *config.Config) (*migration.Migrator, error) {
	openSource, openTarget, err := connector.FromConfig(&cfg.Migration)
	if err != nil {
		return nil, err
	}
	return migration.New(openSource, openTarget, migration.Options{
		ResetBeforeMigrate: cfg.Migration.ResetBeforeMigrate,
	})
}

// NewMigrationService wires the runner with whatever optional collaborators
// cfg enables. The returned cleanup closes shared connections.
func NewMigrationService(cfg *config.Config, runner service.Runner) (service.MigrationService, func(), error) {
	cleanup := func() {}
	var opts []service.MigrationServiceOption

	if cfg.Redis.URL != "" {
		if err := redis.Init(&cfg.Redis); err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}
		opts = append(opts, service.WithLocker(redis.NewRunLock(redis.GetClient(), runLockKey, cfg.Redis.LockTTL)))
	}

	if cfg.S3.Bucket != "" {
		opts = append(opts, service.WithArchiver(storage.NewS3Storage(storage.S3Options{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})))
	}

	if path := cfg.Migration.ReportXLSXPath; path != "" {
		opts = append(opts, service.WithExporter(func(r *migration.Report) error {
			return export.WriteReportXLSX(r, path)
		}))
	}

	return service.NewMigrationService(runner, opts...), cleanup, nil
}
