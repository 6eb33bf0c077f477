package connector

import (
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// FromConfig picks the origin and destination openers for cfg. The destination
// is reached over Postgres when a database password is set, otherwise through
// the REST API with the configured key.
func FromConfig(cfg *config.MigrationConfig) (migration.SourceOpener, migration.TargetOpener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	openSource := OpenPostgresSource(cfg.DatabaseURL)

	if cfg.UseDirectConnection() {
		dsn, err := cfg.DestinationDSN()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using direct database connection for destination", nil)
		return openSource, OpenPostgresTarget(dsn), nil
	}

	if cfg.SupabaseKeyKind == "anon" {
		logger.Warn("Using anon key for destination, row level security may reject writes", nil)
	}
	logger.Info("Using REST API for destination", map[string]interface{}{
		"key_kind": cfg.SupabaseKeyKind,
	})
	return openSource, OpenRESTTarget(cfg.SupabaseURL, cfg.SupabaseKey, cfg.HTTPTimeout), nil
}
