package scheduler

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// MigrationScheduler re-runs the migration on a cron schedule.
type MigrationScheduler struct {
	cron             *cron.Cron
	spec             string
	migrationService service.MigrationService
}

func NewMigrationScheduler(spec string, migrationService service.MigrationService) *MigrationScheduler {
	return &MigrationScheduler{
		cron:             cron.New(),
		spec:             spec,
		migrationService: migrationService,
	}
}

// Start registers the job and starts the cron loop.
func (s *MigrationScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		logger.Error("Failed to add cron job for migration", err, map[string]interface{}{
			"schedule": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Migration scheduler started", map[string]interface{}{
		"schedule": s.spec,
	})
	return nil
}

func (s *MigrationScheduler) runOnce() {
	fields := map[string]interface{}{}
	if last := s.migrationService.LastReport(); last != nil {
		fields["previous_run_id"] = last.RunID
		fields["previous_state"] = string(last.State)
		fields["previous_errors"] = len(last.Errors)
	}
	logger.Info("Starting scheduled migration", fields)

	report, err := s.migrationService.Migrate(context.Background())
	if errors.Is(err, service.ErrMigrationInProgress) {
		logger.Warn("Skipping scheduled migration, one is already running", nil)
		return
	}
	if err != nil {
		logger.Error("Scheduled migration failed", err)
		return
	}

	logger.Info("Scheduled migration finished", map[string]interface{}{
		"run_id":  report.RunID,
		"message": report.Message(),
	})
}

// Stop waits for a running job to finish.
func (s *MigrationScheduler) Stop() {
	logger.Info("Stopping migration scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Migration scheduler stopped", nil)
}
