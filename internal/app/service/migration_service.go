package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

var (
	ErrMigrationInProgress = errors.New("a migration is already running")
)

// Runner performs one migration run. *migration.Migrator implements it.
type Runner interface {
	Run(ctx context.Context) (*migration.Report, error)
}

// Locker guards a run across processes. pkg/redis.RunLock implements it.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// ReportArchiver stores the JSON report of a finished run.
type ReportArchiver interface {
	PutReport(ctx context.Context, key string, body []byte) error
}

// ReportExporter writes a report somewhere outside the process, e.g. a spreadsheet.
type ReportExporter func(report *migration.Report) error

// MigrationService runs migrations one at a time and remembers the last result.
type MigrationService interface {
	Migrate(ctx context.Context) (*migration.Report, error)
	LastReport() *migration.Report
}

type migrationService struct {
	runner   Runner
	locker   Locker
	archiver ReportArchiver
	exporter ReportExporter

	running atomic.Bool
	mu      sync.RWMutex
	last    *migration.Report
}

// MigrationServiceOption configures optional collaborators.
type MigrationServiceOption func(*migrationService)

func WithLocker(l Locker) MigrationServiceOption {
	return func(s *migrationService) { s.locker = l }
}

func WithArchiver(a ReportArchiver) MigrationServiceOption {
	return func(s *migrationService) { s.archiver = a }
}

func WithExporter(e ReportExporter) MigrationServiceOption {
	return func(s *migrationService) { s.exporter = e }
}

func NewMigrationService(runner Runner, opts ...MigrationServiceOption) MigrationService {
	s := &migrationService{runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate runs the migration unless one is already running here or, with a
// shared locker, on another instance. Once started, a run is not cancelled by
// ctx; it always goes to completion.
func (s *migrationService) Migrate(ctx context.Context) (*migration.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("Migration rejected, one is already running", nil)
		return nil, ErrMigrationInProgress
	}
	defer s.running.Store(false)

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !ok {
			logger.Warn("Migration rejected, lock held by another instance", nil)
			return nil, ErrMigrationInProgress
		}
		defer func() {
			if err := s.locker.Unlock(context.Background()); err != nil {
				logger.Error("Failed to release run lock", err)
			}
		}()
	}

	runCtx := context.WithoutCancel(ctx)
	report, err := s.runner.Run(runCtx)
	if report != nil {
		s.mu.Lock()
		s.last = report
		s.mu.Unlock()

		s.archive(runCtx, report)
		s.export(report)
	}
	return report, err
}

func (s *migrationService) LastReport() *migration.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// archive failures are logged only; the run result stands.
func (s *migrationService) archive(ctx context.Context, report *migration.Report) {
	if s.archiver == nil {
		return
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("Failed to encode migration report", err)
		return
	}

	key := fmt.Sprintf("%s/%s.json", report.StartedAt.UTC().Format("2006-01-02"), report.RunID)
	if err := s.archiver.PutReport(ctx, key, buf.Bytes()); err != nil {
		logger.Error("Failed to archive migration report", err, map[string]interface{}{
			"run_id": report.RunID,
			"key":    key,
		})
		return
	}
	logger.Info("Migration report archived", map[string]interface{}{
		"run_id": report.RunID,
		"key":    key,
	})
}

func (s *migrationService) export(report *migration.Report) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter(report); err != nil {
		logger.Error("Failed to export migration report", err, map[string]interface{}{
			"run_id": report.RunID,
		})
	}
}
