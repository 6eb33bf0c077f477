package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/stretchr/testify/assert"
)

type countingService struct {
	calls     int
	lastCalls int
	last      *migration.Report
	err       error
}

func (s *countingService) Migrate(context.Context) (*migration.Report, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &migration.Report{State: migration.StateDone, Errors: []string{}}, nil
}

func (s *countingService) LastReport() *migration.Report {
	s.lastCalls++
	return s.last
}

func TestMigrationScheduler_InvalidSpec(t *testing.T) {
	s := NewMigrationScheduler("not a cron line", &countingService{})
	assert.Error(t, s.Start())
}

func TestMigrationScheduler_StartStop(t *testing.T) {
	s := NewMigrationScheduler("@every 1h", &countingService{})
	assert.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestMigrationScheduler_FirstRunHasNoPrevious(t *testing.T) {
	svc := &countingService{}
	NewMigrationScheduler("@hourly", svc).runOnce()
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, 1, svc.lastCalls)
}

func TestMigrationScheduler_RunOnce(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "Success"},
		{name: "Already running", err: service.ErrMigrationInProgress},
		{name: "Connection failure", err: &migration.ConnectionError{Store: migration.StoreDestination, Err: errors.New("timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &countingService{
				err:  tt.err,
				last: &migration.Report{RunID: "run-0", State: migration.StateDone, Errors: []string{"Brand 12: violates foreign key"}},
			}
			NewMigrationScheduler("@hourly", svc).runOnce()
			assert.Equal(t, 1, svc.calls)
			assert.Equal(t, 1, svc.lastCalls)
		})
	}
}
