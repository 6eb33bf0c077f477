package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// Options configures a Migrator.
type Options struct {
	// Plan defaults to DefaultPlan.
	Plan []TableSpec
	// ResetBeforeMigrate clears destination tables, children first, before copying.
	ResetBeforeMigrate bool
}

// Migrator copies the planned tables from the origin to the destination.
// Tables and rows are processed one at a time, in plan order.
type Migrator struct {
	openSource SourceOpener
	openTarget TargetOpener
	plan       []TableSpec
	reset      bool
}

func New(openSource SourceOpener, openTarget TargetOpener, opts Options) (*Migrator, error) {
	if openSource == nil || openTarget == nil {
		return nil, errors.New("source and target openers are required")
	}
	plan := opts.Plan
	if plan == nil {
		plan = DefaultPlan()
	}
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	return &Migrator{
		openSource: openSource,
		openTarget: openTarget,
		plan:       plan,
		reset:      opts.ResetBeforeMigrate,
	}, nil
}

// run holds the per-invocation state so a Migrator can be reused.
type run struct {
	report *Report
	log    *logger.Logger
}

func (r *run) transition(state State, table string) {
	r.report.State = state
	fields := map[string]interface{}{"state": string(state)}
	if table != "" {
		fields["table"] = table
	}
	if state.Terminal() {
		r.log.Info("Migration state changed", fields)
		return
	}
	r.log.Debug("Migration state changed", fields)
}

func (r *run) fail(err error) (*Report, error) {
	r.report.Failure = err.Error()
	r.report.FinishedAt = time.Now()
	r.transition(StateFailed, "")
	r.log.Error("Migration aborted", err)
	return r.report, err
}

// Run performs one migration. The returned error is non-nil only for a
// connection-level fault; row and table faults are in the report.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	r := &run{report: newReport(uuid.New().String(), m.reset)}
	r.log = logger.WithContext(map[string]interface{}{"run_id": r.report.RunID})
	r.log.Info("Starting migration", map[string]interface{}{
		"tables":               len(m.plan),
		"reset_before_migrate": m.reset,
	})

	r.transition(StateConnecting, "")
	source, err := m.openSource(ctx)
	if err != nil {
		return r.fail(&ConnectionError{Store: StoreOrigin, Err: err})
	}
	defer closeConnector(r.log, StoreOrigin, source.Close)

	target, err := m.openTarget(ctx)
	if err != nil {
		return r.fail(&ConnectionError{Store: StoreDestination, Err: err})
	}
	defer closeConnector(r.log, StoreDestination, target.Close)

	if m.reset {
		m.clear(ctx, r, target)
	}

	expected := make([]TableCount, 0, len(m.plan))
	for _, spec := range m.plan {
		if count, ok := m.migrateTable(ctx, r, source, target, spec); ok {
			expected = append(expected, TableCount{Table: spec.Target, Count: count})
		}
	}

	r.transition(StateVerifying, "")
	r.report.Verification = Verify(ctx, target, expected)
	for _, table := range r.report.Mismatches() {
		result := r.report.Verification[table]
		r.log.Warn("Row count mismatch", map[string]interface{}{
			"table":    table,
			"expected": result.Expected,
			"actual":   result.Actual,
			"error":    result.Error,
		})
	}

	r.report.FinishedAt = time.Now()
	r.transition(StateDone, "")
	r.log.Info("Migration finished", map[string]interface{}{
		"errors":         len(r.report.Errors),
		"fully_verified": r.report.FullyVerified(),
		"duration":       r.report.FinishedAt.Sub(r.report.StartedAt).String(),
	})
	return r.report, nil
}

// clear empties destination tables in reverse plan order so children go first.
func (m *Migrator) clear(ctx context.Context, r *run, target Target) {
	for i := len(m.plan) - 1; i >= 0; i-- {
		spec := m.plan[i]
		r.transition(StateClearing, spec.Target)
		if err := target.Clear(ctx, spec.Target, spec.Key); err != nil {
			r.report.addError(nil, fmt.Sprintf("failed to clear %s: %v", spec.Target, err))
			r.log.Error("Failed to clear destination table", err, map[string]interface{}{
				"table": spec.Target,
			})
		}
	}
}

// migrateTable copies one table and returns the origin row count, or false when
// the table could not be read.
func (m *Migrator) migrateTable(ctx context.Context, r *run, source Source, target Target, spec TableSpec) (int64, bool) {
	tr := r.report.addTable(spec)

	r.transition(StateReading, spec.Source)
	rows, err := source.Rows(ctx, spec.Source, spec.Key)
	if err != nil {
		var queryErr *QueryError
		if !errors.As(err, &queryErr) {
			queryErr = &QueryError{Table: spec.Source, Err: err}
		}
		tr.QueryError = queryErr.Error()
		r.report.addError(tr, queryErr.Error())
		r.log.Error("Failed to read origin table", err, map[string]interface{}{
			"table": spec.Source,
		})
		return 0, false
	}
	tr.Read = len(rows)

	r.transition(StateMapping, spec.Source)
	mapped := make([]Row, 0, len(rows))
	for i, row := range rows {
		out, err := MapRow(spec, i, row)
		if err != nil {
			tr.Failed++
			r.report.addError(tr, mappingMessage(spec, i, row, err))
			continue
		}
		mapped = append(mapped, out)
	}

	r.transition(StateWriting, spec.Target)
	for _, row := range mapped {
		key := row[spec.Key]
		if werr := target.Upsert(ctx, spec.Target, spec.Key, row); werr != nil {
			werr.Table = spec.Target
			werr.Key = key
			tr.Failed++
			if tr.FailuresByKind == nil {
				tr.FailuresByKind = make(map[string]int)
			}
			tr.FailuresByKind[werr.Kind]++
			r.report.addError(tr, fmt.Sprintf("%s %v: %s", spec.Label, key, werr.Message))
			r.log.Warn("Row write failed", map[string]interface{}{
				"table": spec.Target,
				"key":   key,
				"kind":  werr.Kind,
				"error": werr.Message,
			})
			continue
		}
		tr.Written++
	}

	if syncer, ok := target.(SequenceSyncer); ok && tr.Written > 0 {
		if err := syncer.SyncSequence(ctx, spec.Target, spec.Key); err != nil {
			r.log.Warn("Failed to sync key sequence", map[string]interface{}{
				"table": spec.Target,
				"key":   spec.Key,
				"error": err.Error(),
			})
		}
	}

	r.log.Info("Table migrated", map[string]interface{}{
		"source":  spec.Source,
		"target":  spec.Target,
		"read":    tr.Read,
		"written": tr.Written,
		"failed":  tr.Failed,
	})
	return int64(tr.Read), true
}

func mappingMessage(spec TableSpec, index int, row Row, err error) string {
	var mapErr *MappingError
	reason := err.Error()
	if errors.As(err, &mapErr) {
		reason = mapErr.Reason
		if mapErr.Field != "" {
			reason = mapErr.Field + " " + reason
		}
	}
	if hasValue(row, spec.Key) {
		return fmt.Sprintf("%s %v: %s", spec.Label, row[spec.Key], reason)
	}
	return fmt.Sprintf("%s row %d: %s", spec.Label, index, reason)
}

func closeConnector(log *logger.Logger, store string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("Failed to close connection", err, map[string]interface{}{
			"store": store,
		})
	}
}
