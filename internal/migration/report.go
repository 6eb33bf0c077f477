package migration

import (
	"fmt"
	"sort"
	"time"
)

// TableReport accumulates the outcome of one table.
type TableReport struct {
	Source         string         `json:"source"`
	Target         string         `json:"target"`
	ResultKey      string         `json:"result_key"`
	Read           int            `json:"read"`
	Written        int            `json:"written"`
	Failed         int            `json:"failed"`
	QueryError     string         `json:"query_error,omitempty"`
	Errors         []string       `json:"errors"`
	FailuresByKind map[string]int `json:"failures_by_kind,omitempty"`
}

// Report is the result of one run. It is owned by the Migrator until Run returns.
type Report struct {
	RunID              string                        `json:"run_id"`
	State              State                         `json:"state"`
	ResetBeforeMigrate bool                          `json:"reset_before_migrate"`
	StartedAt          time.Time                     `json:"started_at"`
	FinishedAt         time.Time                     `json:"finished_at"`
	Tables             []*TableReport                `json:"tables"`
	Errors             []string                      `json:"errors"`
	Verification       map[string]VerificationResult `json:"verification,omitempty"`
	Failure            string                        `json:"failure,omitempty"`
}

func newReport(runID string, reset bool) *Report {
	return &Report{
		RunID:              runID,
		State:              StateIdle,
		ResetBeforeMigrate: reset,
		StartedAt:          time.Now(),
		Errors:             []string{},
	}
}

func (r *Report) addTable(spec TableSpec) *TableReport {
	tr := &TableReport{
		Source:    spec.Source,
		Target:    spec.Target,
		ResultKey: spec.ResultKey,
		Errors:    []string{},
	}
	r.Tables = append(r.Tables, tr)
	return tr
}

func (r *Report) addError(tr *TableReport, msg string) {
	if tr != nil {
		tr.Errors = append(tr.Errors, msg)
	}
	r.Errors = append(r.Errors, msg)
}

// Table returns the report of a source or destination table.
func (r *Report) Table(name string) *TableReport {
	for _, tr := range r.Tables {
		if tr.Source == name || tr.Target == name {
			return tr
		}
	}
	return nil
}

// Success is reported at run level: row failures do not make a run unsuccessful.
func (r *Report) Success() bool {
	return r.State == StateDone
}

// FullyVerified reports a clean run: no row errors and every count matched.
func (r *Report) FullyVerified() bool {
	if !r.Success() || len(r.Errors) > 0 {
		return false
	}
	for _, result := range r.Verification {
		if !result.Matched {
			return false
		}
	}
	return true
}

// Mismatches lists destination tables whose count differs from the origin.
func (r *Report) Mismatches() []string {
	var tables []string
	for table, result := range r.Verification {
		if !result.Matched {
			tables = append(tables, table)
		}
	}
	sort.Strings(tables)
	return tables
}

// Results is the summary object returned by the HTTP trigger:
// written counts per table plus the flat error list.
func (r *Report) Results() map[string]interface{} {
	results := make(map[string]interface{}, len(r.Tables)+1)
	for _, tr := range r.Tables {
		results[tr.ResultKey] = tr.Written
	}
	results["errors"] = r.Errors
	return results
}

// Message summarizes the run in one line.
func (r *Report) Message() string {
	switch {
	case r.State == StateFailed:
		return fmt.Sprintf("Migration failed: %s", r.Failure)
	case len(r.Errors) > 0:
		return fmt.Sprintf("Migration completed with %d errors", len(r.Errors))
	case len(r.Mismatches()) > 0:
		return fmt.Sprintf("Migration completed, row counts differ for: %v", r.Mismatches())
	default:
		return "Migration completed successfully"
	}
}
