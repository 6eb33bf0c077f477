package export

import (
	"fmt"

	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	ErrorsSheet  = "Errors"
)

var summaryHeader = []interface{}{"Source", "Target", "Read", "Written", "Failed", "Expected", "Actual", "Matched", "Query error"}

// WriteReportXLSX saves a report as a workbook with a per-table summary sheet
// and a sheet listing every row error.
func WriteReportXLSX(report *migration.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ErrorsSheet); err != nil {
		return fmt.Errorf("failed to create errors sheet: %w", err)
	}

	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return err
	}
	for i, tr := range report.Tables {
		row := []interface{}{tr.Source, tr.Target, tr.Read, tr.Written, tr.Failed}
		if result, ok := report.Verification[tr.Target]; ok {
			row = append(row, result.Expected, result.Actual, result.Matched)
		} else {
			row = append(row, "", "", "")
		}
		row = append(row, tr.QueryError)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetSheetRow(ErrorsSheet, "A1", &[]interface{}{"Table", "Message"}); err != nil {
		return err
	}
	line := 2
	for _, tr := range report.Tables {
		for _, msg := range tr.Errors {
			cell, _ := excelize.CoordinatesToCellName(1, line)
			if err := f.SetSheetRow(ErrorsSheet, cell, &[]interface{}{tr.Target, msg}); err != nil {
				return err
			}
			line++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report workbook: %w", err)
	}
	return nil
}
