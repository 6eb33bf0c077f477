package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Loads a workbook into the origin database so a migration can be rehearsed
// locally. Each sheet is named after an origin table and its first row holds
// the column names.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}
	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.Migration.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(context.Background(), migration.StoreOrigin, cfg.Migration.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close(conn)

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	sheets, err := readWorkbook(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	for _, sheet := range sheets {
		fmt.Printf("  %s: %d rows\n", sheet.table, len(sheet.rows))
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	total, err := seedTables(conn, sheets, 500)
	if err != nil {
		log.Fatal("Failed to seed origin tables:", err)
	}
	fmt.Printf("Import completed successfully! Total rows imported: %d\n", total)
}

type sheetRows struct {
	table   string
	columns []string
	rows    [][]string
}

// readWorkbook returns the sheets whose names are planned origin tables, in
// plan order so parents are inserted first. Other sheets are ignored.
func readWorkbook(filePath string) ([]sheetRows, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	var sheets []sheetRows
	for _, spec := range migration.DefaultPlan() {
		if !present[spec.Source] {
			continue
		}
		rows, err := f.GetRows(spec.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", spec.Source, err)
		}
		if len(rows) == 0 {
			continue
		}

		columns := make([]string, len(rows[0]))
		for i, header := range rows[0] {
			columns[i] = strings.TrimSpace(header)
		}
		sheets = append(sheets, sheetRows{table: spec.Source, columns: columns, rows: rows[1:]})
	}

	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheet is named after an origin table")
	}
	return sheets, nil
}

// seedTables inserts every sheet, converting cells to the column types the
// database reports. Empty cells are stored as NULL.
func seedTables(conn *gorm.DB, sheets []sheetRows, batchSize int) (int, error) {
	total := 0
	for _, sheet := range sheets {
		types, err := columnTypes(conn, sheet.table)
		if err != nil {
			return total, err
		}

		records := make([]map[string]interface{}, 0, len(sheet.rows))
		for i, row := range sheet.rows {
			record := make(map[string]interface{}, len(sheet.columns))
			for c, column := range sheet.columns {
				if column == "" || c >= len(row) || strings.TrimSpace(row[c]) == "" {
					continue
				}
				value, err := convertCell(strings.TrimSpace(row[c]), types[strings.ToLower(column)])
				if err != nil {
					return total, fmt.Errorf("%s row %d column %s: %w", sheet.table, i+2, column, err)
				}
				record[column] = value
			}
			if len(record) > 0 {
				records = append(records, record)
			}
		}
		if len(records) == 0 {
			continue
		}

		if err := conn.Table(sheet.table).CreateInBatches(records, batchSize).Error; err != nil {
			return total, fmt.Errorf("failed to insert into %s: %w", sheet.table, err)
		}
		total += len(records)
		fmt.Printf("Imported %d rows into %s\n", len(records), sheet.table)
	}
	return total, nil
}

func columnTypes(conn *gorm.DB, table string) (map[string]string, error) {
	cols, err := conn.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	types := make(map[string]string, len(cols))
	for _, col := range cols {
		types[strings.ToLower(col.Name())] = strings.ToLower(col.DatabaseTypeName())
	}
	return types, nil
}

func convertCell(value, dbType string) (interface{}, error) {
	switch {
	case strings.Contains(dbType, "int"):
		return strconv.ParseInt(value, 10, 64)
	case strings.Contains(dbType, "real"), strings.Contains(dbType, "float"),
		strings.Contains(dbType, "double"), strings.Contains(dbType, "numeric"),
		strings.Contains(dbType, "decimal"):
		return strconv.ParseFloat(value, 64)
	case strings.Contains(dbType, "bool"):
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}
