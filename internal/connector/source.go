package connector

import (
	"context"
	"fmt"

	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSource reads origin tables through gorm.
type GormSource struct {
	db *gorm.DB
}

func NewGormSource(conn *gorm.DB) *GormSource {
	return &GormSource{db: conn}
}

// OpenPostgresSource returns an opener for the origin database at dsn.
func OpenPostgresSource(dsn string) migration.SourceOpener {
	return func(ctx context.Context) (migration.Source, error) {
		conn, err := db.Open(ctx, migration.StoreOrigin, dsn)
		if err != nil {
			return nil, err
		}
		return NewGormSource(conn), nil
	}
}

// Rows runs SELECT * FROM table ORDER BY orderBy. One attempt, no retry.
// A missing table surfaces as the driver's own error inside the QueryError.
func (s *GormSource) Rows(ctx context.Context, table, orderBy string) ([]migration.Row, error) {
	if table == "" {
		return nil, &migration.QueryError{Table: table, Err: fmt.Errorf("table name cannot be empty")}
	}

	var records []map[string]interface{}
	err := s.db.WithContext(ctx).Table(table).
		Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}}).
		Find(&records).Error
	if err != nil {
		return nil, &migration.QueryError{Table: table, Err: err}
	}

	rows := make([]migration.Row, len(records))
	for i, record := range records {
		rows[i] = normalizeRow(record)
	}

	logger.Debug("Fetched origin rows", map[string]interface{}{
		"table": table,
		"rows":  len(rows),
	})
	return rows, nil
}

func (s *GormSource) Close() error {
	return db.Close(s.db)
}

// normalizeRow turns driver byte slices into strings so they travel as text.
func normalizeRow(record map[string]interface{}) migration.Row {
	row := make(migration.Row, len(record))
	for column, value := range record {
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		row[column] = value
	}
	return row
}
