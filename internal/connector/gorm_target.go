package connector

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/ikkim/storefront-backend/internal/db"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/migration"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTarget writes to the destination over a direct database connection.
type GormTarget struct {
	db *gorm.DB
}

func NewGormTarget(conn *gorm.DB) *GormTarget {
	return &GormTarget{db: conn}
}

// OpenPostgresTarget returns an opener for the destination database at dsn.
func OpenPostgresTarget(dsn string) migration.TargetOpener {
	return func(ctx context.Context) (migration.Target, error) {
		conn, err := db.Open(ctx, migration.StoreDestination, dsn)
		if err != nil {
			return nil, err
		}
		return NewGormTarget(conn), nil
	}
}

// Upsert runs INSERT ... ON CONFLICT (key) DO UPDATE SET col = EXCLUDED.col.
func (t *GormTarget) Upsert(ctx context.Context, table, key string, row migration.Row) *migration.WriteError {
	values := make(map[string]interface{}, len(row))
	updates := make([]string, 0, len(row))
	for column, value := range row {
		values[column] = value
		if column != key {
			updates = append(updates, column)
		}
	}
	sort.Strings(updates)

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: key}}}
	if len(updates) == 0 {
		onConflict.DoNothing = true
	} else {
		onConflict.DoUpdates = clause.AssignmentColumns(updates)
	}

	err := t.db.WithContext(ctx).Table(table).Clauses(onConflict).Create(values).Error
	if err != nil {
		return &migration.WriteError{
			Kind:    apperrors.ClassifyWriteError(err),
			Message: err.Error(),
		}
	}
	return nil
}

// Clear deletes every row whose key is set. The filter keeps the statement
// from being an unqualified DELETE.
func (t *GormTarget) Clear(ctx context.Context, table, key string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s IS NOT NULL", pq.QuoteIdentifier(table), pq.QuoteIdentifier(key))
	return t.db.WithContext(ctx).Exec(stmt).Error
}

// SyncSequence sets the serial or identity sequence behind table.key to
// MAX(key)+1. Keys without a sequence, and non-Postgres databases, are left alone.
func (t *GormTarget) SyncSequence(ctx context.Context, table, key string) error {
	if t.db.Dialector.Name() != "postgres" {
		return nil
	}
	conn := t.db.WithContext(ctx)

	var sequence sql.NullString
	if err := conn.Raw("SELECT pg_get_serial_sequence(?, ?)", pq.QuoteIdentifier(table), key).Row().Scan(&sequence); err != nil {
		return fmt.Errorf("failed to look up sequence of %s.%s: %w", table, key, err)
	}
	if !sequence.Valid {
		return nil
	}

	stmt := fmt.Sprintf("SELECT setval(?, (SELECT COALESCE(MAX(%s), 0) + 1 FROM %s), false)",
		pq.QuoteIdentifier(key), pq.QuoteIdentifier(table))
	if err := conn.Exec(stmt, sequence.String).Error; err != nil {
		return fmt.Errorf("failed to sync sequence %s: %w", sequence.String, err)
	}
	return nil
}

func (t *GormTarget) Count(ctx context.Context, table string) (int64, error) {
	var count int64
	if err := t.db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (t *GormTarget) Close() error {
	return db.Close(t.db)
}
