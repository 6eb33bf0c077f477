package migration

import "context"

// Source reads whole tables from the origin store.
type Source interface {
	// Rows returns every row of table ordered by orderBy ascending.
	// A missing table yields a *QueryError.
	Rows(ctx context.Context, table, orderBy string) ([]Row, error)
	Close() error
}

// Target writes rows into the destination store.
type Target interface {
	// Upsert inserts row or replaces the row with the same key. Failures are
	// returned as data, never as a panic or a connection abort.
	Upsert(ctx context.Context, table, key string, row Row) *WriteError
	// Clear deletes every row whose key is set.
	Clear(ctx context.Context, table, key string) error
	Count(ctx context.Context, table string) (int64, error)
	Close() error
}

// SequenceSyncer is implemented by targets whose keys are backed by a sequence.
// SyncSequence moves the sequence of table.key past the highest key so inserts
// that do not carry a key keep working after explicit keys were written.
type SequenceSyncer interface {
	SyncSequence(ctx context.Context, table, key string) error
}

// SourceOpener establishes an origin session. Errors are connection-level.
type SourceOpener func(ctx context.Context) (Source, error)

// TargetOpener establishes a destination session. Errors are connection-level.
type TargetOpener func(ctx context.Context) (Target, error)
