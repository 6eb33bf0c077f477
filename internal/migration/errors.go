package migration

import (
	"errors"
	"fmt"
)

// Store names used in connection errors.
const (
	StoreOrigin      = "origin"
	StoreDestination = "destination"
)

// ConnectionError means a store could not be reached. It is the only error that
// aborts a run.
type ConnectionError struct {
	Store string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s store: %v", e.Store, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError means a table could not be read from the origin.
type QueryError struct {
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Table, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// MappingError means a source row cannot be shaped for the destination.
// Row is the zero-based position of the row in the source batch.
type MappingError struct {
	Table  string
	Row    int
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s row %d: %s %s", e.Table, e.Row, e.Field, e.Reason)
}

// WriteError carries the destination's message verbatim.
type WriteError struct {
	Table   string
	Key     interface{}
	Kind    string
	Message string
}

func (e *WriteError) Error() string {
	return e.Message
}

// IsConnectionError reports whether err aborted a run.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
