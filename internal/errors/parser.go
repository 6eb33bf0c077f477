package errors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes, shared by direct connections and PostgREST error bodies.
const (
	pgForeignKeyViolation  = "23503"
	pgUniqueViolation      = "23505"
	pgNotNullViolation     = "23502"
	pgCheckViolation       = "23514"
	pgInvalidTextRepr      = "22P02"
	pgUndefinedColumn      = "42703"
	postgrestSchemaMissing = "PGRST204"
)

// ClassifyWriteError maps a destination write failure to a WriteKind* class.
// The error text itself is never altered.
func ClassifyWriteError(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if kind := ClassifyCode(pgErr.Code); kind != WriteKindOther {
			return kind
		}
	}
	return ClassifyMessage(err.Error())
}

// ClassifyCode maps a SQLSTATE or PostgREST code.
func ClassifyCode(code string) string {
	switch code {
	case pgForeignKeyViolation:
		return WriteKindForeignKey
	case pgUniqueViolation:
		return WriteKindDuplicateKey
	case pgNotNullViolation:
		return WriteKindNotNull
	case pgCheckViolation:
		return WriteKindCheck
	case pgInvalidTextRepr, pgUndefinedColumn, postgrestSchemaMissing:
		return WriteKindInvalidInput
	default:
		return WriteKindOther
	}
}

// ClassifyMessage falls back to the message text for drivers without codes
// (sqlite in tests, plain-text proxies).
func ClassifyMessage(msg string) string {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "foreign key constraint"):
		return WriteKindForeignKey
	case strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		return WriteKindDuplicateKey
	case strings.Contains(lower, "not-null constraint") || strings.Contains(lower, "not null constraint"):
		return WriteKindNotNull
	case strings.Contains(lower, "check constraint"):
		return WriteKindCheck
	case strings.Contains(lower, "invalid input syntax") || strings.Contains(lower, "no column named") ||
		strings.Contains(lower, "has no column") || strings.Contains(lower, "could not find the"):
		return WriteKindInvalidInput
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout"):
		return WriteKindTransport
	default:
		return WriteKindOther
	}
}
