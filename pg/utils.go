package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	CodeConflict = "DB_CONFLICT"
	CodeNotFound = "DB_NOT_FOUND"

	uniqueViolation = "23505"
)

// IsConflict reports whether err is a unique constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsNotFound reports whether err means no rows were found.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// WrapError converts a database error into an errx error. Unique violations
// become conflicts and missing rows become not-found errors; the query and
// the PostgreSQL error fields are attached as details.
func WrapError(err error, query fmt.Stringer) error {
	if err == nil {
		return nil
	}

	details := errx.WithDetails(ErrorDetails(err, query))
	switch {
	case IsConflict(err):
		return errx.Wrap(err, details, errx.WithType(errx.T_Conflict), errx.WithCode(CodeConflict))
	case IsNotFound(err):
		return errx.Wrap(err, details, errx.WithType(errx.T_NotFound), errx.WithCode(CodeNotFound))
	default:
		return errx.Wrap(err, details)
	}
}

// ErrorDetails collects the query text and the fields of a PostgreSQL error.
func ErrorDetails(err error, query fmt.Stringer) errx.D {
	details := make(errx.D)
	if q := queryString(query); q != "" {
		details["query"] = strings.ReplaceAll(q, `"`, ``)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return details
	}

	for k, v := range map[string]string{
		"pg.code":       pgErr.Code,
		"pg.severity":   pgErr.Severity,
		"pg.message":    pgErr.Message,
		"pg.detail":     pgErr.Detail,
		"pg.hint":       pgErr.Hint,
		"pg.table":      pgErr.TableName,
		"pg.column":     pgErr.ColumnName,
		"pg.constraint": pgErr.ConstraintName,
	} {
		if v != "" {
			details[k] = v
		}
	}
	return details
}

// queryString guards against bun queries whose String panics when the
// query cannot be formatted.
func queryString(query fmt.Stringer) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()

	if query == nil {
		return ""
	}
	return query.String()
}
