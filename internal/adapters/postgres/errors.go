package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes we branch on.
const (
	UniqueViolationCode     = "23505"
	ForeignKeyViolationCode = "23503"
)

// AsPgError unwraps err into a *pgconn.PgError when possible.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	pe, ok := AsPgError(err)
	if !ok || pe.Code != UniqueViolationCode {
		return false
	}
	return constraint == "" || pe.ConstraintName == constraint
}
