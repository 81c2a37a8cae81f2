package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err (or anything it wraps) is a PostgreSQL
// unique constraint violation. When constraint is non-empty, the violated
// constraint name must match as well.
func IsUniqueViolation(err error, constraint string) bool {
	return isCode(err, uniqueViolation, constraint)
}

// IsForeignKeyViolation is IsUniqueViolation for foreign key constraints.
func IsForeignKeyViolation(err error, constraint string) bool {
	return isCode(err, foreignKeyViolation, constraint)
}

func isCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
