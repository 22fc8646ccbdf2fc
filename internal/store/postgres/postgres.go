// Package postgres holds the pgx-backed stores. Each store owns its
// tables and exposes EnsureSchema for the binary that hosts it. Errors
// are translated to the package store sentinels at this boundary.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
