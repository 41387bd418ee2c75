package repository

import (
	stderr "errors"

	"github.com/lib/pq"
)

// Postgres unique_violation.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return stderr.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
