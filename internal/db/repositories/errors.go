package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL error codes surfaced to the service layer.
const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (duplicate project name, code string, or API key).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// IsCheckViolation reports whether err is a CHECK-constraint violation. The
// invitation_codes state-exclusion constraints fire through this; seeing one
// means a service path tried to combine used/disabled/expired flags.
func IsCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqCheckViolation
}
