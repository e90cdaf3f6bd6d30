package database

import (
	stderrors "errors"
	"strings"

	"github.com/lib/pq"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
)

// PostgreSQL error codes this service cares about.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqNotNullViolation     = "23502"
	pqCheckViolation       = "23514"
)

// IsSerializationFailure reports whether err is a store-detected conflict
// between concurrent transactions (serialization failure or deadlock).
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or has no mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		return mapUniqueConstraint(pqErr)

	case pqCheckViolation:
		return mapCheckConstraint(pqErr)

	case pqForeignKeyViolation:
		return errors.BadRequest("referenced record does not exist")

	case pqNotNullViolation:
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapUniqueConstraint translates unique violations into domain errors.
// The partial unique index on items.serial_number is the commit-time
// authority for serial uniqueness; a violation there always means a
// duplicate serial, even when the in-transaction existence check passed.
func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	if strings.Contains(pqErr.Constraint, "serial_number") {
		return errors.DuplicateSerialNumber(extractDetailValue(pqErr.Detail))
	}
	return errors.Conflict("a record with these values already exists")
}

// mapCheckConstraint maps CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_conservation"):
		return errors.Internal("batch quantity counters are inconsistent")

	case strings.Contains(constraint, "serial_counts"):
		return errors.Internal("batch serial number counters are inconsistent")

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: AVAILABLE, RESERVED, DELIVERED, RETURNED",
		})

	case strings.Contains(constraint, "quantity_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be at least 1",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// extractDetailValue pulls the offending value out of a pq detail message
// like `Key (serial_number)=(SN1) already exists.`. Best effort only.
func extractDetailValue(detail string) string {
	open := strings.Index(detail, ")=(")
	if open < 0 {
		return ""
	}
	rest := detail[open+3:]
	close := strings.Index(rest, ")")
	if close < 0 {
		return ""
	}
	return rest[:close]
}
